package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invitationdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
)

type fakeInvitationService struct {
	issueCalls  int
	issueErr    error
	lastIssue   invitationdomain.IssueRequest
	redeemErr   error
	resolution  *invitationdomain.Resolution
	revokeErr   error
	resendCalls int
}

func (f *fakeInvitationService) Issue(ctx context.Context, req invitationdomain.IssueRequest) (*invitationdomain.InvitationToken, error) {
	f.issueCalls++
	f.lastIssue = req
	_ = ctx
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &invitationdomain.InvitationToken{
		ID:         snowflake.ID(1),
		Token:      "tok_abc",
		Email:      req.Email,
		PortalType: req.PortalType,
		Status:     invitationdomain.StatusPending,
	}, nil
}

func (f *fakeInvitationService) Redeem(ctx context.Context, token string) (*invitationdomain.Resolution, error) {
	_ = ctx
	_ = token
	if f.redeemErr != nil {
		return nil, f.redeemErr
	}
	return f.resolution, nil
}

func (f *fakeInvitationService) Revoke(ctx context.Context, token string, revokedBy snowflake.ID) error {
	_ = ctx
	_ = token
	_ = revokedBy
	return f.revokeErr
}

func (f *fakeInvitationService) Resend(ctx context.Context, token string) (*invitationdomain.InvitationToken, error) {
	f.resendCalls++
	_ = ctx
	return &invitationdomain.InvitationToken{Token: token, Status: invitationdomain.StatusPending}, nil
}

func (f *fakeInvitationService) List(ctx context.Context, filter invitationdomain.ListFilter) (*invitationdomain.ListResponse, error) {
	_ = ctx
	_ = filter
	return &invitationdomain.ListResponse{}, nil
}

func newInvitationTestRouter(svc *fakeInvitationService) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	srv := &Server{invitationSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/public/invitations/:token", srv.RedeemInvitation)
	router.POST("/invitations", srv.IssueInvitation)
	router.POST("/invitations/:token/revoke", srv.RevokeInvitation)
	router.POST("/invitations/:token/resend", srv.ResendInvitation)
	return srv, router
}

func TestRedeemInvitationReturnsResolution(t *testing.T) {
	expiresAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := &fakeInvitationService{
		resolution: &invitationdomain.Resolution{
			Email:            "vendor@acme.test",
			OrganizationType: "VENDOR",
			PortalType:       invitationdomain.PortalVendor,
			Role:             "OWNER",
			ExpiresAt:        expiresAt,
		},
	}
	_, router := newInvitationTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/invitations/tok_abc", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got invitationdomain.Resolution
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.Email != "vendor@acme.test" || got.PortalType != invitationdomain.PortalVendor {
		t.Fatalf("unexpected resolution: %+v", got)
	}
}

func TestRedeemInvitationExpiredReturnsGone(t *testing.T) {
	svc := &fakeInvitationService{redeemErr: invitationdomain.ErrTokenExpired}
	_, router := newInvitationTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/invitations/tok_dead", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusGone {
		t.Fatalf("expected status 410, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("token_expired")) {
		t.Fatalf("expected token_expired code, got %s", resp.Body.String())
	}
}

func TestRedeemInvitationUnknownReturnsNotFound(t *testing.T) {
	svc := &fakeInvitationService{redeemErr: invitationdomain.ErrTokenNotFound}
	_, router := newInvitationTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/public/invitations/tok_missing", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestIssueInvitationNormalizesRequest(t *testing.T) {
	svc := &fakeInvitationService{}
	_, router := newInvitationTestRouter(svc)

	body := `{"email":"buyer@acme.test","organization_type":"customer","portal_type":"customer","role":"owner","ttl":"48h"}`
	req := httptest.NewRequest(http.MethodPost, "/invitations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.issueCalls != 1 {
		t.Fatalf("expected one issue call, got %d", svc.issueCalls)
	}
	if svc.lastIssue.OrganizationType != "CUSTOMER" || svc.lastIssue.PortalType != "CUSTOMER" || svc.lastIssue.Role != "OWNER" {
		t.Fatalf("expected uppercased fields, got %+v", svc.lastIssue)
	}
	if svc.lastIssue.TTL != 48*time.Hour {
		t.Fatalf("expected 48h ttl, got %v", svc.lastIssue.TTL)
	}
}

func TestIssueInvitationDuplicateReturnsConflict(t *testing.T) {
	svc := &fakeInvitationService{issueErr: invitationdomain.ErrDuplicateActiveInvitation}
	_, router := newInvitationTestRouter(svc)

	body := `{"email":"buyer@acme.test","organization_type":"CUSTOMER","portal_type":"CUSTOMER","role":"OWNER"}`
	req := httptest.NewRequest(http.MethodPost, "/invitations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestIssueInvitationBadTTLReturnsValidationError(t *testing.T) {
	svc := &fakeInvitationService{}
	_, router := newInvitationTestRouter(svc)

	body := `{"email":"buyer@acme.test","organization_type":"CUSTOMER","portal_type":"CUSTOMER","role":"OWNER","ttl":"soon"}`
	req := httptest.NewRequest(http.MethodPost, "/invitations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if svc.issueCalls != 0 {
		t.Fatal("expected issue not to be called")
	}
}

func TestResendInvitationRateLimited(t *testing.T) {
	svc := &fakeInvitationService{}
	srv, router := newInvitationTestRouter(svc)
	srv.inviteResendLimiter = newRateLimiter(1, time.Hour)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/invitations/tok_abc/resend", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if i == 0 && resp.Code != http.StatusOK {
			t.Fatalf("expected first resend to pass, got %d", resp.Code)
		}
		if i == 1 && resp.Code != http.StatusTooManyRequests {
			t.Fatalf("expected second resend to be limited, got %d", resp.Code)
		}
	}
	if svc.resendCalls != 1 {
		t.Fatalf("expected one resend call, got %d", svc.resendCalls)
	}
}

func TestRevokeInvitationNotPendingReturnsConflict(t *testing.T) {
	svc := &fakeInvitationService{revokeErr: invitationdomain.ErrNotPending}
	_, router := newInvitationTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/invitations/tok_abc/revoke", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}
