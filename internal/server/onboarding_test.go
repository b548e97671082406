package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invitationdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	onboardingdomain "github.com/tradeplane/tradeplane/internal/onboarding/domain"
	"github.com/tradeplane/tradeplane/internal/orgcontext"
)

type fakeOnboardingService struct {
	submitCustomerCalls int
	submitErr           error
	approveCalls        int
	approveErr          error
	lastApproveDomain   string
	lastApproveID       snowflake.ID
	rejectCalls         int
	rejectErr           error
	lastRejectReason    string
	lastListReq         onboardingdomain.ListRequest
}

func (f *fakeOnboardingService) SubmitCustomer(ctx context.Context, token string, app onboardingdomain.CustomerApplication) (*onboardingdomain.CustomerOnboarding, error) {
	f.submitCustomerCalls++
	_ = ctx
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &onboardingdomain.CustomerOnboarding{
		ID:              snowflake.ID(10),
		InvitationToken: token,
		CompanyName:     app.CompanyName,
		ReviewState:     onboardingdomain.ReviewState{Status: onboardingdomain.StatusSubmitted},
	}, nil
}

func (f *fakeOnboardingService) SubmitVendor(ctx context.Context, token string, app onboardingdomain.VendorApplication) (*onboardingdomain.VendorOnboarding, error) {
	_ = ctx
	_ = token
	_ = app
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &onboardingdomain.VendorOnboarding{ID: snowflake.ID(11)}, nil
}

func (f *fakeOnboardingService) SubmitEmployee(ctx context.Context, token string, app onboardingdomain.EmployeeApplication) (*onboardingdomain.EmployeeOnboarding, error) {
	_ = ctx
	_ = token
	_ = app
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &onboardingdomain.EmployeeOnboarding{ID: snowflake.ID(12)}, nil
}

func (f *fakeOnboardingService) Approve(ctx context.Context, domainType string, id snowflake.ID, approverID snowflake.ID) (*onboardingdomain.ApprovalResult, error) {
	f.approveCalls++
	f.lastApproveDomain = domainType
	f.lastApproveID = id
	_ = ctx
	_ = approverID
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	orgID := snowflake.ID(77)
	return &onboardingdomain.ApprovalResult{OrganizationID: &orgID}, nil
}

func (f *fakeOnboardingService) Reject(ctx context.Context, domainType string, id snowflake.ID, approverID snowflake.ID, reason string) error {
	f.rejectCalls++
	f.lastRejectReason = reason
	_ = ctx
	_ = domainType
	_ = id
	_ = approverID
	return f.rejectErr
}

func (f *fakeOnboardingService) List(ctx context.Context, req onboardingdomain.ListRequest) (*onboardingdomain.ListResponse, error) {
	f.lastListReq = req
	_ = ctx
	return &onboardingdomain.ListResponse{}, nil
}

func (f *fakeOnboardingService) GetCustomer(ctx context.Context, id snowflake.ID) (*onboardingdomain.CustomerOnboarding, error) {
	_ = ctx
	return &onboardingdomain.CustomerOnboarding{ID: id}, nil
}

func (f *fakeOnboardingService) GetVendor(ctx context.Context, id snowflake.ID) (*onboardingdomain.VendorOnboarding, error) {
	_ = ctx
	return &onboardingdomain.VendorOnboarding{ID: id}, nil
}

func (f *fakeOnboardingService) GetEmployee(ctx context.Context, id snowflake.ID) (*onboardingdomain.EmployeeOnboarding, error) {
	_ = ctx
	return &onboardingdomain.EmployeeOnboarding{ID: id}, nil
}

func newOnboardingTestRouter(svc *fakeOnboardingService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := &Server{onboardingSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	if userID != "" {
		router.Use(func(c *gin.Context) {
			c.Set(contextUserIDKey, userID)
			c.Next()
		})
	}
	router.POST("/public/onboarding/customer", srv.SubmitCustomerOnboarding)
	router.GET("/onboardings/:domain/:id", srv.GetOnboarding)
	router.POST("/onboardings/:domain/:id/approve", srv.ApproveOnboarding)
	router.POST("/onboardings/:domain/:id/reject", srv.RejectOnboarding)
	return router
}

func newOnboardingListRouter(svc *fakeOnboardingService, orgID snowflake.ID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := &Server{onboardingSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(orgcontext.WithOrgID(c.Request.Context(), int64(orgID)))
		c.Next()
	})
	router.GET("/onboardings", srv.ListOnboardings)
	return router
}

func TestSubmitCustomerOnboardingReturnsCreated(t *testing.T) {
	svc := &fakeOnboardingService{}
	router := newOnboardingTestRouter(svc, "")

	body := `{"token":"tok_abc","application":{"company_name":"Acme Retail","contact_name":"Dewi"}}`
	req := httptest.NewRequest(http.MethodPost, "/public/onboarding/customer", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.submitCustomerCalls != 1 {
		t.Fatalf("expected one submit call, got %d", svc.submitCustomerCalls)
	}
}

func TestSubmitCustomerOnboardingUsedTokenReturnsGone(t *testing.T) {
	svc := &fakeOnboardingService{submitErr: invitationdomain.ErrTokenUsed}
	router := newOnboardingTestRouter(svc, "")

	body := `{"token":"tok_spent","application":{"company_name":"Acme"}}`
	req := httptest.NewRequest(http.MethodPost, "/public/onboarding/customer", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusGone {
		t.Fatalf("expected status 410, got %d", resp.Code)
	}
}

func TestListOnboardingsSkipsOrgFilterForPendingVendors(t *testing.T) {
	svc := &fakeOnboardingService{}
	router := newOnboardingListRouter(svc, snowflake.ID(55))

	req := httptest.NewRequest(http.MethodGet, "/onboardings?domain=vendor&status=submitted", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastListReq.Domain != onboardingdomain.DomainVendor {
		t.Fatalf("expected VENDOR domain, got %q", svc.lastListReq.Domain)
	}
	if svc.lastListReq.Status != onboardingdomain.StatusSubmitted {
		t.Fatalf("expected SUBMITTED status, got %q", svc.lastListReq.Status)
	}
	// Vendor submissions are unscoped until approval creates the org;
	// filtering by the reviewer's org would hide them all.
	if svc.lastListReq.OrgID != nil {
		t.Fatalf("expected no org filter for vendor submissions, got %v", *svc.lastListReq.OrgID)
	}
}

func TestListOnboardingsScopesEmployeesToOrg(t *testing.T) {
	svc := &fakeOnboardingService{}
	router := newOnboardingListRouter(svc, snowflake.ID(55))

	req := httptest.NewRequest(http.MethodGet, "/onboardings?domain=employee", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastListReq.OrgID == nil || *svc.lastListReq.OrgID != snowflake.ID(55) {
		t.Fatalf("expected employee list scoped to org 55, got %v", svc.lastListReq.OrgID)
	}
}

func TestApproveOnboardingRoutesToDomain(t *testing.T) {
	svc := &fakeOnboardingService{}
	router := newOnboardingTestRouter(svc, snowflake.ID(900).String())

	id := snowflake.ID(10).String()
	req := httptest.NewRequest(http.MethodPost, "/onboardings/customer/"+id+"/approve", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastApproveDomain != onboardingdomain.DomainCustomer {
		t.Fatalf("expected CUSTOMER domain, got %q", svc.lastApproveDomain)
	}
	if svc.lastApproveID != snowflake.ID(10) {
		t.Fatalf("expected id 10, got %v", svc.lastApproveID)
	}
}

func TestApproveOnboardingInvalidDomainReturnsValidationError(t *testing.T) {
	svc := &fakeOnboardingService{}
	router := newOnboardingTestRouter(svc, snowflake.ID(900).String())

	req := httptest.NewRequest(http.MethodPost, "/onboardings/invoice/10/approve", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if svc.approveCalls != 0 {
		t.Fatal("expected approve not to be called")
	}
}

func TestApproveOnboardingAlreadyDecidedReturnsConflict(t *testing.T) {
	svc := &fakeOnboardingService{approveErr: onboardingdomain.ErrInvalidStateTransition}
	router := newOnboardingTestRouter(svc, snowflake.ID(900).String())

	req := httptest.NewRequest(http.MethodPost, "/onboardings/customer/10/approve", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestApproveOnboardingWithoutSessionReturnsUnauthorized(t *testing.T) {
	svc := &fakeOnboardingService{}
	router := newOnboardingTestRouter(svc, "")

	req := httptest.NewRequest(http.MethodPost, "/onboardings/customer/10/approve", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestRejectOnboardingPassesReason(t *testing.T) {
	svc := &fakeOnboardingService{}
	router := newOnboardingTestRouter(svc, snowflake.ID(900).String())

	body := `{"reason":"missing tax id"}`
	req := httptest.NewRequest(http.MethodPost, "/onboardings/vendor/11/reject", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastRejectReason != "missing tax id" {
		t.Fatalf("unexpected reason %q", svc.lastRejectReason)
	}
}

func TestRejectOnboardingEmptyReasonReturnsValidationError(t *testing.T) {
	svc := &fakeOnboardingService{rejectErr: onboardingdomain.ErrEmptyRejectionReason}
	router := newOnboardingTestRouter(svc, snowflake.ID(900).String())

	body := `{"reason":""}`
	req := httptest.NewRequest(http.MethodPost, "/onboardings/employee/12/reject", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}
