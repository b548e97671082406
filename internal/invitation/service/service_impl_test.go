package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/tradeplane/tradeplane/internal/audit/domain"
	auditrepository "github.com/tradeplane/tradeplane/internal/audit/repository"
	auditservice "github.com/tradeplane/tradeplane/internal/audit/service"
	"github.com/tradeplane/tradeplane/internal/clock"
	"github.com/tradeplane/tradeplane/internal/config"
	"github.com/tradeplane/tradeplane/internal/invitation/domain"
	"github.com/tradeplane/tradeplane/internal/invitation/repository"
	orgdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	"github.com/tradeplane/tradeplane/internal/providers/email"
	"github.com/tradeplane/tradeplane/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, domain.Repository, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.InvitationToken{}, &auditdomain.AuditLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	repo := repository.NewRepository(dbConn)

	audit := auditservice.NewService(auditservice.Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	cfg := config.Config{
		PublicBaseURL: "http://localhost:8080",
		Invite: config.InviteConfig{
			DefaultTTL: 7 * 24 * time.Hour,
			MaxResends: 2,
		},
	}

	svc := NewService(Params{
		DB:     dbConn,
		Log:    zap.NewNop(),
		Config: cfg,
		GenID:  node,
		Clock:  clk,
		Repo:   repo,
		Email:  &email.NoOpProvider{},
		Audit:  audit,
	})

	return svc, repo, clk
}

func issueRequest(addr string) domain.IssueRequest {
	return domain.IssueRequest{
		Email:            addr,
		OrganizationType: orgdomain.TypeVendor,
		PortalType:       domain.PortalVendor,
		Role:             "OWNER",
		TTL:              7 * 24 * time.Hour,
	}
}

func TestIssueReturnsPendingUniqueTokens(t *testing.T) {
	svc, _, _ := newTestService(t)

	first, err := svc.Issue(context.Background(), issueRequest("vendor@acme.test"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first.Token == "" {
		t.Fatal("expected non-empty token")
	}
	if first.Status != domain.StatusPending {
		t.Fatalf("expected PENDING status, got %s", first.Status)
	}

	second, err := svc.Issue(context.Background(), issueRequest("other@acme.test"))
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("expected distinct tokens")
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	svc, _, clk := newTestService(t)

	row, err := svc.Issue(context.Background(), issueRequest("vendor@acme.test"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resolution, err := svc.Redeem(context.Background(), row.Token)
	if err != nil {
		t.Fatalf("redeem fresh token: %v", err)
	}
	if resolution.Email != "vendor@acme.test" {
		t.Fatalf("expected resolved email, got %s", resolution.Email)
	}
	if resolution.Role != "OWNER" {
		t.Fatalf("expected resolved role, got %s", resolution.Role)
	}

	clk.Advance(8 * 24 * time.Hour)

	_, err = svc.Redeem(context.Background(), row.Token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired error to match ErrInvalidToken, got %v", err)
	}
}

func TestIssueDuplicateActive(t *testing.T) {
	svc, _, clk := newTestService(t)

	if _, err := svc.Issue(context.Background(), issueRequest("vendor@acme.test")); err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err := svc.Issue(context.Background(), issueRequest("vendor@acme.test"))
	if !errors.Is(err, domain.ErrDuplicateActiveInvitation) {
		t.Fatalf("expected ErrDuplicateActiveInvitation, got %v", err)
	}

	// Once the first invitation expires a new one is allowed.
	clk.Advance(8 * 24 * time.Hour)
	if _, err := svc.Issue(context.Background(), issueRequest("vendor@acme.test")); err != nil {
		t.Fatalf("issue after expiry: %v", err)
	}
}

func TestRevokeThenRedeem(t *testing.T) {
	svc, _, _ := newTestService(t)

	row, err := svc.Issue(context.Background(), issueRequest("vendor@acme.test"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.Revoke(context.Background(), row.Token, 42); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	_, err = svc.Redeem(context.Background(), row.Token)
	if !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}

	// Revoking a terminal token is rejected.
	if err := svc.Revoke(context.Background(), row.Token, 42); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked on second revoke, got %v", err)
	}
}

func TestResendLimit(t *testing.T) {
	svc, _, _ := newTestService(t)

	row, err := svc.Issue(context.Background(), issueRequest("vendor@acme.test"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Resend(context.Background(), row.Token); err != nil {
			t.Fatalf("resend %d: %v", i+1, err)
		}
	}

	_, err = svc.Resend(context.Background(), row.Token)
	if !errors.Is(err, domain.ErrResendLimitExceeded) {
		t.Fatalf("expected ErrResendLimitExceeded, got %v", err)
	}
}

func TestConsumeIsSingleShot(t *testing.T) {
	svc, repo, clk := newTestService(t)

	row, err := svc.Issue(context.Background(), issueRequest("vendor@acme.test"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	affected, err := repo.Consume(context.Background(), row.Token, clk.Now())
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected first consume to affect 1 row, got %d", affected)
	}

	affected, err = repo.Consume(context.Background(), row.Token, clk.Now())
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected second consume to affect 0 rows, got %d", affected)
	}

	_, err = svc.Redeem(context.Background(), row.Token)
	if !errors.Is(err, domain.ErrTokenUsed) {
		t.Fatalf("expected ErrTokenUsed after consume, got %v", err)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Redeem(context.Background(), "no-such-token")
	if !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected not-found error to match ErrInvalidToken, got %v", err)
	}
}

func TestIssueValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := issueRequest("not-an-email")
	if _, err := svc.Issue(context.Background(), req); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	req = issueRequest("vendor@acme.test")
	req.Role = " "
	if _, err := svc.Issue(context.Background(), req); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	req = issueRequest("vendor@acme.test")
	req.PortalType = "PARTNER"
	if _, err := svc.Issue(context.Background(), req); !errors.Is(err, domain.ErrInvalidPortalType) {
		t.Fatalf("expected ErrInvalidPortalType, got %v", err)
	}

	req = issueRequest("vendor@acme.test")
	req.TTL = -time.Hour
	if _, err := svc.Issue(context.Background(), req); !errors.Is(err, domain.ErrInvalidTTL) {
		t.Fatalf("expected ErrInvalidTTL, got %v", err)
	}
}

func TestMarkExpiredSweep(t *testing.T) {
	svc, repo, clk := newTestService(t)

	row, err := svc.Issue(context.Background(), issueRequest("vendor@acme.test"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clk.Advance(8 * 24 * time.Hour)

	flipped, err := repo.MarkExpired(context.Background(), clk.Now())
	if err != nil {
		t.Fatalf("mark expired: %v", err)
	}
	if flipped != 1 {
		t.Fatalf("expected 1 row flipped, got %d", flipped)
	}

	updated, err := repo.FindByToken(context.Background(), row.Token)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if updated.Status != domain.StatusExpired {
		t.Fatalf("expected EXPIRED, got %s", updated.Status)
	}
}
