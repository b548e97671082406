package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/tradeplane/tradeplane/internal/audit/domain"
	auditrepository "github.com/tradeplane/tradeplane/internal/audit/repository"
	auditservice "github.com/tradeplane/tradeplane/internal/audit/service"
	authdomain "github.com/tradeplane/tradeplane/internal/auth/domain"
	authrepository "github.com/tradeplane/tradeplane/internal/auth/repository"
	"github.com/tradeplane/tradeplane/internal/clock"
	"github.com/tradeplane/tradeplane/internal/config"
	invdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	invrepository "github.com/tradeplane/tradeplane/internal/invitation/repository"
	invservice "github.com/tradeplane/tradeplane/internal/invitation/service"
	"github.com/tradeplane/tradeplane/internal/onboarding/domain"
	"github.com/tradeplane/tradeplane/internal/onboarding/repository"
	orgdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	orgrepository "github.com/tradeplane/tradeplane/internal/organization/repository"
	"github.com/tradeplane/tradeplane/internal/providers/email"
	"github.com/tradeplane/tradeplane/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     domain.Service
	invites invdomain.Service
	invRepo invdomain.Repository
	orgRepo orgdomain.Repository
	clk     *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&invdomain.InvitationToken{},
		&domain.CustomerOnboarding{},
		&domain.VendorOnboarding{},
		&domain.EmployeeOnboarding{},
		&orgdomain.Organization{},
		&orgdomain.OrganizationMember{},
		&orgdomain.Employee{},
		&authdomain.User{},
		&auditdomain.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	cfg := config.Config{
		PublicBaseURL: "http://localhost:8080",
		Invite: config.InviteConfig{
			DefaultTTL: 7 * 24 * time.Hour,
			MaxResends: 5,
		},
	}

	audit := auditservice.NewService(auditservice.Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	invRepo := invrepository.NewRepository(dbConn)
	invites := invservice.NewService(invservice.Params{
		DB:     dbConn,
		Log:    zap.NewNop(),
		Config: cfg,
		GenID:  node,
		Clock:  clk,
		Repo:   invRepo,
		Email:  &email.NoOpProvider{},
		Audit:  audit,
	})

	orgRepo := orgrepository.NewRepository(dbConn)
	userRepo, _ := authrepository.New(dbConn)

	svc := NewService(Params{
		DB:      dbConn,
		Log:     zap.NewNop(),
		Config:  cfg,
		GenID:   node,
		Clock:   clk,
		Repo:    repository.NewRepository(dbConn),
		Invites: invRepo,
		Orgs:    orgRepo,
		Users:   userRepo,
		Email:   &email.NoOpProvider{},
		Audit:   audit,
	})

	return &fixture{
		db:      dbConn,
		svc:     svc,
		invites: invites,
		invRepo: invRepo,
		orgRepo: orgRepo,
		clk:     clk,
	}
}

func (f *fixture) issue(t *testing.T, addr, orgType, portal string) *invdomain.InvitationToken {
	t.Helper()
	row, err := f.invites.Issue(context.Background(), invdomain.IssueRequest{
		Email:            addr,
		OrganizationType: orgType,
		PortalType:       portal,
		Role:             orgdomain.RoleOwner,
		TTL:              7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return row
}

func vendorApplication() domain.VendorApplication {
	return domain.VendorApplication{
		OrgApplication: domain.OrgApplication{
			CompanyName: "Acme Supplies",
			ContactName: "Pat Vendor",
			Phone:       "+1-555-0100",
			TaxID:       "TAX-1",
			Address:     domain.Address{Line1: "1 Supply Way", City: "Springfield", CountryCode: "US"},
			Bank:        domain.BankAccount{BankName: "First Bank", AccountNumber: "0001", RoutingCode: "FB01"},
		},
		Categories: "fasteners",
	}
}

func TestSubmitConsumesTokenAndRejectsResubmit(t *testing.T) {
	f := newFixture(t)

	invite := f.issue(t, "vendor@acme.test", orgdomain.TypeVendor, invdomain.PortalVendor)

	row, err := f.svc.SubmitVendor(context.Background(), invite.Token, vendorApplication())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if row.Status != domain.StatusSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", row.Status)
	}
	if row.SubmittedAt == nil {
		t.Fatal("expected submitted_at stamped")
	}
	if row.Email != "vendor@acme.test" {
		t.Fatalf("expected submission bound to invitee email, got %s", row.Email)
	}

	consumed, err := f.invRepo.FindByToken(context.Background(), invite.Token)
	if err != nil {
		t.Fatalf("find token: %v", err)
	}
	if consumed.Status != invdomain.StatusUsed || !consumed.Used {
		t.Fatalf("expected token USED, got %s used=%v", consumed.Status, consumed.Used)
	}

	// Resubmission fails and the stored submission is untouched.
	app := vendorApplication()
	app.CompanyName = "Evil Overwrite Inc"
	if _, err := f.svc.SubmitVendor(context.Background(), invite.Token, app); !errors.Is(err, invdomain.ErrTokenUsed) {
		t.Fatalf("expected ErrTokenUsed, got %v", err)
	}

	stored, err := f.svc.GetVendor(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.CompanyName != "Acme Supplies" {
		t.Fatalf("expected original submission intact, got %s", stored.CompanyName)
	}
}

func TestConcurrentSubmitsConsumeTokenOnce(t *testing.T) {
	f := newFixture(t)

	// One connection: the racing transactions serialize at the pool and
	// the loser is decided by the conditional consume, not by a sqlite
	// lock error.
	sqlDB, err := f.db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	invite := f.issue(t, "vendor@acme.test", orgdomain.TypeVendor, invdomain.PortalVendor)

	var (
		wg    sync.WaitGroup
		errs  [2]error
		start = make(chan struct{})
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.SubmitVendor(context.Background(), invite.Token, vendorApplication())
		}(i)
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, submitErr := range errs {
		switch {
		case submitErr == nil:
			won++
		case errors.Is(submitErr, invdomain.ErrTokenUsed):
			lost++
		default:
			t.Fatalf("unexpected submit error: %v", submitErr)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one submit to win, got won=%d lost=%d", won, lost)
	}

	var count int64
	if err := f.db.Model(&domain.VendorOnboarding{}).Count(&count).Error; err != nil {
		t.Fatalf("count submissions: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single stored submission, got %d", count)
	}
}

func TestApproveRoundTripCreatesOrganization(t *testing.T) {
	f := newFixture(t)

	invite := f.issue(t, "vendor@acme.test", orgdomain.TypeVendor, invdomain.PortalVendor)

	if _, err := f.invites.Redeem(context.Background(), invite.Token); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	row, err := f.svc.SubmitVendor(context.Background(), invite.Token, vendorApplication())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := f.svc.Approve(context.Background(), domain.DomainVendor, row.ID, 99)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.OrganizationID == nil || result.UserID == nil {
		t.Fatal("expected organization and user created")
	}

	org, err := f.orgRepo.GetOrganization(context.Background(), *result.OrganizationID)
	if err != nil {
		t.Fatalf("get org: %v", err)
	}
	if org.Type != orgdomain.TypeVendor {
		t.Fatalf("expected VENDOR org, got %s", org.Type)
	}
	if org.SupportEmail != "vendor@acme.test" {
		t.Fatalf("expected org linked to invitee email, got %s", org.SupportEmail)
	}

	var user authdomain.User
	if err := f.db.First(&user, "id = ?", *result.UserID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Email != "vendor@acme.test" {
		t.Fatalf("expected user email vendor@acme.test, got %s", user.Email)
	}

	role, err := f.orgRepo.MemberRole(context.Background(), *result.OrganizationID, *result.UserID)
	if err != nil {
		t.Fatalf("member role: %v", err)
	}
	if role != orgdomain.RoleOwner {
		t.Fatalf("expected OWNER membership, got %s", role)
	}

	// Second review attempt is rejected and stamps are not overwritten.
	approved, err := f.svc.GetVendor(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	firstApprovedAt := *approved.ApprovedAt

	if _, err := f.svc.Approve(context.Background(), domain.DomainVendor, row.ID, 100); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if err := f.svc.Reject(context.Background(), domain.DomainVendor, row.ID, 100, "too late"); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on reject, got %v", err)
	}

	again, err := f.svc.GetVendor(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if !again.ApprovedAt.Equal(firstApprovedAt) {
		t.Fatal("expected approved_at unchanged after failed re-review")
	}
	if again.ApprovedBy == nil || *again.ApprovedBy != 99 {
		t.Fatal("expected original approver preserved")
	}
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)

	invite := f.issue(t, "customer@buyer.test", orgdomain.TypeCustomer, invdomain.PortalCustomer)

	row, err := f.svc.SubmitCustomer(context.Background(), invite.Token, domain.CustomerApplication{
		OrgApplication: domain.OrgApplication{
			CompanyName: "Buyer Co",
			ContactName: "Chris Buyer",
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := f.svc.Reject(context.Background(), domain.DomainCustomer, row.ID, 99, ""); !errors.Is(err, domain.ErrEmptyRejectionReason) {
		t.Fatalf("expected ErrEmptyRejectionReason, got %v", err)
	}

	if err := f.svc.Reject(context.Background(), domain.DomainCustomer, row.ID, 99, "incomplete banking info"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	rejected, err := f.svc.GetCustomer(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rejected.Status != domain.StatusRejected {
		t.Fatalf("expected REJECTED, got %s", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "incomplete banking info" {
		t.Fatal("expected rejection reason recorded")
	}
	if rejected.RejectedAt == nil {
		t.Fatal("expected rejected_at stamped")
	}
	if rejected.OrgID != nil {
		t.Fatal("expected no organization created on reject")
	}

	var orgCount int64
	if err := f.db.Model(&orgdomain.Organization{}).Count(&orgCount).Error; err != nil {
		t.Fatalf("count orgs: %v", err)
	}
	if orgCount != 0 {
		t.Fatalf("expected zero organizations, got %d", orgCount)
	}
}

func TestEmployeeOnboardingLifecycle(t *testing.T) {
	f := newFixture(t)

	employerID := snowflake.ID(12345)
	invite, err := f.invites.Issue(context.Background(), invdomain.IssueRequest{
		Email:            "worker@buyer.test",
		OrganizationType: orgdomain.TypeInternal,
		PortalType:       invdomain.PortalEmployee,
		Role:             orgdomain.RoleMember,
		TTL:              72 * time.Hour,
		OrgID:            &employerID,
		InvitedBy:        &employerID,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	row, err := f.svc.SubmitEmployee(context.Background(), invite.Token, domain.EmployeeApplication{
		FullName:   "Sam Worker",
		Department: "Procurement",
		Position:   "Analyst",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if row.OrgID != employerID {
		t.Fatalf("expected submission bound to employer org, got %d", row.OrgID)
	}

	result, err := f.svc.Approve(context.Background(), domain.DomainEmployee, row.ID, 99)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.EmployeeID == nil {
		t.Fatal("expected employee record created")
	}

	var employee orgdomain.Employee
	if err := f.db.First(&employee, "id = ?", *result.EmployeeID).Error; err != nil {
		t.Fatalf("load employee: %v", err)
	}
	if employee.OrgID != employerID {
		t.Fatalf("expected employee in org %d, got %d", employerID, employee.OrgID)
	}
	if employee.Email != "worker@buyer.test" {
		t.Fatalf("expected employee email preserved, got %s", employee.Email)
	}
}

func TestSubmitPortalMismatch(t *testing.T) {
	f := newFixture(t)

	invite := f.issue(t, "vendor@acme.test", orgdomain.TypeVendor, invdomain.PortalVendor)

	_, err := f.svc.SubmitCustomer(context.Background(), invite.Token, domain.CustomerApplication{
		OrgApplication: domain.OrgApplication{CompanyName: "X", ContactName: "Y"},
	})
	if !errors.Is(err, domain.ErrPortalMismatch) {
		t.Fatalf("expected ErrPortalMismatch, got %v", err)
	}

	// The token survives the failed attempt.
	if _, err := f.invites.Redeem(context.Background(), invite.Token); err != nil {
		t.Fatalf("expected token still redeemable, got %v", err)
	}
}

func TestSubmitExpiredToken(t *testing.T) {
	f := newFixture(t)

	invite := f.issue(t, "vendor@acme.test", orgdomain.TypeVendor, invdomain.PortalVendor)
	f.clk.Advance(8 * 24 * time.Hour)

	_, err := f.svc.SubmitVendor(context.Background(), invite.Token, vendorApplication())
	if !errors.Is(err, invdomain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if !errors.Is(err, invdomain.ErrInvalidToken) {
		t.Fatalf("expected error to match ErrInvalidToken, got %v", err)
	}
}

func TestSubmitRejectsUnknownMetadataKeys(t *testing.T) {
	f := newFixture(t)

	invite := f.issue(t, "vendor@acme.test", orgdomain.TypeVendor, invdomain.PortalVendor)

	app := vendorApplication()
	app.Metadata = map[string]any{"favourite_color": "green"}
	if _, err := f.svc.SubmitVendor(context.Background(), invite.Token, app); !errors.Is(err, domain.ErrInvalidMetadataKey) {
		t.Fatalf("expected ErrInvalidMetadataKey, got %v", err)
	}

	app.Metadata = map[string]any{"source": "trade-fair", "notes": "met at booth 12"}
	if _, err := f.svc.SubmitVendor(context.Background(), invite.Token, app); err != nil {
		t.Fatalf("submit with documented metadata keys: %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)

	first := f.issue(t, "a@acme.test", orgdomain.TypeVendor, invdomain.PortalVendor)
	second := f.issue(t, "b@acme.test", orgdomain.TypeVendor, invdomain.PortalVendor)

	rowA, err := f.svc.SubmitVendor(context.Background(), first.Token, vendorApplication())
	if err != nil {
		t.Fatalf("submit a: %v", err)
	}
	if _, err := f.svc.SubmitVendor(context.Background(), second.Token, vendorApplication()); err != nil {
		t.Fatalf("submit b: %v", err)
	}

	if _, err := f.svc.Approve(context.Background(), domain.DomainVendor, rowA.ID, 99); err != nil {
		t.Fatalf("approve: %v", err)
	}

	resp, err := f.svc.List(context.Background(), domain.ListRequest{
		Domain: domain.DomainVendor,
		Status: domain.StatusSubmitted,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Submissions) != 1 {
		t.Fatalf("expected 1 submitted row, got %d", len(resp.Submissions))
	}
	if resp.Submissions[0].Email != "b@acme.test" {
		t.Fatalf("expected pending submission for b@acme.test, got %s", resp.Submissions[0].Email)
	}
}
