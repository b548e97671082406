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
	orgdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	orgrepository "github.com/tradeplane/tradeplane/internal/organization/repository"
	"github.com/tradeplane/tradeplane/internal/partnerinvite/domain"
	"github.com/tradeplane/tradeplane/internal/partnerinvite/repository"
	"github.com/tradeplane/tradeplane/internal/providers/email"
	"github.com/tradeplane/tradeplane/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	orgs  orgdomain.Repository
	genID *snowflake.Node
	clk   *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&domain.CustomerVendorInvitation{},
		&orgdomain.Organization{},
		&auditdomain.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	orgs := orgrepository.NewRepository(dbConn)

	audit := auditservice.NewService(auditservice.Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	svc := NewService(Params{
		DB:     dbConn,
		Log:    zap.NewNop(),
		Config: config.Config{PublicBaseURL: "http://localhost:8080"},
		GenID:  node,
		Clock:  clk,
		Repo:   repository.NewRepository(dbConn),
		Orgs:   orgs,
		Email:  &email.NoOpProvider{},
		Audit:  audit,
	})

	return &fixture{db: dbConn, svc: svc, orgs: orgs, genID: node, clk: clk}
}

func (f *fixture) createOrg(t *testing.T, name, orgType string) snowflake.ID {
	t.Helper()
	id := f.genID.Generate()
	err := f.orgs.CreateOrganization(context.Background(), orgdomain.Organization{
		ID:        id,
		Name:      name,
		Slug:      name + "-" + id.Base36(),
		Type:      orgType,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: f.clk.Now(),
		UpdatedAt: f.clk.Now(),
	})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	return id
}

func TestInviteAndAccept(t *testing.T) {
	f := newFixture(t)

	customerID := f.createOrg(t, "buyer", orgdomain.TypeCustomer)
	vendorID := f.createOrg(t, "supplier", orgdomain.TypeVendor)

	row, err := f.svc.Invite(context.Background(), domain.InviteRequest{
		CustomerOrgID: customerID,
		VendorEmail:   "sales@supplier.test",
		VendorName:    "Supplier Inc",
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if row.Status != domain.StatusPending {
		t.Fatalf("expected PENDING, got %s", row.Status)
	}
	if row.Token == "" {
		t.Fatal("expected token")
	}

	accepted, err := f.svc.Accept(context.Background(), row.Token, vendorID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != domain.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", accepted.Status)
	}
	if accepted.VendorOrgID == nil || *accepted.VendorOrgID != vendorID {
		t.Fatal("expected vendor org linked")
	}
	if accepted.AcceptedAt == nil {
		t.Fatal("expected accepted_at stamped")
	}

	// The transition is one-way.
	if _, err := f.svc.Decline(context.Background(), row.Token); !errors.Is(err, domain.ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), row.Token, vendorID); !errors.Is(err, domain.ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided on re-accept, got %v", err)
	}
}

func TestDecline(t *testing.T) {
	f := newFixture(t)

	customerID := f.createOrg(t, "buyer", orgdomain.TypeCustomer)

	row, err := f.svc.Invite(context.Background(), domain.InviteRequest{
		CustomerOrgID: customerID,
		VendorEmail:   "sales@supplier.test",
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	declined, err := f.svc.Decline(context.Background(), row.Token)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != domain.StatusDeclined {
		t.Fatalf("expected DECLINED, got %s", declined.Status)
	}
	if declined.DeclinedAt == nil {
		t.Fatal("expected declined_at stamped")
	}
	if declined.VendorOrgID != nil {
		t.Fatal("expected no vendor org on decline")
	}
}

func TestInviteValidation(t *testing.T) {
	f := newFixture(t)

	customerID := f.createOrg(t, "buyer", orgdomain.TypeCustomer)
	vendorID := f.createOrg(t, "supplier", orgdomain.TypeVendor)

	// Only customer organizations may invite.
	if _, err := f.svc.Invite(context.Background(), domain.InviteRequest{
		CustomerOrgID: vendorID,
		VendorEmail:   "sales@supplier.test",
	}); !errors.Is(err, domain.ErrInvalidCustomer) {
		t.Fatalf("expected ErrInvalidCustomer, got %v", err)
	}

	if _, err := f.svc.Invite(context.Background(), domain.InviteRequest{
		CustomerOrgID: customerID,
		VendorEmail:   "not-an-email",
	}); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	row, err := f.svc.Invite(context.Background(), domain.InviteRequest{
		CustomerOrgID: customerID,
		VendorEmail:   "sales@supplier.test",
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	// Only vendor organizations may accept.
	if _, err := f.svc.Accept(context.Background(), row.Token, customerID); !errors.Is(err, domain.ErrInvalidVendorOrg) {
		t.Fatalf("expected ErrInvalidVendorOrg, got %v", err)
	}

	if _, err := f.svc.Accept(context.Background(), "bogus", vendorID); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound, got %v", err)
	}
}
