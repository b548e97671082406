package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tradeplane/tradeplane/internal/clock"
	"github.com/tradeplane/tradeplane/internal/config"
	invitationdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	invitationrepository "github.com/tradeplane/tradeplane/internal/invitation/repository"
	"github.com/tradeplane/tradeplane/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestScheduler(t *testing.T) (*Scheduler, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&invitationdomain.InvitationToken{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	s, err := New(Params{
		Log:    zap.NewNop(),
		Config: config.Config{Invite: config.InviteConfig{SweepInterval: time.Minute}},
		Clock:  clk,
		Repo:   invitationrepository.NewRepository(dbConn),
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s, dbConn, node, clk
}

func seedInvitation(t *testing.T, dbConn *gorm.DB, node *snowflake.Node, token string, status string, expiresAt time.Time) {
	t.Helper()
	row := invitationdomain.InvitationToken{
		ID:               node.Generate(),
		Token:            token,
		Email:            token + "@example.test",
		OrganizationType: "VENDOR",
		PortalType:       invitationdomain.PortalVendor,
		Role:             "OWNER",
		Status:           status,
		ExpiresAt:        expiresAt,
		Metadata:         datatypes.JSONMap{},
	}
	if err := dbConn.Create(&row).Error; err != nil {
		t.Fatalf("seed invitation: %v", err)
	}
}

func TestRunOnceExpiresOverdueInvitations(t *testing.T) {
	s, dbConn, node, clk := newTestScheduler(t)

	now := clk.Now()
	seedInvitation(t, dbConn, node, "overdue", invitationdomain.StatusPending, now.Add(-time.Hour))
	seedInvitation(t, dbConn, node, "current", invitationdomain.StatusPending, now.Add(time.Hour))
	seedInvitation(t, dbConn, node, "spent", invitationdomain.StatusUsed, now.Add(-time.Hour))

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	var statuses []struct {
		Token  string
		Status string
	}
	if err := dbConn.Table("invitation_tokens").Select("token", "status").Find(&statuses).Error; err != nil {
		t.Fatalf("read statuses: %v", err)
	}

	want := map[string]string{
		"overdue": invitationdomain.StatusExpired,
		"current": invitationdomain.StatusPending,
		"spent":   invitationdomain.StatusUsed,
	}
	for _, row := range statuses {
		if row.Status != want[row.Token] {
			t.Fatalf("token %s: expected %s, got %s", row.Token, want[row.Token], row.Status)
		}
	}
}

func TestRunOnceAfterClockAdvance(t *testing.T) {
	s, dbConn, node, clk := newTestScheduler(t)

	seedInvitation(t, dbConn, node, "future", invitationdomain.StatusPending, clk.Now().Add(24*time.Hour))

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	var status string
	if err := dbConn.Table("invitation_tokens").Select("status").Where("token = ?", "future").Scan(&status).Error; err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != invitationdomain.StatusPending {
		t.Fatalf("expected PENDING before deadline, got %s", status)
	}

	clk.Advance(25 * time.Hour)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if err := dbConn.Table("invitation_tokens").Select("status").Where("token = ?", "future").Scan(&status).Error; err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != invitationdomain.StatusExpired {
		t.Fatalf("expected EXPIRED after deadline, got %s", status)
	}
}
