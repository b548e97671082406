package migration

import (
	"testing"

	authdomain "github.com/tradeplane/tradeplane/internal/auth/domain"
	"github.com/tradeplane/tradeplane/internal/config"
	organizationdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	"github.com/tradeplane/tradeplane/pkg/db"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	return conn
}

func TestRunBuildsSchemaWithoutPostgres(t *testing.T) {
	conn := newTestDB(t)

	cfg := config.Config{DBType: "sqlite"}
	if err := Run(conn, cfg); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	for _, table := range []string{
		"users",
		"sessions",
		"organizations",
		"organization_members",
		"employees",
		"invitation_tokens",
		"customer_onboardings",
		"vendor_onboardings",
		"employee_onboardings",
		"customer_vendor_invitations",
		"api_keys",
		"audit_logs",
	} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}

	var org organizationdomain.Organization
	if err := conn.Where("slug = ?", "tradeplane").First(&org).Error; err != nil {
		t.Fatalf("expected default org seeded: %v", err)
	}
}

func TestRunSeedsAdminOnlyWhenBootstrapEnabled(t *testing.T) {
	conn := newTestDB(t)

	cfg := config.Config{DBType: "sqlite"}
	if err := Run(conn, cfg); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	var count int64
	if err := conn.Model(&authdomain.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no users without bootstrap flag, got %d", count)
	}

	cfg.Bootstrap.EnsureDefaultOrgAndUser = true
	if err := Run(conn, cfg); err != nil {
		t.Fatalf("run migrations with bootstrap: %v", err)
	}

	var admin authdomain.User
	if err := conn.Where("provider = ? AND is_default = ?", "local", true).First(&admin).Error; err != nil {
		t.Fatalf("expected bootstrap admin seeded: %v", err)
	}
}
