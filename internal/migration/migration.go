package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	apikeydomain "github.com/tradeplane/tradeplane/internal/apikey/domain"
	auditdomain "github.com/tradeplane/tradeplane/internal/audit/domain"
	authdomain "github.com/tradeplane/tradeplane/internal/auth/domain"
	invitationdomain "github.com/tradeplane/tradeplane/internal/invitation/domain"
	onboardingdomain "github.com/tradeplane/tradeplane/internal/onboarding/domain"
	organizationdomain "github.com/tradeplane/tradeplane/internal/organization/domain"
	partnerdomain "github.com/tradeplane/tradeplane/internal/partnerinvite/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded schema so a self-hosted install is
// fully usable out of the box.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema from the gorm models. The embedded SQL
// migrations are written for postgres; the sqlite and mysql paths go
// through here instead.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&organizationdomain.Organization{},
		&organizationdomain.OrganizationMember{},
		&organizationdomain.Employee{},
		&invitationdomain.InvitationToken{},
		&onboardingdomain.CustomerOnboarding{},
		&onboardingdomain.VendorOnboarding{},
		&onboardingdomain.EmployeeOnboarding{},
		&partnerdomain.CustomerVendorInvitation{},
		&apikeydomain.APIKey{},
		&auditdomain.AuditLog{},
	)
}
