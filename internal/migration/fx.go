package migration

import (
	"github.com/tradeplane/tradeplane/internal/config"
	"github.com/tradeplane/tradeplane/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run applies the schema for the configured dialect and seeds bootstrap
// rows. The embedded SQL migrations only target postgres; sqlite and
// mysql installs build the schema from the gorm models.
func Run(conn *gorm.DB, cfg config.Config) error {
	if cfg.DBType == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
	} else if err := AutoMigrate(conn); err != nil {
		return err
	}

	if cfg.DefaultOrgID != 0 {
		if err := seed.EnsureDefaultOrgWithID(conn, cfg.DefaultOrgID); err != nil {
			return err
		}
	} else if err := seed.EnsureDefaultOrg(conn); err != nil {
		return err
	}

	if cfg.Bootstrap.EnsureDefaultOrgAndUser {
		return seed.EnsureDefaultOrgAndAdmin(conn)
	}
	return nil
}
