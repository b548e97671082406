package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tradeplane/tradeplane/internal/clock"
	"github.com/tradeplane/tradeplane/internal/migration"
	"github.com/tradeplane/tradeplane/internal/observability"
	"github.com/tradeplane/tradeplane/internal/scheduler"
	"github.com/tradeplane/tradeplane/internal/server"
	"github.com/tradeplane/tradeplane/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
	)

	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
