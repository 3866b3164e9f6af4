// @title           StudioOps Billing API
// @version         1.0
// @description     Financial documents, payments, and subscription billing.

// @host      localhost:8080
// @BasePath  /api
// @Schemes   http https

package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/studioops/billing/internal/audit"
	"github.com/studioops/billing/internal/clock"
	"github.com/studioops/billing/internal/config"
	"github.com/studioops/billing/internal/document"
	"github.com/studioops/billing/internal/events"
	"github.com/studioops/billing/internal/ledger"
	"github.com/studioops/billing/internal/migration"
	"github.com/studioops/billing/internal/observability"
	"github.com/studioops/billing/internal/payment"
	"github.com/studioops/billing/internal/scheduler"
	"github.com/studioops/billing/internal/server"
	"github.com/studioops/billing/internal/subscription"
	"github.com/studioops/billing/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),

		events.Module,
		audit.Module,
		ledger.Module,
		document.Module,
		payment.Module,
		subscription.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		panic(err)
	}
	return node
}
