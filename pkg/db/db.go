package db

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studioops/billing/internal/config"
)

// New opens the database connection selected by configuration. Postgres is
// the deployment driver; sqlite covers local development.
func New(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.DB.Driver)) {
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DB.DSN)
	case "sqlite", "sqlite3":
		dsn := cfg.DB.DSN
		if dsn == "" {
			dsn = "billing.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DB.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}

	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	return conn, nil
}

var Module = fx.Module("db",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, conn *gorm.DB) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		})
	}),
)
