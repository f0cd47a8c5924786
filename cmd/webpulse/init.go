package main

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	memrepo "github.com/mkurnosov/webpulse/internal/adapters/repository/memory"
	pgrepo "github.com/mkurnosov/webpulse/internal/adapters/repository/postgres"
	"github.com/mkurnosov/webpulse/internal/config"
	"github.com/mkurnosov/webpulse/internal/misc"
	"github.com/mkurnosov/webpulse/internal/ports"
)

func buildHistory(cfg config.ServerConfig, logger *zap.Logger) ports.HistoryRepo {
	ctx := context.Background()
	if cfg.DSN != "" {
		db, err := sql.Open("postgres", cfg.DSN)
		if err == nil {
			op := func() error {
				if err := db.Ping(); err != nil {
					return err
				}
				return pgrepo.Migrate(db)
			}
			if err = misc.Retry(ctx, misc.DefaultBackoff, pgrepo.IsRetryable, op); err == nil {
				logger.Info("db connected & migrated")
				return pgrepo.New(db)
			}
		}
		logger.Warn("postgres init failed, falling back to memory", zap.Error(err))
	}
	return memrepo.New(0)
}
