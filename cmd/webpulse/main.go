package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mkurnosov/webpulse/internal/adapters/collector/host"
	"github.com/mkurnosov/webpulse/internal/adapters/http/ginserver"
	"github.com/mkurnosov/webpulse/internal/adapters/http/ginserver/middlewares"
	filepersist "github.com/mkurnosov/webpulse/internal/adapters/persistence/file"
	"github.com/mkurnosov/webpulse/internal/config"
	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/perf"
	"github.com/mkurnosov/webpulse/internal/services/monitor"
)

func main() {
	cfg, err := config.LoadServerConfig(os.Args[1:], nil)
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	history := buildHistory(cfg, logger)

	agg := perf.New(
		host.NewProvider(),
		host.NewLister(cfg.WorkerProcs),
		perf.WithLogger(logger),
		perf.WithCheckInterval(cfg.CheckInterval),
	)
	defer agg.Close()

	svc := monitor.New(agg, history, logger)

	var persister *filepersist.Persister
	if cfg.File != "" {
		persister = filepersist.New(cfg.File)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if persister != nil && cfg.Restore {
		if entry, err := persister.Load(ctx); err == nil {
			if err := history.Insert(ctx, entry); err != nil {
				logger.Warn("restore insert failed", zap.Error(err))
			} else {
				logger.Info("restored last snapshot", zap.Time("taken_at", entry.TakenAt))
			}
		} else if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("restore failed", zap.Error(err))
		}
	}

	go sample(ctx, cfg, svc, persister, logger)

	h := ginserver.NewHandler(svc)
	r := ginserver.NewRouter(h, logger,
		middlewares.ZapLogger(logger),
		middlewares.GzipResponse(),
		middlewares.HashSHA256(cfg.Key),
	)

	log.Printf("cfg: addr=%s file=%s store=%v restore=%v check=%v sample=%v dsn=%q workers=%v",
		cfg.Address, cfg.File, cfg.StoreInterval, cfg.Restore, cfg.CheckInterval, cfg.SampleInterval, cfg.DSN, cfg.WorkerProcs)

	srv := &http.Server{Addr: cfg.Address, Handler: r}
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// sample drives the engine on a fixed cadence so history fills without API
// traffic, and writes the latest snapshot to disk on the store interval.
func sample(ctx context.Context, cfg config.ServerConfig, svc *monitor.Service, persister *filepersist.Persister, logger *zap.Logger) {
	ticker := time.NewTicker(cfg.SampleInterval)
	defer ticker.Stop()

	var lastSave time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entry, err := svc.Snapshot(ctx)
			if err != nil {
				logger.Warn("sample failed", zap.Error(err))
				continue
			}
			if persister == nil || cfg.StoreInterval <= 0 {
				continue
			}
			if time.Since(lastSave) >= cfg.StoreInterval {
				if err := persister.Save(ctx, entry); err != nil {
					logger.Warn("save failed", zap.Error(err))
				} else {
					lastSave = time.Now()
				}
			}
		}
	}
}
