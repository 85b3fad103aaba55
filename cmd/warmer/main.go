package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/coursemate/internal/adapters/breaker"
	"github.com/samirrijal/coursemate/internal/adapters/memory"
	natsadapter "github.com/samirrijal/coursemate/internal/adapters/nats"
	"github.com/samirrijal/coursemate/internal/adapters/postgres"
	"github.com/samirrijal/coursemate/internal/adapters/valkey"
	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/ports"
	"github.com/samirrijal/coursemate/internal/core/usecases"
	"github.com/samirrijal/coursemate/internal/pkg/config"
	"github.com/samirrijal/coursemate/internal/pkg/logging"
	"github.com/samirrijal/coursemate/internal/workflows"
)

const warmupWorkflowID = "coursemate-cache-warmup"

func main() {
	cfg, err := config.Load("coursemate-warmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json", cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Data source
	var source ports.DataSource
	if cfg.Database.Driver == "memory" {
		store := memory.New()
		if cfg.Database.SeedFile != "" {
			if store, err = memory.LoadFile(cfg.Database.SeedFile); err != nil {
				log.Fatalf("seed: %v", err)
			}
		}
		source = store
	} else {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		source = db
	}
	if cfg.Breaker.Enabled {
		source = breaker.Wrap(source, breaker.Settings{
			Name:             "warmer-datasource",
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		})
	}

	// Nothing to warm without a cache.
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	catalog := usecases.NewSpotCatalog(cache, cfg.Recommend.CacheTTL)
	warmup := usecases.NewWarmupService(source, catalog, 0)

	// Prime once so the API is warm even before the first scheduled run.
	if n, err := warmup.WarmRegions(ctx, cfg.Temporal.WarmRegions); err != nil {
		slog.Warn("initial warmup incomplete", "error", err, "spots", n)
	} else {
		slog.Info("initial warmup done", "spots", n)
	}

	// Keep the spots of served courses hot.
	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, course events ignored", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeCourseServed(ctx, "coursemate-warmer", func(ctx context.Context, ev *domain.CourseEvent) error {
			_, err := warmup.WarmSpots(ctx, ev.SpotIDs)
			return err
		})
		if err != nil {
			slog.Warn("subscribe course events failed", "error", err)
		}
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.CacheWarmupWorkflow)
	w.RegisterActivity(&workflows.WarmupActivities{Warmup: warmup})

	// Periodic warmup. An already running schedule is reused.
	_, err = c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           warmupWorkflowID,
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cronEvery(cfg.Temporal.WarmInterval),
	}, workflows.CacheWarmupWorkflow, workflows.CacheWarmupInput{Regions: cfg.Temporal.WarmRegions})
	if err != nil {
		slog.Warn("schedule warmup workflow failed", "error", err)
	}

	slog.Info("warmer worker started", "queue", cfg.Temporal.TaskQueue, "regions", cfg.Temporal.WarmRegions)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// cronEvery renders d as a cron "@every" spec, in whole minutes.
func cronEvery(d time.Duration) string {
	m := int(d.Minutes())
	if m < 1 {
		m = 1
	}
	return fmt.Sprintf("@every %dm", m)
}
