package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/coursemate/internal/adapters/breaker"
	"github.com/samirrijal/coursemate/internal/adapters/http"
	"github.com/samirrijal/coursemate/internal/adapters/memory"
	natsadapter "github.com/samirrijal/coursemate/internal/adapters/nats"
	"github.com/samirrijal/coursemate/internal/adapters/postgres"
	"github.com/samirrijal/coursemate/internal/adapters/valkey"
	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/ports"
	"github.com/samirrijal/coursemate/internal/core/usecases"
	"github.com/samirrijal/coursemate/internal/pkg/config"
	"github.com/samirrijal/coursemate/internal/pkg/deeplink"
	"github.com/samirrijal/coursemate/internal/pkg/logging"
	"github.com/samirrijal/coursemate/internal/pkg/metrics"
	"github.com/samirrijal/coursemate/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("coursemate-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json", cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{StoreDriver: cfg.Database.Driver, Version: version}

	// Data source
	var source ports.DataSource
	switch cfg.Database.Driver {
	case "memory":
		store := memory.New()
		if cfg.Database.SeedFile != "" {
			if store, err = memory.LoadFile(cfg.Database.SeedFile); err != nil {
				log.Fatalf("seed: %v", err)
			}
		}
		slog.Info("using in-memory store", "seed", cfg.Database.SeedFile)
		source = store
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		deps.DB = db
		source = db
		go reportPoolStats(ctx, db)
	}

	if cfg.Breaker.Enabled {
		source = breaker.Wrap(source, breaker.Settings{
			Name:             "datasource",
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		})
	}

	// Cache
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer c.Close()
		cache = c
		deps.Cache = c
	}

	// NATS
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	var natsConn *nats.Conn
	if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer nc.Close()
		natsConn = nc
	}
	deps.NATS = natsConn

	// Use cases
	rc := cfg.Recommend
	catalog := usecases.NewSpotCatalog(cache, rc.CacheTTL)
	ranker := usecases.NewEvidenceAggregator(usecases.AggregatorConfig{
		MaxSpots:         rc.MaxSpots,
		FallbackBaseline: rc.FallbackBaseline,
		DefaultTags:      rc.DefaultTags,
	})
	deps.Recommendations = usecases.NewRecommendationService(
		source,
		ranker,
		catalog,
		deeplink.NewBuilder(rc.MapMode, rc.StartLabel, rc.MapAppName),
		events,
		domain.GeoPoint{Lat: rc.DefaultLat, Lng: rc.DefaultLng},
	)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "CourseMate API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "driver", cfg.Database.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats refreshes the pool gauges until ctx is done.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
