package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/coursemate/internal/pkg/logging"
)

// quietPaths are polled by probes and scrapers; they log at debug unless they fail.
var quietPaths = map[string]bool{
	"/metrics":   true,
	"/v1/health": true,
	"/v1/ready":  true,
}

// AccessLogMiddleware logs one record per request through the request-scoped
// logger, so the request ID set by RequestIDLogMiddleware is attached.
// Recommendation requests also log their region and exclusion count.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if region := c.Query("region"); region != "" {
			attrs = append(attrs, slog.String("region", region))
		}
		if ex := splitList(c.Query("excludeIds")); len(ex) > 0 {
			attrs = append(attrs, slog.Int("exclude_count", len(ex)))
		}

		level := slog.LevelInfo
		switch {
		case err != nil:
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quietPaths[c.Path()]:
			level = slog.LevelDebug
		}

		ctx := c.UserContext()
		logging.FromContext(ctx).LogAttrs(ctx, level, "http request", attrs...)
		return err
	}
}
