package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// quietPaths are polled by probes and scrapers and logged at debug level.
var quietPaths = map[string]bool{
	"/metrics":   true,
	"/v1/health": true,
	"/v1/ready":  true,
}

// AccessLogMiddleware logs one structured line per request through the
// request-scoped logger. Level follows the status: 5xx error, 4xx warn.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if q := c.Request().URI().QueryString(); len(q) > 0 {
			attrs = append(attrs, slog.String("query", string(q)))
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
		case quietPaths[path]:
			level = slog.LevelDebug
		}

		LoggerFromCtx(c.UserContext()).LogAttrs(c.UserContext(), level, method+" "+path, attrs...)
		return err
	}
}
