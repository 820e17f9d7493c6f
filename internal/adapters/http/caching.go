package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets a default Cache-Control on GET responses that
// did not choose one. Fire data only changes on restart, provider results
// are live.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.Get(fiber.HeaderCacheControl) != "" {
			return err
		}
		if ttl := cacheControlFor(c.Path()); ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}

func cacheControlFor(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics":
		return "no-cache"
	case strings.HasPrefix(path, "/v1/fires/"):
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/v1/weather/"):
		return "private, max-age=300"
	case strings.HasPrefix(path, "/v1/routes/"), strings.HasPrefix(path, "/v1/places/"):
		return "no-store"
	case strings.HasPrefix(path, "/docs"):
		return "public, max-age=86400"
	case strings.HasPrefix(path, "/v1/"):
		return "public, max-age=300"
	default:
		// Pages carry user input in the query string.
		return "private, max-age=60"
	}
}
