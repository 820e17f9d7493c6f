package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler reports the dataset slot, NATS and cache. A dataset that is
// still loading is "pending" and does not fail readiness; a failed load does.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		switch {
		case deps.Loader == nil:
			checks["dataset"] = "not configured"
			allOK = false
		case deps.Loader.Cached() != nil:
			checks["dataset"] = "ok"
		case deps.Loader.Err() != nil:
			checks["dataset"] = "error: " + deps.Loader.Err().Error()
			allOK = false
		default:
			checks["dataset"] = "pending"
		}

		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
				allOK = false
			}
		} else {
			checks["nats"] = "not configured"
		}

		if deps.Cache != nil {
			if err := deps.Cache.Ping(ctx); err != nil {
				checks["cache"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["cache"] = "ok"
			}
		} else {
			checks["cache"] = "not configured"
		}

		for name, ok := range map[string]bool{
			"weather": deps.Weather != nil,
			"routing": deps.Routing != nil,
			"places":  deps.Places != nil,
		} {
			if ok {
				checks[name] = "configured"
			} else {
				checks[name] = "not configured"
			}
		}

		status, code := "ready", 200
		if !allOK {
			status, code = "not ready", 503
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
