package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 3 * time.Second

// probe is one readiness dependency. Optional probes report state but
// never fail readiness when the dependency is simply absent.
type probe struct {
	name     string
	optional bool
	check    func(ctx context.Context) error
}

var errNotConfigured = errors.New("not configured")

func readinessProbes(deps *Dependencies) []probe {
	return []probe{
		{name: "database", check: func(ctx context.Context) error {
			if deps.DB == nil {
				return errNotConfigured
			}
			return deps.DB.Pool.Ping(ctx)
		}},
		{name: "nats", optional: true, check: func(context.Context) error {
			if deps.NATS == nil {
				return errNotConfigured
			}
			if !deps.NATS.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}},
		{name: "valkey", optional: true, check: func(ctx context.Context) error {
			if deps.Locker == nil {
				return errNotConfigured
			}
			return deps.Locker.Ping(ctx)
		}},
	}
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": apiVersion,
		})
	}
}

// ReadyHandler reports whether the survey store can serve traffic.
// NATS and valkey are optional: submissions fall back to an in-process
// lock and skip event publishing when they are absent.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	probes := readinessProbes(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(probes))
		ready := true
		for _, p := range probes {
			err := p.check(ctx)
			switch {
			case err == nil:
				checks[p.name] = "ok"
			case errors.Is(err, errNotConfigured):
				checks[p.name] = err.Error()
				if !p.optional {
					ready = false
				}
			default:
				checks[p.name] = "error: " + err.Error()
				ready = false
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": checks,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}
