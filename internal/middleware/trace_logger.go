package middleware

import (
	"github.com/ferdian3456/virdanthread/internal/observability"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TraceLoggerMiddleware stores a logger tagged with the request's trace so
// handler logs can be joined with their spans.
func TraceLoggerMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("logger", observability.WithContext(c.UserContext(), logger).With(
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		))

		return c.Next()
	}
}
