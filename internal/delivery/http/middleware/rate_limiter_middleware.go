package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RATE_LIMITED_CODE = "RATE_LIMITED"

// SetupRateLimiter limits requests per client IP. The health check and the
// long-lived socket are exempt.
func SetupRateLimiter(logger *zap.Logger) fiber.Handler {
	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/health" || c.Path() == "/ws"
		},
		Max:        100,
		Expiration: 60 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.Warn("Rate limit exceeded", zap.String("ip", c.IP()))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    RATE_LIMITED_CODE,
					"message": "Rate limit exceeded, please try again later",
				},
			})
		},
	})
}

// SetupWriteRateLimiter is the stricter per-user limit for comment and like
// writes. It must run after authentication.
func SetupWriteRateLimiter(logger *zap.Logger) fiber.Handler {
	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost
		},
		Max:        30,
		Expiration: 60 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userId, ok := c.Locals("userId").(uuid.UUID); ok {
				return userId.String()
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.Warn("Write rate limit exceeded", zap.String("ip", c.IP()))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    RATE_LIMITED_CODE,
					"message": "Too many writes, please slow down",
				},
			})
		},
	})
}
