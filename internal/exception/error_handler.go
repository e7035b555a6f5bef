package exception

import (
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into the standard 500 body. Socket handlers
// run after the upgrade and recover on their own.
func Recovery(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log.Error("panic occurred and recovered",
				zap.Any("panic", r),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Stack("stack"),
			)

			err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    constant.ERR_INTERNAL_SERVER_ERROR_CODE,
					"message": constant.ERR_INTENRAL_SERVER_ERROR_MESSAGE,
				},
			})
		}()

		return c.Next()
	}
}
