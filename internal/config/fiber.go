package config

import (
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/gofiber/fiber/v2"
)

// errorHandler keeps framework errors (404 route, body too large, upgrade
// required) in the same envelope as handler errors.
func errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := constant.ERR_INTENRAL_SERVER_ERROR_MESSAGE
	errorCode := constant.ERR_INTERNAL_SERVER_ERROR_CODE

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
		errorCode = constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE
		if code == fiber.StatusNotFound {
			errorCode = constant.ERR_NOT_FOUND_ERROR
		}
	}

	return ctx.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    errorCode,
			"message": message,
		},
	})
}

func NewFiber() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "virdanthread",
		BodyLimit:             constant.MAX_MEDIA_PER_ITEM*constant.MAX_FILE_SIZE + 1024*1024,
		ReadBufferSize:        8192,
		WriteBufferSize:       4096,
		Concurrency:           256 * 1024,
		IdleTimeout:           30 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		DisableStartupMessage: true,
		ReduceMemoryUsage:     true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          errorHandler,
	})
}
