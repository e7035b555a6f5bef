package util

import (
	"errors"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func SendSuccessResponseNoData(ctx *fiber.Ctx) error {
	err := ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "OK",
	})
	if err != nil {
		return err
	}
	return nil
}

func SendSuccessResponseWithData(ctx *fiber.Ctx, data interface{}) error {
	err := ctx.Status(fiber.StatusOK).JSON(data)
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponse(ctx *fiber.Ctx, error error) error {
	err := ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": error,
	})
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponseNotFound(ctx *fiber.Ctx, error error) error {
	err := ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": error,
	})
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponseInternalServer(ctx *fiber.Ctx, log *zap.Logger, error error) error {
	log.Error("internal server error occured", zap.Error(error))
	err := ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    constant.ERR_INTERNAL_SERVER_ERROR_CODE,
			"message": constant.ERR_INTENRAL_SERVER_ERROR_MESSAGE,
		},
	})

	if err != nil {
		return err
	}

	return err
}

func SendErrorResponseUnauthorized(ctx *fiber.Ctx, error error) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": error,
	})
}

func SendErrorResponseWithStatus(ctx *fiber.Ctx, status int, error error) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": error,
	})
}

// SendErrorResponseFor picks the status for the error taxonomy shared by the
// comment endpoints.
func SendErrorResponseFor(ctx *fiber.Ctx, log *zap.Logger, err error) error {
	var validationErr *model.ValidationError
	var moderationErr *model.ModerationError

	switch {
	case errors.As(err, &moderationErr):
		if moderationErr.TooLarge() {
			return SendErrorResponseWithStatus(ctx, fiber.StatusRequestEntityTooLarge, moderationErr)
		}
		return SendErrorResponseWithStatus(ctx, fiber.StatusUnprocessableEntity, moderationErr)
	case errors.As(err, &validationErr):
		switch validationErr.Code {
		case constant.ERR_NOT_FOUND_ERROR:
			return SendErrorResponseNotFound(ctx, validationErr)
		case constant.ERR_UNATHORIZED_ERROR:
			return SendErrorResponseUnauthorized(ctx, validationErr)
		default:
			return SendErrorResponse(ctx, validationErr)
		}
	default:
		return SendErrorResponseInternalServer(ctx, log, err)
	}
}
