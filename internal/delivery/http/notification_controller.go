package http

import (
	"github.com/ferdian3456/virdanthread/internal/middleware"
	"github.com/ferdian3456/virdanthread/internal/usecase"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationController struct {
	NotificationUsecase *usecase.NotificationUsecase
	Log                 *zap.Logger
}

func NewNotificationController(notificationUsecase *usecase.NotificationUsecase, zap *zap.Logger) *NotificationController {
	return &NotificationController{
		NotificationUsecase: notificationUsecase,
		Log:                 zap,
	}
}

func (controller *NotificationController) GetNotifications(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)
	limit := ctx.QueryInt("limit", usecase.DEFAULT_NOTIFICATION_LIMIT)

	notifications, err := controller.NotificationUsecase.GetNotifications(ctx.UserContext(), userId, limit)
	if err != nil {
		return util.SendErrorResponseFor(ctx, middleware.LoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, fiber.Map{"data": notifications})
}
