package usecase

import (
	"context"
	"fmt"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DEFAULT_NOTIFICATION_LIMIT = 20
const MAX_NOTIFICATION_LIMIT = 100

type NotificationUsecase struct {
	NotificationRepository *repository.NotificationRepository
	Log                    *zap.Logger
}

func NewNotificationUsecase(notificationRepository *repository.NotificationRepository, zap *zap.Logger) *NotificationUsecase {
	return &NotificationUsecase{
		NotificationRepository: notificationRepository,
		Log:                    zap,
	}
}

func (usecase *NotificationUsecase) GetNotifications(ctx context.Context, userId uuid.UUID, limit int) ([]model.NotificationResponse, error) {
	if limit <= 0 || limit > MAX_NOTIFICATION_LIMIT {
		return nil, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Limit must be between 1 and %d", MAX_NOTIFICATION_LIMIT),
			Param:   "limit",
		}
	}

	return usecase.NotificationRepository.GetNotifications(ctx, userId, limit)
}
