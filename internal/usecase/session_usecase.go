package usecase

import (
	"context"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/repository"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionUsecase struct {
	SessionRepository *repository.SessionRepository
	Log               *zap.Logger
}

func NewSessionUsecase(sessionRepository *repository.SessionRepository, zap *zap.Logger) *SessionUsecase {
	return &SessionUsecase{
		SessionRepository: sessionRepository,
		Log:               zap,
	}
}

// VerifyAccessToken checks the token against the live session hash.
func (usecase *SessionUsecase) VerifyAccessToken(ctx context.Context, userId uuid.UUID, accessToken string) error {
	hashedTokenFromCache, err := usecase.SessionRepository.GetAccessTokenInCache(ctx, userId)
	if err != nil {
		return err
	}

	if util.HashToken(accessToken) != hashedTokenFromCache {
		return &model.ValidationError{
			Code:    constant.ERR_UNATHORIZED_ERROR,
			Message: "Authorization token is expired",
			Param:   "accessToken",
		}
	}

	return nil
}
