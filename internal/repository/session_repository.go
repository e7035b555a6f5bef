package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionRepository reads the access-token sessions written by the auth
// service.
type SessionRepository struct {
	Log     *zap.Logger
	DBCache *redis.Client
}

func NewSessionRepository(zap *zap.Logger, dbCache *redis.Client) *SessionRepository {
	return &SessionRepository{
		Log:     zap,
		DBCache: dbCache,
	}
}

// Redis - Cache
func (repository *SessionRepository) GetAccessTokenInCache(ctx context.Context, userId uuid.UUID) (string, error) {
	hashedToken, err := repository.DBCache.Get(ctx, accessTokenKey(userId)).Result()
	if err == redis.Nil {
		return hashedToken, &model.ValidationError{
			Code:    constant.ERR_UNATHORIZED_ERROR,
			Message: "Authorization token not found or expired",
			Param:   "accessToken",
		}
	} else if err != nil {
		return hashedToken, err
	}

	return hashedToken, nil
}

// SetAccessTokenInCache stores the hash of an issued access token.
func (repository *SessionRepository) SetAccessTokenInCache(ctx context.Context, userId uuid.UUID, accessToken string, ttl time.Duration) error {
	return repository.DBCache.Set(ctx, accessTokenKey(userId), util.HashToken(accessToken), ttl).Err()
}

func accessTokenKey(userId uuid.UUID) string {
	return fmt.Sprintf("access_token:%s", userId)
}
