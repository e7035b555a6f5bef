package config

import (
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/moderation"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

func LoadModerationConfig(config *koanf.Koanf, log *zap.Logger) moderation.Config {
	moderationConfig := moderation.Config{
		ApiUrl:       config.String("MODERATION_API_URL"),
		ApiKey:       config.String("MODERATION_API_KEY"),
		TextTimeout:  config.Duration("MODERATION_TEXT_TIMEOUT"),
		MediaTimeout: config.Duration("MODERATION_MEDIA_TIMEOUT"),
		MaxMediaSize: config.Int64("MEDIA_MAX_SIZE"),
	}

	if moderationConfig.TextTimeout <= 0 {
		moderationConfig.TextTimeout = constant.DEFAULT_TEXT_TIMEOUT
	}
	if moderationConfig.MediaTimeout <= 0 {
		moderationConfig.MediaTimeout = constant.DEFAULT_MEDIA_TIMEOUT
	}
	if moderationConfig.MaxMediaSize <= 0 {
		moderationConfig.MaxMediaSize = constant.MAX_FILE_SIZE
	}

	// Without a classifier every screen fails closed, so nothing gets posted.
	if moderationConfig.ApiUrl == "" {
		log.Warn("MODERATION_API_URL is not set, all comments will be blocked")
	}

	return moderationConfig
}
