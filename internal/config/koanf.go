package config

import (
	"os"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const DEFAULT_ENV_FILE = ".env"

// NewKoanf loads the dotenv file named by ENV_FILE (default .env) and then
// the process environment, which wins on conflicts.
func NewKoanf(log *zap.Logger) *koanf.Koanf {
	k := koanf.New(".")

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = DEFAULT_ENV_FILE
	}

	err := k.Load(file.Provider(envFile), dotenv.Parser())
	if err != nil {
		log.Debug("env file not loaded, using environment only", zap.String("file", envFile), zap.Error(err))
	}

	err = k.Load(env.Provider("", ".", nil), nil)
	if err != nil {
		log.Fatal("failed to load environment variables", zap.Error(err))
	}

	return k
}
