package setup

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ferdian3456/virdanthread/internal/config"
	"github.com/ferdian3456/virdanthread/internal/exception"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	TEST_JWT_SECRET     = "test-secret-key-for-jwt-token-generation"
	TEST_BUCKET         = "virdanthread-test"
	TEST_MEDIA_MAX_SIZE = 256 * 1024
	FLAGGED_WORD        = "forbidden"
	FLAGGED_IMAGE_NAME  = "nsfw"
)

// StubClassifier stands in for the moderation service. Text containing
// FLAGGED_WORD and files whose name contains FLAGGED_IMAGE_NAME are flagged.
type StubClassifier struct {
	mu     sync.Mutex
	texts  []string
	images []string
}

func (classifier *StubClassifier) CheckText(ctx context.Context, text string) (model.TextCheckResponse, error) {
	classifier.mu.Lock()
	classifier.texts = append(classifier.texts, text)
	classifier.mu.Unlock()

	flagged := strings.Contains(strings.ToLower(text), FLAGGED_WORD)
	return model.TextCheckResponse{ContainsBadWord: &flagged}, nil
}

func (classifier *StubClassifier) CheckImages(ctx context.Context, media []model.MediaItem) ([]model.ImageCheckResult, error) {
	results := make([]model.ImageCheckResult, 0, len(media))
	classifier.mu.Lock()
	for _, item := range media {
		classifier.images = append(classifier.images, item.Filename)
	}
	classifier.mu.Unlock()

	for _, item := range media {
		sensitive := strings.Contains(item.Filename, FLAGGED_IMAGE_NAME)
		results = append(results, model.ImageCheckResult{Filename: item.Filename, IsSensitive: &sensitive})
	}

	return results, nil
}

func (classifier *StubClassifier) Texts() []string {
	classifier.mu.Lock()
	defer classifier.mu.Unlock()

	return append([]string(nil), classifier.texts...)
}

func (classifier *StubClassifier) Images() []string {
	classifier.mu.Lock()
	defer classifier.mu.Unlock()

	return append([]string(nil), classifier.images...)
}

type TestApp struct {
	App        *fiber.App
	DB         *pgxpool.Pool
	Redis      *redis.Client
	MinIO      *minio.Client
	Config     *koanf.Koanf
	Log        *zap.Logger
	Background *config.Background
	Classifier *StubClassifier
}

func NewTestConfig(t *testing.T, infra *TestInfra) *koanf.Koanf {
	smtpHost, smtpPort, err := net.SplitHostPort(infra.MailhogSMTP)
	require.NoError(t, err)
	port, err := strconv.Atoi(smtpPort)
	require.NoError(t, err)

	testConfig := koanf.New(".")
	values := map[string]interface{}{
		"POSTGRES_URL":            infra.PgURL,
		"POSTGRES_MAX_CONNS":      5,
		"REDIS_URL":               infra.RedisURL,
		"MINIO_URL":               infra.MinioURL,
		"MINIO_HTTP":              "http://",
		"MINIO_USER":              "minioadmin",
		"MINIO_PASSWORD":          "minioadmin",
		"MINIO_BUCKET_NAME":       TEST_BUCKET,
		"JWT_SECRET_KEY":          TEST_JWT_SECRET,
		"MEDIA_MAX_SIZE":          TEST_MEDIA_MAX_SIZE,
		"MODERATION_API_URL":      "http://moderation.invalid",
		"COMMENT_CACHE_TTL":       "1m",
		"NOTIFICATION_WORKERS":    2,
		"NOTIFICATION_QUEUE_SIZE": 32,
		"SMTP_HOST":               smtpHost,
		"SMTP_PORT":               port,
		"SENDER_NAME":             "Virdan Thread Test",
		"SENDER_EMAIL":            "noreply@virdanthread.test",
		"SENDER_PASSWORD":         "",
	}
	for key, value := range values {
		require.NoError(t, testConfig.Set(key, value))
	}

	return testConfig
}

// SetupTestApp wires the server the way main does, with the moderation
// service replaced by StubClassifier. Background workers are started and
// stopped with the test.
func SetupTestApp(t *testing.T, infra *TestInfra) *TestApp {
	log := zap.NewExample()
	testConfig := NewTestConfig(t, infra)

	db := config.NewPostgresqlPool(testConfig, log)
	rds := config.NewRedisClient(testConfig, log)
	minioClient := config.NewMinIO(testConfig, log)

	app := config.NewFiber()
	app.Use(exception.Recovery(log))

	classifier := &StubClassifier{}
	background := config.Server(&config.ServerConfig{
		Router:     app,
		DB:         db,
		DBCache:    rds,
		Log:        log,
		Config:     testConfig,
		MinIO:      minioClient,
		Classifier: classifier,
	})

	background.Trigger.Start()

	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = background.Relay.Run(relayCtx)
	}()

	require.Eventually(t, func() bool {
		count, err := rds.PubSubNumPat(context.Background()).Result()
		return err == nil && count > 0
	}, 5*time.Second, 50*time.Millisecond, "room relay should subscribe")

	t.Cleanup(func() {
		stopRelay()
		<-relayDone
		background.Trigger.Stop()
		_ = app.ShutdownWithTimeout(5 * time.Second)
		_ = rds.Close()
		db.Close()
	})

	return &TestApp{
		App:        app,
		DB:         db,
		Redis:      rds,
		MinIO:      minioClient,
		Config:     testConfig,
		Log:        log,
		Background: background,
		Classifier: classifier,
	}
}

// Listen serves the app on a loopback port and returns its address.
// Websocket tests need a real listener, app.Test cannot upgrade.
func (testApp *TestApp) Listen(t *testing.T) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = testApp.App.Listener(listener)
	}()

	return listener.Addr().String()
}
