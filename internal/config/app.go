package config

import (
	"github.com/ferdian3456/virdanthread/internal/broadcast"
	http "github.com/ferdian3456/virdanthread/internal/delivery/http"
	"github.com/ferdian3456/virdanthread/internal/delivery/http/middleware"
	"github.com/ferdian3456/virdanthread/internal/delivery/http/route"
	"github.com/ferdian3456/virdanthread/internal/moderation"
	"github.com/ferdian3456/virdanthread/internal/notification"
	"github.com/ferdian3456/virdanthread/internal/repository"
	"github.com/ferdian3456/virdanthread/internal/usecase"
	"github.com/minio/minio-go/v7"

	"firebase.google.com/go/v4/messaging"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Router    *fiber.App
	DB        *pgxpool.Pool
	DBCache   *redis.Client
	Log       *zap.Logger
	Config    *koanf.Koanf
	MinIO     *minio.Client
	Messaging *messaging.Client
	// Classifier overrides the HTTP moderation client, used by tests.
	Classifier moderation.Classifier
}

// Background holds the long-running parts main must start and stop.
type Background struct {
	Hub     *broadcast.Hub
	Relay   *broadcast.RedisRelay
	Trigger *notification.Trigger
}

func Server(config *ServerConfig) *Background {
	hub := broadcast.NewHub(config.Log)
	relay := broadcast.NewRedisRelay(hub, config.DBCache, config.Log)

	notificationConfig := LoadNotificationConfig(config.Config, config.Log)
	notificationRepository := repository.NewNotificationRepository(config.Log, config.DB)

	sinks := []notification.Sink{
		notification.StoreSink{Store: notificationRepository},
		notification.RoomSink{Publisher: relay},
	}
	if config.Messaging != nil {
		sinks = append(sinks, notification.PushSink{Messenger: config.Messaging, Tokens: notificationRepository, Log: config.Log})
	}
	if notificationConfig.Email.SmtpHost != "" {
		sinks = append(sinks, notification.NewEmailSink(notificationConfig.Email))
	}

	trigger := notification.NewTrigger(notificationRepository, sinks, config.Log, notificationConfig.Trigger)

	moderationConfig := LoadModerationConfig(config.Config, config.Log)
	classifier := config.Classifier
	if classifier == nil {
		classifier = moderation.NewHTTPClassifier(config.Log, moderationConfig)
	}
	gate := moderation.NewGate(classifier, config.Log, moderationConfig)

	commentRepository := repository.NewCommentRepository(config.Log, config.DB, config.DBCache, config.MinIO)
	commentUsecase := usecase.NewCommentUsecase(commentRepository, gate, relay, trigger, config.DB, config.Log, config.Config)
	commentController := http.NewCommentController(commentUsecase, config.Log, config.Config)

	notificationUsecase := usecase.NewNotificationUsecase(notificationRepository, config.Log)
	notificationController := http.NewNotificationController(notificationUsecase, config.Log)

	roomController := http.NewRoomController(hub, config.Log)

	sessionRepository := repository.NewSessionRepository(config.Log, config.DBCache)
	sessionUsecase := usecase.NewSessionUsecase(sessionRepository, config.Log)
	authMiddleware := middleware.NewAuthMiddleware(config.Router, config.Log, config.Config, sessionUsecase)

	routeConfig := route.RouteConfig{
		App:                    config.Router,
		Log:                    config.Log,
		AuthMiddleware:         authMiddleware,
		CommentController:      commentController,
		NotificationController: notificationController,
		RoomController:         roomController,
	}

	routeConfig.SetupRoute()

	return &Background{
		Hub:     hub,
		Relay:   relay,
		Trigger: trigger,
	}
}
