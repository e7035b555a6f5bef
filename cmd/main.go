package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ferdian3456/virdanthread/internal/config"
	"github.com/ferdian3456/virdanthread/internal/delivery/http/middleware"
	"github.com/ferdian3456/virdanthread/internal/exception"
	tracelog "github.com/ferdian3456/virdanthread/internal/middleware"
	"github.com/ferdian3456/virdanthread/internal/observability"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	zapLog "go.uber.org/zap"
)

func main() {
	time.Local = time.UTC

	app := config.NewFiber()
	zap := config.NewZap()
	koanf := config.NewKoanf(zap)

	observabilityConfig := config.LoadObservabilityConfig(koanf, zap)
	shutdownTracer := func(context.Context) error { return nil }
	if observabilityConfig.OtelEndpoint != "" {
		shutdown, err := observability.Init(context.Background(), observabilityConfig, zap)
		if err != nil {
			zap.Fatal("failed to init tracing", zapLog.Error(err))
		}
		shutdownTracer = shutdown
	}

	rds := config.NewRedisClient(koanf, zap)
	postgresql := config.NewPostgresqlPool(koanf, zap)
	minio := config.NewMinIO(koanf, zap)
	notificationConfig := config.LoadNotificationConfig(koanf, zap)
	messaging := config.NewFirebaseMessaging(notificationConfig.FirebaseCredentialsPath, zap)

	app.Use(exception.Recovery(zap))
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/api/health"
	})))
	app.Use(tracelog.TraceLoggerMiddleware(zap))
	app.Use(middleware.SetupCORS(koanf))
	app.Use(middleware.SetupRateLimiter(zap))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	background := config.Server(&config.ServerConfig{
		Router:    app,
		DB:        postgresql,
		DBCache:   rds,
		Log:       zap,
		Config:    koanf,
		MinIO:     minio,
		Messaging: messaging,
	})

	background.Trigger.Start()

	relayCtx, stopRelay := context.WithCancel(context.Background())
	go func() {
		err := background.Relay.Run(relayCtx)
		if err != nil {
			zap.Fatal("room relay stopped", zapLog.Error(err))
		}
	}()

	GO_SERVER_PORT := koanf.String("GO_SERVER")

	zap.Info("Server is running on: " + GO_SERVER_PORT)

	go func() {
		err := app.Listen(GO_SERVER_PORT)
		if err != nil {
			zap.Fatal("error starting server", zapLog.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	zap.Info("got one of stop signals")

	// Flush zap buffered log first then cancel the context for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := app.ShutdownWithContext(ctx)
	if err != nil {
		zap.Warn("timeout, forced kill!", zapLog.Error(err))
		_ = zap.Sync()
		os.Exit(1)
	}

	stopRelay()
	background.Trigger.Stop()
	postgresql.Close()
	_ = rds.Close()

	err = shutdownTracer(ctx)
	if err != nil {
		zap.Warn("failed to flush traces", zapLog.Error(err))
	}

	zap.Info("server has shut down gracefully")
	_ = zap.Sync()
}
