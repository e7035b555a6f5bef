package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTraceLoggerMiddlewareStoresLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	fallback := zap.NewNop()

	app := fiber.New()
	app.Use(TraceLoggerMiddleware(zap.New(core)))
	app.Get("/api/health", func(c *fiber.Ctx) error {
		LoggerFromContext(c, fallback).Info("handled")
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	entries := logs.FilterMessage("handled").All()
	require.Len(t, entries, 1)
	require.Equal(t, "/api/health", entries[0].ContextMap()["path"])
}

func TestLoggerFromContextFallback(t *testing.T) {
	fallback := zap.NewNop()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		require.Same(t, fallback, LoggerFromContext(c, fallback))
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
}
