package exception

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecoveryTurnsPanicIntoInternalError(t *testing.T) {
	app := fiber.New()
	app.Use(Recovery(zap.NewNop()))
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), constant.ERR_INTERNAL_SERVER_ERROR_CODE)
}
