package middleware

import (
	"github.com/ferdian3456/virdanthread/internal/usecase"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/gofiber/contrib/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	App            *fiber.App
	Log            *zap.Logger
	Config         *koanf.Koanf
	SessionUsecase *usecase.SessionUsecase
}

func NewAuthMiddleware(app *fiber.App, zap *zap.Logger, koanf *koanf.Koanf, sessionUsecase *usecase.SessionUsecase) *AuthMiddleware {
	return &AuthMiddleware{
		App:            app,
		Log:            zap,
		Config:         koanf,
		SessionUsecase: sessionUsecase,
	}
}

func (middleware *AuthMiddleware) ProtectedRoute() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return middleware.authenticate(ctx, ctx.Get("Authorization"))
	}
}

// ProtectedSocket authenticates a websocket upgrade. Browsers cannot set
// headers on the handshake, so the token may also come as ?token=.
func (middleware *AuthMiddleware) ProtectedSocket() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}

		accessToken := ctx.Get("Authorization")
		if accessToken == "" && ctx.Query("token") != "" {
			accessToken = util.BearerPrefix + ctx.Query("token")
		}

		return middleware.authenticate(ctx, accessToken)
	}
}

func (middleware *AuthMiddleware) authenticate(ctx *fiber.Ctx, accessToken string) error {
	tokenString, userId, err := util.ValidateAccessToken(accessToken, middleware.Log, middleware.Config.String("JWT_SECRET_KEY"))
	if err != nil {
		return util.SendErrorResponseFor(ctx, middleware.Log, err)
	}

	err = middleware.SessionUsecase.VerifyAccessToken(ctx.Context(), userId, tokenString)
	if err != nil {
		return util.SendErrorResponseFor(ctx, middleware.Log, err)
	}

	ctx.Locals("userId", userId)

	middleware.Log.Debug("authenticated request", zap.String("userId", userId.String()))

	return ctx.Next()
}
