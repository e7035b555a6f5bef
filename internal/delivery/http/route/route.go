package route

import (
	"github.com/ferdian3456/virdanthread/internal/delivery/http"
	"github.com/ferdian3456/virdanthread/internal/delivery/http/middleware"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/gofiber/contrib/websocket"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RouteConfig struct {
	App                    *fiber.App
	Log                    *zap.Logger
	AuthMiddleware         *middleware.AuthMiddleware
	CommentController      *http.CommentController
	NotificationController *http.NotificationController
	RoomController         *http.RoomController
}

func (c *RouteConfig) SetupRoute() {
	api := c.App.Group("/api")

	api.Get("/health", util.SendSuccessResponseNoData)

	postGroup := api.Group("/posts", c.AuthMiddleware.ProtectedRoute(), middleware.SetupWriteRateLimiter(c.Log))
	postGroup.Get("/:postId/comments", c.CommentController.GetComments)
	postGroup.Post("/:postId/comments", c.CommentController.CreateComment)
	postGroup.Post("/:postId/likes", c.CommentController.TogglePostLike)
	postGroup.Post("/:postId/comments/:commentId/likes", c.CommentController.ToggleCommentLike)

	notificationGroup := api.Group("/notifications", c.AuthMiddleware.ProtectedRoute())
	notificationGroup.Get("/", c.NotificationController.GetNotifications)

	c.App.Get("/ws", c.AuthMiddleware.ProtectedSocket(), websocket.New(c.RoomController.Serve))
}
