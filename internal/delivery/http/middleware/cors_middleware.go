package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/knadh/koanf/v2"
)

// SetupCORS allows the web client origins listed in CORS_ALLOW_ORIGINS.
func SetupCORS(config *koanf.Koanf) fiber.Handler {
	origins := config.String("CORS_ALLOW_ORIGINS")
	if origins == "" {
		origins = "http://localhost:3000, http://localhost:8080"
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		ExposeHeaders:    "Content-Length",
		MaxAge:           86400,
	})
}
