package transport

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

// NewApp assembles the fiber app with the proxy's error envelope and the
// permissive cross-origin policy the storefront widget depends on.
func NewApp(logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type, Authorization",
		MaxAge:       86400,
	}))

	return app
}
