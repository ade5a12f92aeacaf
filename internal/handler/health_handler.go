package handler

import "github.com/gofiber/fiber/v2"

func RegisterHealthRoutes(app fiber.Router) {
	app.Get("/proxy/fedex-status", HealthHandler())
}

// HealthHandler answers the liveness probe with the static acknowledgement
// the storefront widget polls for.
func HealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"ok":  true,
			"msg": "proxy alive",
		})
	}
}
