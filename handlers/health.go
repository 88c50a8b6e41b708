package handlers

import (
	"github.com/alumni-connect/api/database"
	"github.com/alumni-connect/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// HealthCheck returns a handler reporting API and database liveness
func HealthCheck(store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			return response.ServiceUnavailable(c, "Database unreachable")
		}
		return response.Success(c, fiber.Map{"status": "ok"})
	}
}
