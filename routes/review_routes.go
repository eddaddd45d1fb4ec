package routes

import "github.com/gofiber/fiber/v2"

func ReviewRoutes(api fiber.Router, h Handlers, auth Auth) {
	api.Post("/reviews", auth.Protected, h.Reviews.Create)
}
