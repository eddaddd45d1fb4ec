package routes

import "github.com/gofiber/fiber/v2"

func PublicRoutes(api fiber.Router, h Handlers) {
	api.Get("/reviews", h.Reviews.List)
	api.Get("/artisans/:id/stats", h.Reviews.ArtisanStats)
}
