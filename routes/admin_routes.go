package routes

import "github.com/gofiber/fiber/v2"

func AdminRoutes(api fiber.Router, h Handlers, auth Auth) {
	admin := api.Group("/admin", auth.Protected, auth.Admin)
	admin.Delete("/bookings/:id", h.Admin.PurgeBooking)
	admin.Post("/artisans/:id/recompute-rating", h.Admin.RecomputeRating)
}
