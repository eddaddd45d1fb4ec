package routes

import "github.com/gofiber/fiber/v2"

func BookingRoutes(api fiber.Router, h Handlers, auth Auth) {
	booking := api.Group("/bookings", auth.Protected)
	booking.Post("", h.Bookings.Create)
	booking.Get("", h.Bookings.List)
	booking.Get("/:id", h.Bookings.Get)
	booking.Patch("/:id", h.Bookings.UpdateStatus)
	booking.Delete("/:id", h.Bookings.Cancel)
	booking.Get("/:id/payments", h.Payments.ListForBooking)
}
