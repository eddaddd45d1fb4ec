package routes

import "github.com/gofiber/fiber/v2"

func PaymentRoutes(api fiber.Router, h Handlers, auth Auth) {
	payments := api.Group("/payments", auth.Protected)
	payments.Post("/create", h.Payments.Create)

	paypal := payments.Group("/paypal")
	paypal.Post("/create-order", h.Payments.CreatePayPalOrder)
	paypal.Post("/capture-order", h.Payments.CapturePayPalOrder)
}
