package routes

import (
	"github.com/fikhidmatik/artisan_booking/handlers"
	"github.com/gofiber/fiber/v2"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Bookings      *handlers.BookingHandler
	Payments      *handlers.PaymentHandler
	Reviews       *handlers.ReviewHandler
	Notifications *handlers.NotificationHandler
	Admin         *handlers.AdminHandler
	Health        *handlers.HealthHandler
}

type Auth struct {
	// Protected reads the bearer token from the Authorization header, Socket from the
	// token query parameter for websocket clients.
	Protected fiber.Handler
	Socket    fiber.Handler
	Admin     fiber.Handler
}

func Setup(app *fiber.App, h Handlers, auth Auth, limiter fiber.Handler) {
	app.Get("/health", h.Health.Check)

	api := app.Group("/api", limiter)
	PublicRoutes(api, h)
	BookingRoutes(api, h, auth)
	PaymentRoutes(api, h, auth)
	ReviewRoutes(api, h, auth)
	NotificationRoutes(api, h, auth)
	AdminRoutes(api, h, auth)
}
