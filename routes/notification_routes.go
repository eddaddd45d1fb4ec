package routes

import "github.com/gofiber/fiber/v2"

func NotificationRoutes(api fiber.Router, h Handlers, auth Auth) {
	notifications := api.Group("/notifications", auth.Protected)
	notifications.Get("", h.Notifications.List)
	notifications.Patch("/:id/read", h.Notifications.MarkRead)

	api.Get("/ws", auth.Socket, h.Notifications.UpgradeCheck, h.Notifications.Stream())
}
