package handlers

import (
	"github.com/fikhidmatik/artisan_booking/middleware"
	"github.com/fikhidmatik/artisan_booking/services"
	"github.com/fikhidmatik/artisan_booking/websocket"
	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	hub           *websocket.Hub
	log           *zap.Logger
}

func NewNotificationHandler(notifications *services.NotificationService, hub *websocket.Hub, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, hub: hub, log: log}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	list, err := h.notifications.List(c.UserContext(), actor, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.notifications.MarkRead(c.UserContext(), actor, id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpgradeCheck rejects plain HTTP requests on the websocket route.
func (h *NotificationHandler) UpgradeCheck(c *fiber.Ctx) error {
	if !contribws.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Locals("actor_id", actor.UserID)
	return c.Next()
}

func (h *NotificationHandler) Stream() fiber.Handler {
	return contribws.New(func(conn *contribws.Conn) {
		userID, ok := conn.Locals("actor_id").(uuid.UUID)
		if !ok {
			conn.Close()
			return
		}
		h.hub.Serve(&websocket.Client{UserID: userID, Conn: conn})
	})
}
