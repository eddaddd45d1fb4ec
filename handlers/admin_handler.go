package handlers

import (
	"github.com/fikhidmatik/artisan_booking/middleware"
	"github.com/fikhidmatik/artisan_booking/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	admin   *services.AdminService
	reviews *services.ReviewService
	log     *zap.Logger
}

func NewAdminHandler(admin *services.AdminService, reviews *services.ReviewService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, reviews: reviews, log: log}
}

func (h *AdminHandler) PurgeBooking(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.admin.PurgeBooking(c.UserContext(), actor, id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Booking deleted"})
}

func (h *AdminHandler) RecomputeRating(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	agg, err := h.reviews.RecomputeRatingAggregate(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(agg)
}
