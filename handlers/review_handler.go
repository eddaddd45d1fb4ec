package handlers

import (
	"github.com/fikhidmatik/artisan_booking/middleware"
	"github.com/fikhidmatik/artisan_booking/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	reviews *services.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(reviews *services.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, log: log}
}

// Rating and comment bounds are checked by the service so that the error kind is
// InvalidReview rather than a generic validation failure.
type CreateReviewRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req CreateReviewRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	review, err := h.reviews.Submit(c.UserContext(), actor, bookingID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	artisanID, err := uuid.Parse(c.Query("artisanId"))
	if err != nil {
		return respondError(c, h.log, services.ErrValidation("artisanId query parameter is required"))
	}
	reviews, err := h.reviews.ListForArtisan(c.UserContext(), artisanID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) ArtisanStats(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	stats, err := h.reviews.Stats(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stats)
}
