package handlers

import (
	"time"

	"github.com/fikhidmatik/artisan_booking/middleware"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/fikhidmatik/artisan_booking/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BookingHandler struct {
	bookings *services.BookingService
	log      *zap.Logger
}

func NewBookingHandler(bookings *services.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, log: log}
}

type CreateBookingRequest struct {
	ArtisanID   string           `json:"artisan_id" validate:"required,uuid"`
	Service     ServiceRequest   `json:"service" validate:"required"`
	Date        string           `json:"date" validate:"required"`
	Time        string           `json:"time" validate:"required"`
	Address     string           `json:"address" validate:"required"`
	Description string           `json:"description,omitempty"`
	Urgency     string           `json:"urgency,omitempty" validate:"omitempty,oneof=normal urgent emergency"`
	TotalPrice  *decimal.Decimal `json:"total_price,omitempty"`
}

type ServiceRequest struct {
	Category string `json:"category" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Price    string `json:"price" validate:"required"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, services.ErrValidation("date must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}

func (h *BookingHandler) Create(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req CreateBookingRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return respondError(c, h.log, err)
	}
	artisanID, _ := uuid.Parse(req.ArtisanID)

	booking, err := h.bookings.Create(c.UserContext(), actor, services.CreateBookingInput{
		ArtisanID: artisanID,
		Service: models.ServiceSnapshot{
			Category: req.Service.Category,
			Name:     req.Service.Name,
			Price:    req.Service.Price,
		},
		Date:        date,
		Time:        req.Time,
		Address:     req.Address,
		Description: req.Description,
		Urgency:     models.Urgency(req.Urgency),
		TotalPrice:  req.TotalPrice,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *BookingHandler) List(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	status := c.Query("status")
	if status == "all" {
		status = ""
	}
	bookings, err := h.bookings.List(c.UserContext(), actor, models.BookingStatus(status))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(bookings)
}

func (h *BookingHandler) Get(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	booking, err := h.bookings.Get(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req UpdateBookingStatusRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	booking, err := h.bookings.Transition(c.UserContext(), actor, id, models.BookingStatus(req.Status))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	booking, err := h.bookings.Cancel(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(booking)
}
