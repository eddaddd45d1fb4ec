package handlers

import (
	"github.com/fikhidmatik/artisan_booking/middleware"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/fikhidmatik/artisan_booking/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payments *services.PaymentService
	log      *zap.Logger
}

func NewPaymentHandler(payments *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

type CreatePaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Method    string `json:"method" validate:"required,oneof=paypal card cash"`
}

type CreateOrderRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

type CaptureOrderRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req CreatePaymentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	res, err := h.payments.InitiatePayment(c.UserContext(), actor, bookingID, models.PaymentMethod(req.Method))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(statusForResult(res)).JSON(res)
}

func (h *PaymentHandler) CreatePayPalOrder(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req CreateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	res, err := h.payments.CreateOrder(c.UserContext(), actor, bookingID, models.MethodPayPal)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(statusForResult(res)).JSON(res)
}

func (h *PaymentHandler) CapturePayPalOrder(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req CaptureOrderRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	res, err := h.payments.Capture(c.UserContext(), actor, req.OrderID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(res)
}

func (h *PaymentHandler) ListForBooking(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	list, err := h.payments.ListForBooking(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

func statusForResult(res *services.PaymentResult) int {
	if res.Reused {
		return fiber.StatusOK
	}
	return fiber.StatusCreated
}
