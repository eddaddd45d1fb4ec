package handlers

import (
	"errors"

	"github.com/fikhidmatik/artisan_booking/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

var kindStatus = map[services.Kind]int{
	services.KindInvalidTransition:     fiber.StatusBadRequest,
	services.KindIllegalCancellation:   fiber.StatusBadRequest,
	services.KindAlreadyPaid:           fiber.StatusBadRequest,
	services.KindInvalidAmount:         fiber.StatusBadRequest,
	services.KindInvalidReview:         fiber.StatusBadRequest,
	services.KindDuplicateReview:       fiber.StatusBadRequest,
	services.KindNotCompleted:          fiber.StatusBadRequest,
	services.KindNotPayable:            fiber.StatusBadRequest,
	services.KindPaymentClosed:         fiber.StatusBadRequest,
	services.KindValidation:            fiber.StatusBadRequest,
	services.KindUnauthorized:          fiber.StatusUnauthorized,
	services.KindNotOwner:              fiber.StatusForbidden,
	services.KindPaymentNotFound:       fiber.StatusNotFound,
	services.KindBookingNotFound:       fiber.StatusNotFound,
	services.KindArtisanNotFound:       fiber.StatusNotFound,
	services.KindNotificationNotFound:  fiber.StatusNotFound,
	services.KindProcessorError:        fiber.StatusBadGateway,
	services.KindProcessorUnconfigured: fiber.StatusInternalServerError,
}

// respondError writes {"error", "kind"} for business errors. Anything else is logged
// and hidden behind a generic 500.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var se *services.Error
	if errors.As(err, &se) {
		status, ok := kindStatus[se.Kind]
		if !ok {
			status = fiber.StatusBadRequest
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		body := fiber.Map{"error": se.Message, "kind": se.Kind}
		if services.Retriable(err) {
			body["retriable"] = true
		}
		return c.Status(status).JSON(body)
	}

	log.Error("Unhandled error", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error", "kind": "Internal"})
}

// parseBody decodes the JSON body into req and runs its validate tags.
func parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return services.ErrValidation("cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return services.ErrValidation("%s", err.Error())
	}
	return nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, services.ErrValidation("invalid %s", name)
	}
	return id, nil
}
