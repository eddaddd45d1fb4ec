package services

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidTransition   Kind = "InvalidTransition"
	KindIllegalCancellation Kind = "IllegalCancellation"
	KindAlreadyPaid         Kind = "AlreadyPaid"
	KindPaymentNotFound     Kind = "PaymentNotFound"
	KindInvalidAmount       Kind = "InvalidAmount"
	KindProcessorError      Kind = "ProcessorError"
	KindInvalidReview       Kind = "InvalidReview"
	KindDuplicateReview     Kind = "DuplicateReview"
	KindNotOwner            Kind = "NotOwner"
	KindNotCompleted        Kind = "NotCompleted"
	KindUnauthorized        Kind = "Unauthorized"

	KindBookingNotFound       Kind = "BookingNotFound"
	KindArtisanNotFound       Kind = "ArtisanNotFound"
	KindNotPayable            Kind = "NotPayable"
	KindPaymentClosed         Kind = "PaymentClosed"
	KindProcessorUnconfigured Kind = "ProcessorMisconfigured"
	KindNotificationNotFound  Kind = "NotificationNotFound"
	KindValidation            Kind = "Validation"
)

// Error is a business-rule failure with a stable kind and a message that is safe to
// show to the caller.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a business error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retriable reports whether the caller may usefully retry the same request.
func Retriable(err error) bool {
	return IsKind(err, KindProcessorError)
}

func ErrInvalidTransition(from, to fmt.Stringer) *Error {
	return newError(KindInvalidTransition, "cannot change booking status from %s to %s", from, to)
}

func ErrIllegalCancellation() *Error {
	return newError(KindIllegalCancellation, "this booking cannot be cancelled")
}

func ErrAlreadyPaid() *Error {
	return newError(KindAlreadyPaid, "this booking has already been paid")
}

func ErrPaymentNotFound() *Error {
	return newError(KindPaymentNotFound, "payment not found")
}

func ErrInvalidAmount(price string) *Error {
	return newError(KindInvalidAmount, "invalid amount for price %q", price)
}

func ErrProcessor(cause error) *Error {
	return &Error{Kind: KindProcessorError, Message: "the payment processor could not complete the request, please try again", cause: cause}
}

func ErrInvalidReview(reason string) *Error {
	return newError(KindInvalidReview, "%s", reason)
}

func ErrDuplicateReview() *Error {
	return newError(KindDuplicateReview, "a review for this booking has already been submitted")
}

func ErrNotOwner() *Error {
	return newError(KindNotOwner, "you are not allowed to act on this booking")
}

func ErrNotCompleted() *Error {
	return newError(KindNotCompleted, "reviews can only be submitted for completed bookings")
}

func ErrUnauthorized() *Error {
	return newError(KindUnauthorized, "authentication required")
}

func ErrBookingNotFound() *Error {
	return newError(KindBookingNotFound, "booking not found")
}

func ErrArtisanNotFound() *Error {
	return newError(KindArtisanNotFound, "artisan not found")
}

func ErrNotPayable(status fmt.Stringer) *Error {
	return newError(KindNotPayable, "a booking in status %s cannot be paid", status)
}

func ErrPaymentClosed(status fmt.Stringer) *Error {
	return newError(KindPaymentClosed, "payment is %s and cannot be captured", status)
}

func ErrProcessorUnconfigured(method fmt.Stringer) *Error {
	return newError(KindProcessorUnconfigured, "payment method %s is not configured", method)
}

func ErrNotificationNotFound() *Error {
	return newError(KindNotificationNotFound, "notification not found")
}

func ErrValidation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}
