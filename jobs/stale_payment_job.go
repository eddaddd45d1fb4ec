package jobs

import (
	"context"
	"time"

	"github.com/fikhidmatik/artisan_booking/services"
	"go.uber.org/zap"
)

const stalePaymentAge = time.Hour

// StalePaymentReport logs processor payments that never reached capture so they can be
// reconciled by hand. Nothing is retried or changed.
func StalePaymentReport(payments *services.PaymentService, log *zap.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		stale, err := payments.ListStale(ctx, stalePaymentAge)
		if err != nil {
			log.Error("Error checking for stale payments", zap.Error(err))
			return
		}
		for _, p := range stale {
			orderID := ""
			if p.ExternalOrderID != nil {
				orderID = *p.ExternalOrderID
			}
			log.Warn("Payment pending past capture window",
				zap.String("payment_id", p.ID.String()),
				zap.String("booking_id", p.BookingID.String()),
				zap.String("method", string(p.Method)),
				zap.String("order_id", orderID),
				zap.Time("created_at", p.CreatedAt))
		}
	}
}
