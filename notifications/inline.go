package notifications

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// InlineDispatcher delivers in a background goroutine. It is used when no Redis queue
// is configured, so delivery is best effort and not retried.
type InlineDispatcher struct {
	deliverer *Deliverer
	timeout   time.Duration
	log       *zap.Logger
}

func NewInlineDispatcher(d *Deliverer, log *zap.Logger) *InlineDispatcher {
	return &InlineDispatcher{deliverer: d, timeout: 15 * time.Second, log: log}
}

func (i *InlineDispatcher) Dispatch(_ context.Context, ev Event) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
		defer cancel()
		if err := i.deliverer.Deliver(ctx, ev); err != nil {
			i.log.Error("notification delivery failed",
				zap.String("user_id", ev.UserID.String()),
				zap.String("type", string(ev.Type)),
				zap.Error(err))
		}
	}()
	return nil
}
