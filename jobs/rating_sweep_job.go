package jobs

import (
	"context"
	"time"

	"github.com/fikhidmatik/artisan_booking/services"
	"go.uber.org/zap"
)

// RatingSweep recomputes every artisan aggregate, repairing any left stale when the
// recompute after a review failed.
func RatingSweep(reviews *services.ReviewService, log *zap.Logger) func() {
	return func() {
		log.Info("Running job: RatingSweep")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		n, err := reviews.RecomputeAll(ctx)
		if err != nil {
			log.Error("Rating sweep aborted", zap.Int("refreshed", n), zap.Error(err))
			return
		}
		log.Info("Rating sweep finished", zap.Int("refreshed", n))
	}
}
