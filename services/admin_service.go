package services

import (
	"context"
	"errors"

	"github.com/fikhidmatik/artisan_booking/database/repository"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errHasCompletedPayment = errors.New("booking has a completed payment")

type AdminService struct {
	db       *gorm.DB
	bookings *repository.BookingRepo
	payments *repository.PaymentRepo
	reviews  *repository.ReviewRepo
	ratings  *ReviewService
	log      *zap.Logger
}

func NewAdminService(db *gorm.DB, ratings *ReviewService, log *zap.Logger) *AdminService {
	return &AdminService{
		db:       db,
		bookings: repository.NewBookingRepo(db),
		payments: repository.NewPaymentRepo(db),
		reviews:  repository.NewReviewRepo(db),
		ratings:  ratings,
		log:      log,
	}
}

// PurgeBooking deletes a booking with its payments and review. Bookings with money
// collected are kept for the ledger.
func (s *AdminService) PurgeBooking(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrNotOwner()
	}
	b, err := s.bookings.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBookingNotFound()
	}
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := s.payments.WithTx(tx)
		list, err := payments.ListByBooking(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range list {
			if p.Status == models.PaymentCompleted {
				return errHasCompletedPayment
			}
		}
		if err := s.reviews.WithTx(tx).DeleteByBooking(ctx, id); err != nil {
			return err
		}
		if err := payments.DeleteByBooking(ctx, id); err != nil {
			return err
		}
		return s.bookings.WithTx(tx).Delete(ctx, id)
	})
	switch {
	case errors.Is(err, errHasCompletedPayment):
		return ErrAlreadyPaid()
	case errors.Is(err, repository.ErrNotFound):
		return ErrBookingNotFound()
	case err != nil:
		return err
	}

	s.log.Info("Booking purged", zap.String("booking_id", id.String()), zap.String("admin_id", actor.UserID.String()))
	if _, err := s.ratings.RecomputeRatingAggregate(ctx, b.ArtisanID); err != nil {
		s.log.Warn("Rating recompute after purge failed", zap.String("artisan_id", b.ArtisanID.String()), zap.Error(err))
	}
	return nil
}
