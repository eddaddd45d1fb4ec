package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/fikhidmatik/artisan_booking/database/repository"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/fikhidmatik/artisan_booking/notifications"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minRating        = 1
	maxRating        = 5
	minCommentLength = 10
)

type ReviewService struct {
	db       *gorm.DB
	reviews  *repository.ReviewRepo
	bookings *repository.BookingRepo
	artisans *repository.ArtisanRepo
	users    *repository.UserRepo
	notifier notifications.Dispatcher
	log      *zap.Logger
}

func NewReviewService(db *gorm.DB, notifier notifications.Dispatcher, log *zap.Logger) *ReviewService {
	return &ReviewService{
		db:       db,
		reviews:  repository.NewReviewRepo(db),
		bookings: repository.NewBookingRepo(db),
		artisans: repository.NewArtisanRepo(db),
		users:    repository.NewUserRepo(db),
		notifier: notifier,
		log:      log,
	}
}

// RatingAggregate is the artisan's mean rating, rounded to one decimal, and review count.
type RatingAggregate struct {
	Rating       float64 `json:"rating"`
	TotalReviews int     `json:"total_reviews"`
}

func computeAggregate(stats repository.ReviewStats) RatingAggregate {
	if stats.Count == 0 {
		return RatingAggregate{}
	}
	mean := decimal.NewFromInt(stats.Total).Div(decimal.NewFromInt(stats.Count)).Round(1)
	rating, _ := mean.Float64()
	return RatingAggregate{Rating: rating, TotalReviews: int(stats.Count)}
}

// Submit records the customer's review of a completed booking, copies it onto the
// booking and refreshes the artisan's rating.
func (s *ReviewService) Submit(ctx context.Context, actor Actor, bookingID uuid.UUID, rating int, comment string) (*models.Review, error) {
	comment = strings.TrimSpace(comment)
	if rating < minRating || rating > maxRating {
		return nil, ErrInvalidReview("rating must be between 1 and 5")
	}
	if utf8.RuneCountInString(comment) < minCommentLength {
		return nil, ErrInvalidReview("comment must be at least 10 characters")
	}

	exists, err := s.reviews.ExistsForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview()
	}

	b, err := s.bookings.FindByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound()
	}
	if err != nil {
		return nil, err
	}
	if b.CustomerID != actor.UserID {
		return nil, ErrNotOwner()
	}
	if b.Status != models.BookingCompleted {
		return nil, ErrNotCompleted()
	}

	review := &models.Review{
		BookingID:  b.ID,
		CustomerID: actor.UserID,
		ArtisanID:  b.ArtisanID,
		Rating:     rating,
		Comment:    comment,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reviews.WithTx(tx).Create(ctx, review); err != nil {
			return err
		}
		_, err := s.bookings.WithTx(tx).SetReview(ctx, b.ID, rating, comment)
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateReview()
	}
	if err != nil {
		return nil, err
	}

	// The review stands even if the recompute fails; the rating sweep repairs it.
	if _, err := s.RecomputeRatingAggregate(ctx, b.ArtisanID); err != nil {
		s.log.Error("Rating recompute failed after review",
			zap.String("artisan_id", b.ArtisanID.String()),
			zap.String("review_id", review.ID.String()),
			zap.Error(err))
	}

	s.log.Info("Review submitted",
		zap.String("booking_id", b.ID.String()),
		zap.String("artisan_id", b.ArtisanID.String()),
		zap.Int("rating", rating))
	s.announce(ctx, review)
	return review, nil
}

// RecomputeRatingAggregate rebuilds the artisan's rating from every stored review.
// The profile row is locked first so concurrent recomputes serialize and the last
// writer always sees every committed review.
func (s *ReviewService) RecomputeRatingAggregate(ctx context.Context, artisanID uuid.UUID) (RatingAggregate, error) {
	var agg RatingAggregate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		artisans := s.artisans.WithTx(tx)
		if _, err := artisans.Lock(ctx, artisanID); err != nil {
			return err
		}
		stats, err := s.reviews.WithTx(tx).Stats(ctx, artisanID)
		if err != nil {
			return err
		}
		agg = computeAggregate(stats)
		return artisans.SetRatingAggregate(ctx, artisanID, agg.Rating, agg.TotalReviews)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return RatingAggregate{}, ErrArtisanNotFound()
	}
	return agg, err
}

// RecomputeAll repairs the aggregate of every artisan that has reviews and returns how
// many were refreshed.
func (s *ReviewService) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.reviews.ReviewedArtisans(ctx)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if _, err := s.RecomputeRatingAggregate(ctx, id); err != nil {
			s.log.Warn("Rating sweep failed for artisan", zap.String("artisan_id", id.String()), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}

func (s *ReviewService) ListForArtisan(ctx context.Context, artisanID uuid.UUID) ([]models.Review, error) {
	return s.reviews.ListByArtisan(ctx, artisanID)
}

type ArtisanStats struct {
	ArtisanID     uuid.UUID `json:"artisan_id"`
	Rating        float64   `json:"rating"`
	TotalReviews  int       `json:"total_reviews"`
	CompletedJobs int       `json:"completed_jobs"`
}

func (s *ReviewService) Stats(ctx context.Context, artisanID uuid.UUID) (*ArtisanStats, error) {
	a, err := s.artisans.FindByID(ctx, artisanID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrArtisanNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &ArtisanStats{
		ArtisanID:     a.ID,
		Rating:        a.Rating,
		TotalReviews:  a.TotalReviews,
		CompletedJobs: a.CompletedJobs,
	}, nil
}

func (s *ReviewService) announce(ctx context.Context, r *models.Review) {
	if s.notifier == nil {
		return
	}
	artisan, err := s.artisans.FindByID(ctx, r.ArtisanID)
	if err != nil {
		return
	}
	name := "Client"
	if u, err := s.users.FindByID(ctx, r.CustomerID); err == nil && u.FullName != "" {
		name = u.FullName
	}
	if err := s.notifier.Dispatch(ctx, notifications.ReviewReceived(artisan.UserID, r, name)); err != nil {
		s.log.Warn("Notification dispatch failed", zap.String("review_id", r.ID.String()), zap.Error(err))
	}
}
