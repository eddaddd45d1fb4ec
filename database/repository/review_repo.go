package repository

import (
	"context"

	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewRepo struct {
	db *gorm.DB
}

func NewReviewRepo(db *gorm.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

func (r *ReviewRepo) WithTx(tx *gorm.DB) *ReviewRepo {
	return &ReviewRepo{db: tx}
}

// Create inserts a review; ErrDuplicate means the booking already has one.
func (r *ReviewRepo) Create(ctx context.Context, review *models.Review) error {
	return translate(r.db.WithContext(ctx).Create(review).Error)
}

func (r *ReviewRepo) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error
	return count > 0, err
}

func (r *ReviewRepo) ListByArtisan(ctx context.Context, artisanID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("artisan_id = ?", artisanID).
		Order("created_at desc").
		Find(&reviews).Error
	return reviews, err
}

type ReviewStats struct {
	Count int64
	Total int64
}

// Stats returns the number of reviews and the sum of their ratings for an artisan.
func (r *ReviewRepo) Stats(ctx context.Context, artisanID uuid.UUID) (ReviewStats, error) {
	var stats ReviewStats
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS total").
		Where("artisan_id = ?", artisanID).
		Scan(&stats).Error
	return stats, err
}

func (r *ReviewRepo) ReviewedArtisans(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Distinct().
		Pluck("artisan_id", &ids).Error
	return ids, err
}

func (r *ReviewRepo) DeleteByBooking(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Review{}, "booking_id = ?", bookingID).Error
}
