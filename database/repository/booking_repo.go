package repository

import (
	"context"

	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepo struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) WithTx(tx *gorm.DB) *BookingRepo {
	return &BookingRepo{db: tx}
}

func (r *BookingRepo) Create(ctx context.Context, b *models.Booking) error {
	return translate(r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

type BookingFilter struct {
	CustomerID *uuid.UUID
	ArtisanID  *uuid.UUID
	Status     models.BookingStatus
}

func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.ArtisanID != nil {
		q = q.Where("artisan_id = ?", *f.ArtisanID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var bookings []models.Booking
	if err := q.Order("created_at desc").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatusIf moves the booking to `to` only if it is still in `from`. It reports
// whether the row was changed.
func (r *BookingRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetReview copies the review onto a completed booking that has none yet.
func (r *BookingRepo) SetReview(ctx context.Context, id uuid.UUID, rating int, comment string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ? AND rating IS NULL", id, models.BookingCompleted).
		Updates(map[string]interface{}{"rating": rating, "review": comment})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *BookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Booking{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
