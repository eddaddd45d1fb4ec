package repository

import (
	"context"
	"time"

	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepo(db *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) WithTx(tx *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: tx}
}

// Create inserts a payment. ErrDuplicate means another active payment already holds
// the booking, or the external order id is taken.
func (r *PaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PaymentRepo) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).First(&p, "external_order_id = ?", orderID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindActive returns the pending or completed payment of a booking, if any.
func (r *PaymentRepo) FindActive(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).First(&p, "active_booking_id = ?", bookingID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PaymentRepo) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at asc").
		Find(&payments).Error
	return payments, err
}

// SetOrderIDIf attaches a processor order to a pending payment that has none yet.
func (r *PaymentRepo) SetOrderIDIf(ctx context.Context, id uuid.UUID, orderID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ? AND external_order_id IS NULL", id, models.PaymentPending).
		Update("external_order_id", orderID)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

type CaptureRecord struct {
	CaptureID     string
	TransactionID string
	PaidAt        time.Time
}

// MarkCompleted is the single pending→completed write. It reports false when the
// payment was no longer pending.
func (r *PaymentRepo) MarkCompleted(ctx context.Context, id uuid.UUID, rec CaptureRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":              models.PaymentCompleted,
			"external_capture_id": rec.CaptureID,
			"transaction_id":      rec.TransactionID,
			"paid_at":             rec.PaidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkFailed closes a pending payment and releases the booking's active slot.
func (r *PaymentRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":            models.PaymentFailed,
			"active_booking_id": nil,
			"failure_reason":    reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListStalePending returns processor-backed payments still pending with an order
// created before the cutoff.
func (r *PaymentRepo) ListStalePending(ctx context.Context, before time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND external_order_id IS NOT NULL AND created_at < ?", models.PaymentPending, before).
		Order("created_at asc").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepo) DeleteByBooking(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, "booking_id = ?", bookingID).Error
}
