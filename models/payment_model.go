package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	MethodPayPal PaymentMethod = "paypal"
	MethodCard   PaymentMethod = "card"
	MethodCash   PaymentMethod = "cash"
)

// ProcessorBacked reports whether the method goes through an external processor.
func (m PaymentMethod) ProcessorBacked() bool {
	return m == MethodPayPal || m == MethodCard
}

func (m PaymentMethod) Valid() bool {
	return m == MethodPayPal || m == MethodCard || m == MethodCash
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BookingID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"booking_id"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	ArtisanID  uuid.UUID       `gorm:"type:uuid;not null" json:"artisan_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency   string          `gorm:"size:3;not null" json:"currency"`
	Method     PaymentMethod   `gorm:"size:20;not null" json:"method"`
	Status     PaymentStatus   `gorm:"size:20;not null;index" json:"status"`

	// ActiveBookingID equals BookingID while the payment is pending or completed and is
	// NULL otherwise; its unique index allows a single active payment per booking.
	ActiveBookingID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"-"`

	ExternalOrderID   *string    `gorm:"size:255;uniqueIndex" json:"external_order_id,omitempty"`
	ExternalCaptureID *string    `gorm:"size:255" json:"external_capture_id,omitempty"`
	TransactionID     *string    `gorm:"size:255;index" json:"transaction_id,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	FailureReason     *string    `gorm:"type:text" json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == PaymentPending || p.Status == PaymentCompleted {
		bookingID := p.BookingID
		p.ActiveBookingID = &bookingID
	}
	return nil
}

func (m PaymentMethod) String() string { return string(m) }

func (s PaymentStatus) String() string { return string(s) }
