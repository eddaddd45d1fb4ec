package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// ServiceSnapshot is copied from the artisan's offer when the booking is made and
// never refreshed, so the booking keeps the price quoted at that moment.
type ServiceSnapshot struct {
	Category string `gorm:"size:100;not null" json:"category"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Price    string `gorm:"size:100;not null" json:"price"`
}

type Booking struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	ArtisanID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"artisan_id"`
	Service     ServiceSnapshot `gorm:"embedded;embeddedPrefix:service_" json:"service"`
	Status      BookingStatus   `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Date        time.Time       `gorm:"not null" json:"date"`
	Time        string          `gorm:"size:20;not null" json:"time"`
	Address     string          `gorm:"type:text;not null" json:"address"`
	Description string          `gorm:"type:text" json:"description"`
	Urgency     Urgency         `gorm:"size:20;not null;default:'normal'" json:"urgency"`

	Rating     *int                `json:"rating,omitempty"`
	Review     *string             `gorm:"type:text" json:"review,omitempty"`
	TotalPrice decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"total_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// AllowedTransitions lists every legal status change. Statuses absent as keys are terminal.
var AllowedTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingCompleted},
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingInProgress, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Payable reports whether a payment may be started against a booking in this status.
func (s BookingStatus) Payable() bool {
	return s == BookingPending || s == BookingConfirmed
}

func (s BookingStatus) String() string { return string(s) }
