package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotifyBookingNew       NotificationType = "booking_new"
	NotifyBookingConfirmed NotificationType = "booking_confirmed"
	NotifyBookingCancelled NotificationType = "booking_cancelled"
	NotifyBookingCompleted NotificationType = "booking_completed"
	NotifyReviewReceived   NotificationType = "review_received"
	NotifySystem           NotificationType = "system"
)

type NotificationData struct {
	BookingID  *string `gorm:"size:64" json:"booking_id,omitempty"`
	ArtisanID  *string `gorm:"size:64" json:"artisan_id,omitempty"`
	CustomerID *string `gorm:"size:64" json:"customer_id,omitempty"`
}

type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      NotificationType `gorm:"size:30;not null" json:"type"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Data      NotificationData `gorm:"embedded;embeddedPrefix:data_" json:"data"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
