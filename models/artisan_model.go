package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Artisan is the provider profile. Rating and TotalReviews are derived from the
// reviews table and only written by the rating recompute.
type Artisan struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Bio           string    `gorm:"type:text" json:"bio"`
	Rating        float64   `gorm:"not null;default:0" json:"rating"`
	TotalReviews  int       `gorm:"not null;default:0" json:"total_reviews"`
	CompletedJobs int       `gorm:"not null;default:0" json:"completed_jobs"`
	IsAvailable   bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

func (a *Artisan) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
