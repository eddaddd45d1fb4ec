package repository

import (
	"context"

	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArtisanRepo struct {
	db *gorm.DB
}

func NewArtisanRepo(db *gorm.DB) *ArtisanRepo {
	return &ArtisanRepo{db: db}
}

func (r *ArtisanRepo) WithTx(tx *gorm.DB) *ArtisanRepo {
	return &ArtisanRepo{db: tx}
}

func (r *ArtisanRepo) Create(ctx context.Context, a *models.Artisan) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *ArtisanRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Artisan, error) {
	var a models.Artisan
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *ArtisanRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Artisan, error) {
	var a models.Artisan
	if err := r.db.WithContext(ctx).First(&a, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// Lock takes a row lock on the profile for the rest of the transaction.
func (r *ArtisanRepo) Lock(ctx context.Context, id uuid.UUID) (*models.Artisan, error) {
	var a models.Artisan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *ArtisanRepo) IncrementCompletedJobs(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Artisan{}).
		Where("id = ?", id).
		Update("completed_jobs", gorm.Expr("completed_jobs + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ArtisanRepo) SetRatingAggregate(ctx context.Context, id uuid.UUID, rating float64, totalReviews int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Artisan{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"rating": rating, "total_reviews": totalReviews})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
