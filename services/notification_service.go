package services

import (
	"context"
	"errors"

	"github.com/fikhidmatik/artisan_booking/database/repository"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultNotificationLimit = 50

type NotificationService struct {
	notifications *repository.NotificationRepo
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{notifications: repository.NewNotificationRepo(db)}
}

func (s *NotificationService) List(ctx context.Context, actor Actor, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	return s.notifications.ListForUser(ctx, actor.UserID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id uuid.UUID) error {
	err := s.notifications.MarkRead(ctx, id, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound()
	}
	return err
}
