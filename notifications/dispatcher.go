package notifications

import (
	"context"
	"fmt"
	"html"

	"github.com/fikhidmatik/artisan_booking/database/repository"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is a notification waiting to be delivered to one user.
type Event struct {
	UserID  uuid.UUID               `json:"user_id"`
	Type    models.NotificationType `json:"type"`
	Title   string                  `json:"title"`
	Message string                  `json:"message"`
	Data    models.NotificationData `json:"data"`
}

// Dispatcher hands events off for delivery. Callers dispatch only after the state
// change they describe has committed, and a dispatch failure never undoes it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

type Pusher interface {
	Push(userID uuid.UUID, payload interface{}) bool
}

type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlContent string) error
}

// Deliverer stores the notification, then pushes it to open websockets and emails the
// recipient. Only the store step is fatal.
type Deliverer struct {
	notifications *repository.NotificationRepo
	users         *repository.UserRepo
	push          Pusher
	mail          Mailer
	log           *zap.Logger
}

func NewDeliverer(notifications *repository.NotificationRepo, users *repository.UserRepo, push Pusher, mail Mailer, log *zap.Logger) *Deliverer {
	return &Deliverer{notifications: notifications, users: users, push: push, mail: mail, log: log}
}

func (d *Deliverer) Deliver(ctx context.Context, ev Event) error {
	n := &models.Notification{
		UserID:  ev.UserID,
		Type:    ev.Type,
		Title:   ev.Title,
		Message: ev.Message,
		Data:    ev.Data,
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if d.push != nil && d.push.Push(ev.UserID, n) {
		d.log.Debug("notification pushed", zap.String("user_id", ev.UserID.String()), zap.String("type", string(ev.Type)))
	}

	if d.mail == nil {
		return nil
	}
	user, err := d.users.FindByID(ctx, ev.UserID)
	if err != nil {
		d.log.Warn("notification recipient not found for email", zap.String("user_id", ev.UserID.String()), zap.Error(err))
		return nil
	}
	if err := d.mail.Send(ctx, user.Email, user.FullName, ev.Title, emailBody(ev)); err != nil {
		d.log.Warn("notification email failed", zap.String("user_id", ev.UserID.String()), zap.Error(err))
	}
	return nil
}

func emailBody(ev Event) string {
	return fmt.Sprintf("<h2>%s</h2><p>%s</p>", html.EscapeString(ev.Title), html.EscapeString(ev.Message))
}
