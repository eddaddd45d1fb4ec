package services

import (
	"context"
	"errors"
	"time"

	"github.com/fikhidmatik/artisan_booking/database/repository"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/fikhidmatik/artisan_booking/notifications"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// A status write can lose a race at most once per legal step, so this bounds the
// reload-and-retry loop.
const maxTransitionAttempts = 5

var errLostRace = errors.New("booking status changed concurrently")

// Actor is the authenticated caller, as read from the access token.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

type BookingService struct {
	db       *gorm.DB
	bookings *repository.BookingRepo
	artisans *repository.ArtisanRepo
	users    *repository.UserRepo
	notifier notifications.Dispatcher
	log      *zap.Logger
}

func NewBookingService(db *gorm.DB, notifier notifications.Dispatcher, log *zap.Logger) *BookingService {
	return &BookingService{
		db:       db,
		bookings: repository.NewBookingRepo(db),
		artisans: repository.NewArtisanRepo(db),
		users:    repository.NewUserRepo(db),
		notifier: notifier,
		log:      log,
	}
}

type CreateBookingInput struct {
	ArtisanID   uuid.UUID
	Service     models.ServiceSnapshot
	Date        time.Time
	Time        string
	Address     string
	Description string
	Urgency     models.Urgency
	TotalPrice  *decimal.Decimal
}

func (s *BookingService) Create(ctx context.Context, actor Actor, in CreateBookingInput) (*models.Booking, error) {
	if in.Urgency == "" {
		in.Urgency = models.UrgencyNormal
	}
	switch in.Urgency {
	case models.UrgencyNormal, models.UrgencyUrgent, models.UrgencyEmergency:
	default:
		return nil, ErrValidation("unknown urgency %q", in.Urgency)
	}
	if in.Date.IsZero() {
		return nil, ErrValidation("date is required")
	}

	artisan, err := s.artisans.FindByID(ctx, in.ArtisanID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrArtisanNotFound()
	}
	if err != nil {
		return nil, err
	}
	if artisan.UserID == actor.UserID {
		return nil, ErrValidation("artisans cannot book themselves")
	}

	b := &models.Booking{
		CustomerID:  actor.UserID,
		ArtisanID:   artisan.ID,
		Service:     in.Service,
		Status:      models.BookingPending,
		Date:        in.Date,
		Time:        in.Time,
		Address:     in.Address,
		Description: in.Description,
		Urgency:     in.Urgency,
	}
	if in.TotalPrice != nil {
		b.TotalPrice = decimal.NewNullDecimal(*in.TotalPrice)
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("Booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("artisan_id", artisan.ID.String()),
		zap.String("customer_id", actor.UserID.String()))
	s.notify(ctx, notifications.BookingNew(artisan.UserID, b, s.userName(ctx, actor.UserID, "Client")))
	return b, nil
}

func (s *BookingService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Booking, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

// List returns the caller's bookings: an artisan sees the jobs booked with them, a
// customer the bookings they made, an admin everything.
func (s *BookingService) List(ctx context.Context, actor Actor, status models.BookingStatus) ([]models.Booking, error) {
	if status != "" && !status.Valid() {
		return nil, ErrValidation("unknown status %q", status)
	}
	filter := repository.BookingFilter{Status: status}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleArtisan:
		artisan, err := s.artisans.FindByUserID(ctx, actor.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return []models.Booking{}, nil
		}
		if err != nil {
			return nil, err
		}
		filter.ArtisanID = &artisan.ID
	default:
		filter.CustomerID = &actor.UserID
	}
	return s.bookings.List(ctx, filter)
}

// Transition moves a booking along the lifecycle graph. Moving to completed also
// credits the artisan with a finished job in the same transaction.
func (s *BookingService) Transition(ctx context.Context, actor Actor, id uuid.UUID, target models.BookingStatus) (*models.Booking, error) {
	if !target.Valid() {
		return nil, ErrValidation("unknown status %q", target)
	}
	return s.move(ctx, actor, id, target, func(from models.BookingStatus) error {
		return ErrInvalidTransition(from, target)
	})
}

// Cancel is Transition to cancelled, failing with IllegalCancellation once work has
// started.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Booking, error) {
	return s.move(ctx, actor, id, models.BookingCancelled, func(models.BookingStatus) error {
		return ErrIllegalCancellation()
	})
}

func (s *BookingService) move(ctx context.Context, actor Actor, id uuid.UUID, target models.BookingStatus, illegal func(from models.BookingStatus) error) (*models.Booking, error) {
	var last models.BookingStatus
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		b, err := s.find(ctx, id)
		if err != nil {
			return nil, err
		}
		if attempt == 0 {
			if err := s.authorizeTransition(ctx, actor, b, target); err != nil {
				return nil, err
			}
		}
		last = b.Status
		if !models.CanTransition(b.Status, target) {
			return nil, illegal(b.Status)
		}

		err = s.apply(ctx, b, target)
		if errors.Is(err, errLostRace) {
			s.log.Debug("Booking transition lost a race, retrying",
				zap.String("booking_id", id.String()),
				zap.String("from", string(b.Status)),
				zap.String("to", string(target)))
			continue
		}
		if err != nil {
			return nil, err
		}

		from := b.Status
		b.Status = target
		s.log.Info("Booking status changed",
			zap.String("booking_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(target)))
		s.announce(ctx, actor, b)
		return b, nil
	}
	return nil, illegal(last)
}

func (s *BookingService) apply(ctx context.Context, b *models.Booking, target models.BookingStatus) error {
	if target != models.BookingCompleted {
		ok, err := s.bookings.UpdateStatusIf(ctx, b.ID, b.Status, target)
		if err != nil {
			return err
		}
		if !ok {
			return errLostRace
		}
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookings.WithTx(tx).UpdateStatusIf(ctx, b.ID, b.Status, target)
		if err != nil {
			return err
		}
		if !ok {
			return errLostRace
		}
		return s.artisans.WithTx(tx).IncrementCompletedJobs(ctx, b.ArtisanID)
	})
}

// ConfirmPaidTx advances a pending booking to confirmed inside the caller's
// transaction. Bookings past pending are left alone.
func (s *BookingService) ConfirmPaidTx(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (bool, error) {
	return s.bookings.WithTx(tx).UpdateStatusIf(ctx, bookingID, models.BookingPending, models.BookingConfirmed)
}

func (s *BookingService) authorizeView(ctx context.Context, actor Actor, b *models.Booking) error {
	if actor.IsAdmin() || b.CustomerID == actor.UserID {
		return nil
	}
	if s.ownsAsArtisan(ctx, actor, b) {
		return nil
	}
	return ErrNotOwner()
}

// Customers may only cancel their own bookings. The artisan drives every other step.
func (s *BookingService) authorizeTransition(ctx context.Context, actor Actor, b *models.Booking, target models.BookingStatus) error {
	if actor.IsAdmin() || s.ownsAsArtisan(ctx, actor, b) {
		return nil
	}
	if b.CustomerID == actor.UserID && target == models.BookingCancelled {
		return nil
	}
	return ErrNotOwner()
}

func (s *BookingService) ownsAsArtisan(ctx context.Context, actor Actor, b *models.Booking) bool {
	if actor.Role != models.RoleArtisan {
		return false
	}
	artisan, err := s.artisans.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return false
	}
	return artisan.ID == b.ArtisanID
}

func (s *BookingService) find(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound()
	}
	return b, err
}

// announce tells the other party about a committed status change.
func (s *BookingService) announce(ctx context.Context, actor Actor, b *models.Booking) {
	artisan, err := s.artisans.FindByID(ctx, b.ArtisanID)
	if err != nil {
		s.log.Warn("Cannot notify about booking, artisan missing", zap.String("booking_id", b.ID.String()), zap.Error(err))
		return
	}
	artisanName := s.userName(ctx, artisan.UserID, "Artisan")

	switch b.Status {
	case models.BookingConfirmed:
		s.notify(ctx, notifications.BookingConfirmed(b, artisanName))
	case models.BookingCompleted:
		s.notify(ctx, notifications.BookingCompleted(b, artisanName))
	case models.BookingCancelled:
		if actor.UserID == b.CustomerID {
			s.notify(ctx, notifications.BookingCancelled(artisan.UserID, b, s.userName(ctx, b.CustomerID, "Client"), false))
		} else {
			s.notify(ctx, notifications.BookingCancelled(b.CustomerID, b, artisanName, true))
		}
	}
}

func (s *BookingService) userName(ctx context.Context, id uuid.UUID, fallback string) string {
	u, err := s.users.FindByID(ctx, id)
	if err != nil || u.FullName == "" {
		return fallback
	}
	return u.FullName
}

func (s *BookingService) notify(ctx context.Context, ev notifications.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Dispatch(ctx, ev); err != nil {
		s.log.Warn("Notification dispatch failed",
			zap.String("user_id", ev.UserID.String()),
			zap.String("type", string(ev.Type)),
			zap.Error(err))
	}
}
