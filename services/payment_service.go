package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fikhidmatik/artisan_booking/database/repository"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/fikhidmatik/artisan_booking/notifications"
	"github.com/fikhidmatik/artisan_booking/payments"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Bounds the resolve loop when concurrent requests keep taking the booking's active
// payment slot.
const maxResolveAttempts = 3

var errNotPending = errors.New("payment is no longer pending")

type PaymentService struct {
	db         *gorm.DB
	payments   *repository.PaymentRepo
	bookingSvc *BookingService
	bookings   *repository.BookingRepo
	artisans   *repository.ArtisanRepo
	processors map[models.PaymentMethod]payments.Processor
	converter  *CurrencyConverter
	notifier   notifications.Dispatcher
	log        *zap.Logger

	persistAttempts int
	retryDelay      time.Duration
	now             func() time.Time
}

type PaymentDeps struct {
	Bookings   *BookingService
	Processors map[models.PaymentMethod]payments.Processor
	Converter  *CurrencyConverter
	Notifier   notifications.Dispatcher
}

func NewPaymentService(db *gorm.DB, deps PaymentDeps, log *zap.Logger) *PaymentService {
	processors := deps.Processors
	if processors == nil {
		processors = map[models.PaymentMethod]payments.Processor{}
	}
	return &PaymentService{
		db:              db,
		payments:        repository.NewPaymentRepo(db),
		bookingSvc:      deps.Bookings,
		bookings:        repository.NewBookingRepo(db),
		artisans:        repository.NewArtisanRepo(db),
		processors:      processors,
		converter:       deps.Converter,
		notifier:        deps.Notifier,
		log:             log,
		persistAttempts: 3,
		retryDelay:      200 * time.Millisecond,
		now:             time.Now,
	}
}

// PaymentResult is what a caller needs to drive the payer through checkout.
type PaymentResult struct {
	Payment            *models.Payment `json:"payment"`
	OrderID            string          `json:"order_id,omitempty"`
	ClientSecret       string          `json:"client_secret,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	SettlementAmount   decimal.Decimal `json:"settlement_amount"`
	SettlementCurrency string          `json:"settlement_currency"`
	Reused             bool            `json:"reused"`
}

type CaptureResult struct {
	Payment *models.Payment `json:"payment"`
	Booking *models.Booking `json:"booking"`
}

// InitiatePayment starts paying a booking. Processor-backed methods open an order, cash
// only records a pending payment that is settled on site.
func (s *PaymentService) InitiatePayment(ctx context.Context, actor Actor, bookingID uuid.UUID, method models.PaymentMethod) (*PaymentResult, error) {
	if !method.Valid() {
		return nil, ErrValidation("unknown payment method %q", method)
	}
	if method.ProcessorBacked() {
		return s.CreateOrder(ctx, actor, bookingID, method)
	}
	b, amount, err := s.payable(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	p, reused, err := s.resolve(ctx, b, method, amount, uuid.New(), "")
	if err != nil {
		return nil, err
	}
	res := s.result(p, amount)
	res.Reused = reused
	return res, nil
}

// CreateOrder opens a processor order for the booking and links it to the booking's
// pending payment. A pending payment that already has an order is returned as is,
// whatever its method.
func (s *PaymentService) CreateOrder(ctx context.Context, actor Actor, bookingID uuid.UUID, method models.PaymentMethod) (*PaymentResult, error) {
	if !method.ProcessorBacked() {
		return nil, ErrValidation("payment method %q has no processor order", method)
	}
	processor, ok := s.processors[method]
	if !ok {
		return nil, ErrProcessorUnconfigured(method)
	}
	b, amount, err := s.payable(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	paymentID := uuid.New()
	active, err := s.payments.FindActive(ctx, b.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, err
	case active.Status == models.PaymentCompleted:
		return nil, ErrAlreadyPaid()
	case active.ExternalOrderID != nil:
		res := s.result(active, amount)
		res.Reused = true
		return res, nil
	case active.Method == method:
		paymentID = active.ID
	}

	req := payments.OrderRequest{
		ReferenceID: paymentID.String(),
		CustomID:    b.ID.String(),
		Description: "Service: " + b.Service.Name,
		Amount:      amount,
		Currency:    s.converter.Home,
	}
	if method == models.MethodPayPal {
		req.Amount = s.converter.ToSettlement(amount)
		req.Currency = s.converter.Settlement
	}

	order, err := processor.CreateOrder(ctx, req)
	if err != nil {
		s.log.Error("Processor order creation failed",
			zap.String("booking_id", b.ID.String()),
			zap.String("method", string(method)),
			zap.Error(err))
		return nil, ErrProcessor(err)
	}

	p, reused, err := s.resolve(ctx, b, method, amount, paymentID, order.ID)
	if err != nil {
		return nil, err
	}
	if p.ExternalOrderID != nil && *p.ExternalOrderID != order.ID {
		s.log.Warn("Processor order abandoned in favour of a concurrent one",
			zap.String("booking_id", b.ID.String()),
			zap.String("abandoned_order_id", order.ID),
			zap.String("order_id", *p.ExternalOrderID))
	}

	res := s.result(p, amount)
	res.Reused = reused
	if p.ExternalOrderID != nil && *p.ExternalOrderID == order.ID {
		res.ClientSecret = order.ClientSecret
	}
	s.log.Info("Payment order created",
		zap.String("booking_id", b.ID.String()),
		zap.String("payment_id", p.ID.String()),
		zap.String("order_id", res.OrderID))
	return res, nil
}

// resolve makes sure the booking holds exactly one active payment for method and
// returns it. orderID, when set, is attached to that payment. Another method's pending
// payment is closed and replaced unless it already carries a processor order, which
// the payer may be approving; that payment is returned instead. The active-payment unique index turns concurrent
// inserts into ErrDuplicate, after which the state is read again.
func (s *PaymentService) resolve(ctx context.Context, b *models.Booking, method models.PaymentMethod, amount decimal.Decimal, paymentID uuid.UUID, orderID string) (*models.Payment, bool, error) {
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		active, err := s.payments.FindActive(ctx, b.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}

		switch {
		case active == nil:
			p, err := s.insert(ctx, b, method, amount, paymentID, orderID, nil)
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return p, false, err

		case active.Status == models.PaymentCompleted:
			return nil, false, ErrAlreadyPaid()

		case active.Method == method && (orderID == "" || active.ExternalOrderID != nil):
			return active, true, nil

		case active.Method == method:
			ok, err := s.payments.SetOrderIDIf(ctx, active.ID, orderID)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				continue
			}
			active.ExternalOrderID = &orderID
			return active, false, nil

		case active.ExternalOrderID != nil:
			return active, true, nil

		default:
			if paymentID == active.ID {
				paymentID = uuid.New()
			}
			p, err := s.insert(ctx, b, method, amount, paymentID, orderID, active)
			if errors.Is(err, repository.ErrDuplicate) || errors.Is(err, errNotPending) {
				continue
			}
			if err == nil {
				s.log.Info("Pending payment superseded",
					zap.String("booking_id", b.ID.String()),
					zap.String("superseded_id", active.ID.String()),
					zap.String("method", string(method)))
			}
			return p, false, err
		}
	}
	return nil, false, fmt.Errorf("booking %s: payment state kept changing, giving up", b.ID)
}

// insert writes a new pending payment, first closing superseded in the same
// transaction when it is set.
func (s *PaymentService) insert(ctx context.Context, b *models.Booking, method models.PaymentMethod, amount decimal.Decimal, id uuid.UUID, orderID string, superseded *models.Payment) (*models.Payment, error) {
	p := &models.Payment{
		ID:         id,
		BookingID:  b.ID,
		CustomerID: b.CustomerID,
		ArtisanID:  b.ArtisanID,
		Amount:     amount,
		Currency:   s.converter.Home,
		Method:     method,
		Status:     models.PaymentPending,
	}
	if orderID != "" {
		p.ExternalOrderID = &orderID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.payments.WithTx(tx)
		if superseded != nil {
			ok, err := repo.MarkFailed(ctx, superseded.ID, "superseded by a "+string(method)+" payment")
			if err != nil {
				return err
			}
			if !ok {
				return errNotPending
			}
		}
		return repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Capture settles the processor order and records the outcome. Capturing an order
// that is already recorded as completed returns the stored result without calling the
// processor again.
func (s *PaymentService) Capture(ctx context.Context, actor Actor, orderID string) (*CaptureResult, error) {
	if orderID == "" {
		return nil, ErrValidation("order id is required")
	}
	p, err := s.payments.FindByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound()
	}
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.CustomerID != actor.UserID {
		return nil, ErrNotOwner()
	}

	switch p.Status {
	case models.PaymentCompleted:
		return s.captured(ctx, p)
	case models.PaymentFailed, models.PaymentRefunded:
		return nil, ErrPaymentClosed(p.Status)
	}

	processor, ok := s.processors[p.Method]
	if !ok {
		return nil, ErrProcessorUnconfigured(p.Method)
	}

	capture, err := processor.CaptureOrder(ctx, orderID)
	if err != nil {
		var perr *payments.Error
		if errors.As(err, &perr) && perr.Terminal {
			if _, ferr := s.payments.MarkFailed(ctx, p.ID, perr.Error()); ferr != nil {
				s.log.Error("Failed to close declined payment", zap.String("payment_id", p.ID.String()), zap.Error(ferr))
			}
		}
		s.log.Warn("Processor capture failed",
			zap.String("payment_id", p.ID.String()),
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, ErrProcessor(err)
	}

	rec := repository.CaptureRecord{
		CaptureID:     capture.CaptureID,
		TransactionID: capture.CaptureID,
		PaidAt:        s.now().UTC(),
	}
	confirmed, err := s.persistCapture(ctx, p, rec)
	if errors.Is(err, errNotPending) {
		current, ferr := s.payments.FindByID(ctx, p.ID)
		if ferr != nil {
			return nil, ferr
		}
		if current.Status == models.PaymentCompleted {
			return s.captured(ctx, current)
		}
		s.log.Error("Processor captured a payment that is closed locally",
			zap.String("payment_id", p.ID.String()),
			zap.String("order_id", orderID),
			zap.String("capture_id", capture.CaptureID),
			zap.String("status", string(current.Status)))
		return nil, ErrPaymentClosed(current.Status)
	}
	if err != nil {
		s.log.Error("Captured payment could not be recorded",
			zap.String("payment_id", p.ID.String()),
			zap.String("order_id", orderID),
			zap.String("capture_id", capture.CaptureID),
			zap.Error(err))
		return nil, err
	}

	res, err := s.captured(ctx, p)
	if err != nil {
		return nil, err
	}
	s.log.Info("Payment captured",
		zap.String("payment_id", p.ID.String()),
		zap.String("booking_id", p.BookingID.String()),
		zap.Bool("booking_confirmed", confirmed))

	if confirmed {
		s.bookingSvc.announce(ctx, actor, res.Booking)
	}
	if artisan, err := s.artisans.FindByID(ctx, res.Payment.ArtisanID); err == nil {
		s.bookingSvc.notify(ctx, notifications.PaymentReceived(artisan.UserID, res.Payment, res.Booking.Service.Name))
	}
	return res, nil
}

// persistCapture writes the completed payment and confirms a pending booking in one
// transaction, retrying transient failures because the money has already moved.
func (s *PaymentService) persistCapture(ctx context.Context, p *models.Payment, rec repository.CaptureRecord) (bool, error) {
	var confirmed bool
	var err error
	for attempt := 1; attempt <= s.persistAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ok, err := s.payments.WithTx(tx).MarkCompleted(ctx, p.ID, rec)
			if err != nil {
				return err
			}
			if !ok {
				return errNotPending
			}
			confirmed, err = s.bookingSvc.ConfirmPaidTx(ctx, tx, p.BookingID)
			return err
		})
		if err == nil || errors.Is(err, errNotPending) || ctx.Err() != nil {
			return confirmed, err
		}
		s.log.Warn("Retrying capture write", zap.String("payment_id", p.ID.String()), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(time.Duration(attempt) * s.retryDelay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return false, err
}

func (s *PaymentService) captured(ctx context.Context, p *models.Payment) (*CaptureResult, error) {
	current, err := s.payments.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.FindByID(ctx, current.BookingID)
	if err != nil {
		return nil, err
	}
	return &CaptureResult{Payment: current, Booking: b}, nil
}

// ListForBooking returns every payment attempt of a booking, oldest first.
func (s *PaymentService) ListForBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) ([]models.Payment, error) {
	if _, err := s.bookingSvc.Get(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	return s.payments.ListByBooking(ctx, bookingID)
}

// ListStale returns processor payments left pending since before the cutoff.
func (s *PaymentService) ListStale(ctx context.Context, olderThan time.Duration) ([]models.Payment, error) {
	return s.payments.ListStalePending(ctx, s.now().Add(-olderThan))
}

func (s *PaymentService) payable(ctx context.Context, actor Actor, bookingID uuid.UUID) (*models.Booking, decimal.Decimal, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, decimal.Zero, ErrBookingNotFound()
	}
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !actor.IsAdmin() && b.CustomerID != actor.UserID {
		return nil, decimal.Zero, ErrNotOwner()
	}
	if active, err := s.payments.FindActive(ctx, b.ID); err == nil && active.Status == models.PaymentCompleted {
		return nil, decimal.Zero, ErrAlreadyPaid()
	}
	if !b.Status.Payable() {
		return nil, decimal.Zero, ErrNotPayable(b.Status)
	}
	amount, err := ParsePrice(b.Service.Price)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return b, amount, nil
}

func (s *PaymentService) result(p *models.Payment, amount decimal.Decimal) *PaymentResult {
	res := &PaymentResult{
		Payment:            p,
		Amount:             amount,
		Currency:           s.converter.Home,
		SettlementAmount:   s.converter.ToSettlement(amount),
		SettlementCurrency: s.converter.Settlement,
	}
	if p.ExternalOrderID != nil {
		res.OrderID = *p.ExternalOrderID
	}
	return res
}
