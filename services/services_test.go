package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fikhidmatik/artisan_booking/database/dbtest"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/fikhidmatik/artisan_booking/notifications"
	"github.com/fikhidmatik/artisan_booking/payments"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (r *recordingDispatcher) Dispatch(_ context.Context, ev notifications.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingDispatcher) ofType(typ models.NotificationType) []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notifications.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// fakeProcessor counts calls and answers with CreateFunc/CaptureFunc when set.
type fakeProcessor struct {
	mu           sync.Mutex
	createCalls  int
	captureCalls int
	lastRequest  payments.OrderRequest
	CreateFunc   func(ctx context.Context, req payments.OrderRequest) (*payments.Order, error)
	CaptureFunc  func(ctx context.Context, orderID string) (*payments.Capture, error)
}

func (f *fakeProcessor) CreateOrder(ctx context.Context, req payments.OrderRequest) (*payments.Order, error) {
	f.mu.Lock()
	f.createCalls++
	n := f.createCalls
	f.lastRequest = req
	f.mu.Unlock()
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, req)
	}
	return &payments.Order{ID: fmt.Sprintf("ORDER-%d-%s", n, req.ReferenceID[:8]), Status: "CREATED"}, nil
}

func (f *fakeProcessor) CaptureOrder(ctx context.Context, orderID string) (*payments.Capture, error) {
	f.mu.Lock()
	f.captureCalls++
	f.mu.Unlock()
	if f.CaptureFunc != nil {
		return f.CaptureFunc(ctx, orderID)
	}
	return &payments.Capture{OrderID: orderID, CaptureID: "CAP-" + orderID, Status: "COMPLETED"}, nil
}

func (f *fakeProcessor) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls, f.captureCalls
}

type testEnv struct {
	db          *gorm.DB
	notes       *recordingDispatcher
	paypal      *fakeProcessor
	card        *fakeProcessor
	bookings    *BookingService
	payments    *PaymentService
	reviews     *ReviewService
	admin       *AdminService
	customer    *models.User
	artisan     *models.Artisan
	artisanUser *models.User
	adminUser   *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	log := zap.NewNop()
	notes := &recordingDispatcher{}
	paypal := &fakeProcessor{}
	card := &fakeProcessor{}

	converter, err := NewCurrencyConverter("MAD", "USD", 10)
	if err != nil {
		t.Fatalf("converter: %v", err)
	}

	bookings := NewBookingService(db, notes, log)
	paymentSvc := NewPaymentService(db, PaymentDeps{
		Bookings: bookings,
		Processors: map[models.PaymentMethod]payments.Processor{
			models.MethodPayPal: paypal,
			models.MethodCard:   card,
		},
		Converter: converter,
		Notifier:  notes,
	}, log)
	paymentSvc.retryDelay = time.Millisecond
	reviews := NewReviewService(db, notes, log)

	artisan, artisanUser := dbtest.SeedArtisan(t, db, "Youssef Amrani")
	return &testEnv{
		db:          db,
		notes:       notes,
		paypal:      paypal,
		card:        card,
		bookings:    bookings,
		payments:    paymentSvc,
		reviews:     reviews,
		admin:       NewAdminService(db, reviews, log),
		customer:    dbtest.SeedUser(t, db, models.RoleCustomer, "Salma Bennani"),
		artisan:     artisan,
		artisanUser: artisanUser,
		adminUser:   dbtest.SeedUser(t, db, models.RoleAdmin, "Admin"),
	}
}

func (e *testEnv) customerActor() Actor {
	return Actor{UserID: e.customer.ID, Role: models.RoleCustomer}
}

func (e *testEnv) artisanActor() Actor {
	return Actor{UserID: e.artisanUser.ID, Role: models.RoleArtisan}
}

func (e *testEnv) adminActor() Actor {
	return Actor{UserID: e.adminUser.ID, Role: models.RoleAdmin}
}

func (e *testEnv) seedBooking(t *testing.T, status models.BookingStatus) *models.Booking {
	t.Helper()
	return dbtest.SeedBooking(t, e.db, e.customer.ID, e.artisan.ID, status, "150-300 MAD/h")
}

func (e *testEnv) reloadBooking(t *testing.T, b *models.Booking) *models.Booking {
	t.Helper()
	var fresh models.Booking
	if err := e.db.First(&fresh, "id = ?", b.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	return &fresh
}

func (e *testEnv) reloadArtisan(t *testing.T) *models.Artisan {
	t.Helper()
	var fresh models.Artisan
	if err := e.db.First(&fresh, "id = ?", e.artisan.ID).Error; err != nil {
		t.Fatalf("reload artisan: %v", err)
	}
	return &fresh
}

func (e *testEnv) activePayments(t *testing.T, b *models.Booking) int64 {
	t.Helper()
	var n int64
	err := e.db.Model(&models.Payment{}).
		Where("booking_id = ? AND status IN ?", b.ID, []models.PaymentStatus{models.PaymentPending, models.PaymentCompleted}).
		Count(&n).Error
	if err != nil {
		t.Fatalf("count payments: %v", err)
	}
	return n
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected kind %s, got %q (%v)", want, got, err)
	}
}
