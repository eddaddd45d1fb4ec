package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fikhidmatik/artisan_booking/database/dbtest"
	"github.com/fikhidmatik/artisan_booking/handlers"
	"github.com/fikhidmatik/artisan_booking/middleware"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/fikhidmatik/artisan_booking/payments"
	"github.com/fikhidmatik/artisan_booking/routes"
	"github.com/fikhidmatik/artisan_booking/services"
	"github.com/fikhidmatik/artisan_booking/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const secret = "routes-test-secret"

// stubPayPal approves every order.
type stubPayPal struct {
	orders   int
	captures int
}

func (s *stubPayPal) CreateOrder(_ context.Context, req payments.OrderRequest) (*payments.Order, error) {
	s.orders++
	return &payments.Order{ID: fmt.Sprintf("PP-%d", s.orders), Status: "CREATED"}, nil
}

func (s *stubPayPal) CaptureOrder(_ context.Context, orderID string) (*payments.Capture, error) {
	s.captures++
	return &payments.Capture{OrderID: orderID, CaptureID: "CAP-" + orderID, Status: "COMPLETED"}, nil
}

type api struct {
	t        *testing.T
	app      *fiber.App
	paypal   *stubPayPal
	artisan  *models.Artisan
	customer string
	worker   string
	admin    string
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := dbtest.Open(t)
	log := zap.NewNop()

	converter, err := services.NewCurrencyConverter("MAD", "USD", 10)
	if err != nil {
		t.Fatal(err)
	}
	paypal := &stubPayPal{}
	bookingSvc := services.NewBookingService(db, nil, log)
	paymentSvc := services.NewPaymentService(db, services.PaymentDeps{
		Bookings:   bookingSvc,
		Processors: map[models.PaymentMethod]payments.Processor{models.MethodPayPal: paypal},
		Converter:  converter,
	}, log)
	reviewSvc := services.NewReviewService(db, nil, log)

	app := fiber.New()
	routes.Setup(app, routes.Handlers{
		Bookings:      handlers.NewBookingHandler(bookingSvc, log),
		Payments:      handlers.NewPaymentHandler(paymentSvc, log),
		Reviews:       handlers.NewReviewHandler(reviewSvc, log),
		Notifications: handlers.NewNotificationHandler(services.NewNotificationService(db), websocket.NewHub(log), log),
		Admin:         handlers.NewAdminHandler(services.NewAdminService(db, reviewSvc, log), reviewSvc, log),
		Health:        handlers.NewHealthHandler(db, nil),
	}, routes.Auth{
		Protected: middleware.Protected(secret),
		Socket:    middleware.ProtectedQuery(secret),
		Admin:     middleware.RoleRequired(models.RoleAdmin),
	}, middleware.RateLimit(0, log))

	artisan, artisanUser := dbtest.SeedArtisan(t, db, "Youssef Amrani")
	customer := dbtest.SeedUser(t, db, models.RoleCustomer, "Salma Bennani")
	admin := dbtest.SeedUser(t, db, models.RoleAdmin, "Admin")
	return &api{
		t:        t,
		app:      app,
		paypal:   paypal,
		artisan:  artisan,
		customer: token(t, customer.ID, models.RoleCustomer),
		worker:   token(t, artisanUser.ID, models.RoleArtisan),
		admin:    token(t, admin.ID, models.RoleAdmin),
	}
}

// call sends body as JSON with the bearer token (when set), decodes the response into
// out (when set) and returns the status code.
func (a *api) call(method, path, bearer string, body, out interface{}) int {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retriable bool   `json:"retriable"`
}

func (a *api) createBooking(price string) models.Booking {
	a.t.Helper()
	var b models.Booking
	status := a.call(http.MethodPost, "/api/bookings", a.customer, fiber.Map{
		"artisan_id": a.artisan.ID.String(),
		"service":    fiber.Map{"category": "plomberie", "name": "Réparation fuite", "price": price},
		"date":       "2026-05-12",
		"time":       "10:00",
		"address":    "12 rue Atlas, Casablanca",
		"urgency":    "urgent",
	}, &b)
	if status != http.StatusCreated {
		a.t.Fatalf("create booking: status %d", status)
	}
	return b
}

func TestBookingPaymentReviewFlow(t *testing.T) {
	a := newAPI(t)
	b := a.createBooking("150-300 MAD/h")
	if b.Status != models.BookingPending || b.Urgency != models.UrgencyUrgent {
		t.Fatalf("booking = %+v", b)
	}

	var order services.PaymentResult
	if status := a.call(http.MethodPost, "/api/payments/paypal/create-order", a.customer, fiber.Map{"booking_id": b.ID}, &order); status != http.StatusCreated {
		t.Fatalf("create order: status %d", status)
	}
	if order.OrderID == "" || order.SettlementCurrency != "USD" || order.SettlementAmount.String() != "15" {
		t.Errorf("order = %+v", order)
	}

	var again services.PaymentResult
	if status := a.call(http.MethodPost, "/api/payments/paypal/create-order", a.customer, fiber.Map{"booking_id": b.ID}, &again); status != http.StatusOK {
		t.Errorf("repeat create order: status %d, want 200", status)
	}
	if again.OrderID != order.OrderID || a.paypal.orders != 1 {
		t.Errorf("repeat create order opened a new processor order")
	}

	var captured services.CaptureResult
	if status := a.call(http.MethodPost, "/api/payments/paypal/capture-order", a.customer, fiber.Map{"order_id": order.OrderID}, &captured); status != http.StatusOK {
		t.Fatalf("capture: status %d", status)
	}
	if captured.Payment.Status != models.PaymentCompleted || captured.Booking.Status != models.BookingConfirmed {
		t.Errorf("capture = payment %s, booking %s", captured.Payment.Status, captured.Booking.Status)
	}

	var paid errorBody
	if status := a.call(http.MethodPost, "/api/payments/create", a.customer, fiber.Map{"booking_id": b.ID, "method": "cash"}, &paid); status != http.StatusBadRequest || paid.Kind != string(services.KindAlreadyPaid) {
		t.Errorf("pay twice = %d %+v", status, paid)
	}

	for _, next := range []models.BookingStatus{models.BookingInProgress, models.BookingCompleted} {
		var updated models.Booking
		if status := a.call(http.MethodPatch, "/api/bookings/"+b.ID.String(), a.worker, fiber.Map{"status": next}, &updated); status != http.StatusOK {
			t.Fatalf("move to %s: status %d", next, status)
		}
		if updated.Status != next {
			t.Errorf("status = %s, want %s", updated.Status, next)
		}
	}

	review := fiber.Map{"booking_id": b.ID, "rating": 5, "comment": "Excellent travail, très propre"}
	if status := a.call(http.MethodPost, "/api/reviews", a.customer, review, nil); status != http.StatusCreated {
		t.Fatalf("review: status %d", status)
	}
	var dup errorBody
	if status := a.call(http.MethodPost, "/api/reviews", a.customer, review, &dup); status != http.StatusBadRequest || dup.Kind != string(services.KindDuplicateReview) {
		t.Errorf("duplicate review = %d %+v", status, dup)
	}

	var stats services.ArtisanStats
	if status := a.call(http.MethodGet, "/api/artisans/"+a.artisan.ID.String()+"/stats", "", nil, &stats); status != http.StatusOK {
		t.Fatalf("stats: status %d", status)
	}
	if stats.Rating != 5 || stats.TotalReviews != 1 || stats.CompletedJobs != 1 {
		t.Errorf("stats = %+v", stats)
	}

	var reviews []models.Review
	a.call(http.MethodGet, "/api/reviews?artisanId="+a.artisan.ID.String(), "", nil, &reviews)
	if len(reviews) != 1 {
		t.Errorf("got %d public reviews, want 1", len(reviews))
	}

	var cancel errorBody
	if status := a.call(http.MethodDelete, "/api/bookings/"+b.ID.String(), a.customer, nil, &cancel); status != http.StatusBadRequest || cancel.Kind != string(services.KindIllegalCancellation) {
		t.Errorf("cancel completed = %d %+v", status, cancel)
	}

	var history []models.Payment
	if status := a.call(http.MethodGet, "/api/bookings/"+b.ID.String()+"/payments", a.customer, nil, &history); status != http.StatusOK || len(history) != 1 {
		t.Errorf("payment history = %d, %d entries", status, len(history))
	}
}

func TestErrorResponses(t *testing.T) {
	a := newAPI(t)
	b := a.createBooking("200 MAD")

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		body   interface{}
		status int
		kind   services.Kind
	}{
		{"no token", http.MethodGet, "/api/bookings", "", nil, http.StatusUnauthorized, services.KindUnauthorized},
		{"unknown booking", http.MethodGet, "/api/bookings/" + uuid.NewString(), a.customer, nil, http.StatusNotFound, services.KindBookingNotFound},
		{"bad id", http.MethodGet, "/api/bookings/nope", a.customer, nil, http.StatusBadRequest, services.KindValidation},
		{"customer confirms", http.MethodPatch, "/api/bookings/" + b.ID.String(), a.customer, fiber.Map{"status": "confirmed"}, http.StatusForbidden, services.KindNotOwner},
		{"skip a step", http.MethodPatch, "/api/bookings/" + b.ID.String(), a.worker, fiber.Map{"status": "completed"}, http.StatusBadRequest, services.KindInvalidTransition},
		{"unknown status", http.MethodPatch, "/api/bookings/" + b.ID.String(), a.worker, fiber.Map{"status": "done"}, http.StatusBadRequest, services.KindValidation},
		{"review too early", http.MethodPost, "/api/reviews", a.customer, fiber.Map{"booking_id": b.ID, "rating": 4, "comment": "Très bon travail"}, http.StatusBadRequest, services.KindNotCompleted},
		{"bad rating", http.MethodPost, "/api/reviews", a.customer, fiber.Map{"booking_id": b.ID, "rating": 9, "comment": "Très bon travail"}, http.StatusBadRequest, services.KindInvalidReview},
		{"unknown order", http.MethodPost, "/api/payments/paypal/capture-order", a.customer, fiber.Map{"order_id": "NOPE"}, http.StatusNotFound, services.KindPaymentNotFound},
		{"card unconfigured", http.MethodPost, "/api/payments/create", a.customer, fiber.Map{"booking_id": b.ID, "method": "card"}, http.StatusInternalServerError, services.KindProcessorUnconfigured},
		{"bad method", http.MethodPost, "/api/payments/create", a.customer, fiber.Map{"booking_id": b.ID, "method": "gold"}, http.StatusBadRequest, services.KindValidation},
		{"purge as customer", http.MethodDelete, "/api/admin/bookings/" + b.ID.String(), a.customer, nil, http.StatusForbidden, services.KindNotOwner},
		{"reviews without artisan", http.MethodGet, "/api/reviews", "", nil, http.StatusBadRequest, services.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			status := a.call(tt.method, tt.path, tt.bearer, tt.body, &body)
			if status != tt.status || body.Kind != string(tt.kind) {
				t.Errorf("got %d %q (%s), want %d %q", status, body.Kind, body.Error, tt.status, tt.kind)
			}
			if body.Error == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestCustomerCancelAndAdminPurge(t *testing.T) {
	a := newAPI(t)
	b := a.createBooking("200 MAD")

	var cancelled models.Booking
	if status := a.call(http.MethodDelete, "/api/bookings/"+b.ID.String(), a.customer, nil, &cancelled); status != http.StatusOK {
		t.Fatalf("cancel: status %d", status)
	}
	if cancelled.Status != models.BookingCancelled {
		t.Errorf("status = %s", cancelled.Status)
	}

	var list []models.Booking
	a.call(http.MethodGet, "/api/bookings?status=cancelled", a.customer, nil, &list)
	if len(list) != 1 {
		t.Errorf("got %d cancelled bookings, want 1", len(list))
	}

	if status := a.call(http.MethodDelete, "/api/admin/bookings/"+b.ID.String(), a.admin, nil, nil); status != http.StatusOK {
		t.Fatalf("purge: status %d", status)
	}
	if status := a.call(http.MethodGet, "/api/bookings/"+b.ID.String(), a.admin, nil, nil); status != http.StatusNotFound {
		t.Errorf("purged booking still readable: %d", status)
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	var body map[string]string
	if status := a.call(http.MethodGet, "/health", "", nil, &body); status != http.StatusOK {
		t.Fatalf("health: status %d", status)
	}
	if body["database"] != "ok" || body["redis"] != "disabled" {
		t.Errorf("health = %v", body)
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	a := newAPI(t)
	status := a.call(http.MethodGet, "/api/ws?token="+a.customer, "", nil, nil)
	if status != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", status)
	}
}
