package jobs

import (
	"context"
	"testing"

	"github.com/fikhidmatik/artisan_booking/database/dbtest"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/fikhidmatik/artisan_booking/services"
	"go.uber.org/zap"
)

func TestStartRejectsInvalidSchedule(t *testing.T) {
	_, err := Start([]Schedule{{Spec: "every tuesday", Name: "bad", Run: func() {}}}, zap.NewNop())
	if err == nil {
		t.Fatal("expected an error for an invalid cron spec")
	}
}

func TestStartSchedules(t *testing.T) {
	c, err := Start([]Schedule{
		{Spec: "0 3 * * *", Name: "nightly", Run: func() {}},
		{Spec: "*/30 * * * *", Name: "half-hourly", Run: func() {}},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()
	if n := len(c.Entries()); n != 2 {
		t.Errorf("got %d entries, want 2", n)
	}
}

func TestRatingSweepRepairsAggregate(t *testing.T) {
	db := dbtest.Open(t)
	log := zap.NewNop()
	artisan, _ := dbtest.SeedArtisan(t, db, "Youssef Amrani")
	customer := dbtest.SeedUser(t, db, models.RoleCustomer, "Salma Bennani")
	reviews := services.NewReviewService(db, nil, log)

	b := dbtest.SeedBooking(t, db, customer.ID, artisan.ID, models.BookingCompleted, "150 MAD")
	actor := services.Actor{UserID: customer.ID, Role: models.RoleCustomer}
	if _, err := reviews.Submit(context.Background(), actor, b.ID, 3, "Correct mais en retard"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	db.Model(&models.Artisan{}).Where("id = ?", artisan.ID).Updates(map[string]interface{}{"rating": 0.0, "total_reviews": 0})

	RatingSweep(reviews, log)()

	var fresh models.Artisan
	db.First(&fresh, "id = ?", artisan.ID)
	if fresh.Rating != 3 || fresh.TotalReviews != 1 {
		t.Errorf("aggregate = (%v, %d), want (3, 1)", fresh.Rating, fresh.TotalReviews)
	}
}

func TestStalePaymentReportRuns(t *testing.T) {
	db := dbtest.Open(t)
	log := zap.NewNop()
	converter, _ := services.NewCurrencyConverter("MAD", "USD", 10)
	paymentSvc := services.NewPaymentService(db, services.PaymentDeps{
		Bookings:  services.NewBookingService(db, nil, log),
		Converter: converter,
	}, log)

	StalePaymentReport(paymentSvc, log)()
}
