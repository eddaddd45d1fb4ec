// Package dbtest opens throwaway sqlite databases with the production schema and seeds
// the rows most tests start from.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fikhidmatik/artisan_booking/database"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a migrated sqlite database in the test's temp dir. The pool holds one
// connection so concurrent tests serialize instead of hitting SQLITE_BUSY.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), database.Options())
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func SeedUser(t testing.TB, db *gorm.DB, role, name string) *models.User {
	t.Helper()
	u := &models.User{
		FullName: name,
		Email:    uuid.NewString()[:8] + "@example.com",
		Role:     role,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return u
}

// SeedArtisan creates an artisan profile together with its user account.
func SeedArtisan(t testing.TB, db *gorm.DB, name string) (*models.Artisan, *models.User) {
	t.Helper()
	u := SeedUser(t, db, models.RoleArtisan, name)
	a := &models.Artisan{UserID: u.ID, Bio: "Plombier", IsAvailable: true}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("Failed to seed artisan: %v", err)
	}
	return a, u
}

func SeedBooking(t testing.TB, db *gorm.DB, customerID, artisanID uuid.UUID, status models.BookingStatus, price string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		CustomerID: customerID,
		ArtisanID:  artisanID,
		Service:    models.ServiceSnapshot{Category: "plomberie", Name: "Réparation fuite", Price: price},
		Status:     status,
		Date:       time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		Time:       "10:00",
		Address:    "12 rue Atlas, Casablanca",
		Urgency:    models.UrgencyNormal,
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("Failed to seed booking: %v", err)
	}
	return b
}
