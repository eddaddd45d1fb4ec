package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/fikhidmatik/artisan_booking/database/dbtest"
	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
)

func TestNotificationListAndMarkRead(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := NewNotificationService(db)
	owner := dbtest.SeedUser(t, db, models.RoleCustomer, "Salma Bennani")
	stranger := dbtest.SeedUser(t, db, models.RoleCustomer, "Other")

	for i := 0; i < 3; i++ {
		n := &models.Notification{
			UserID:  owner.ID,
			Type:    models.NotifySystem,
			Title:   fmt.Sprintf("Note %d", i),
			Message: "Bonjour",
		}
		if err := db.Create(n).Error; err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	ownerActor := Actor{UserID: owner.ID, Role: models.RoleCustomer}
	list, err := svc.List(ctx, ownerActor, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d notifications, want 3", len(list))
	}
	if limited, _ := svc.List(ctx, ownerActor, 2); len(limited) != 2 {
		t.Errorf("limit ignored: got %d", len(limited))
	}

	err = svc.MarkRead(ctx, Actor{UserID: stranger.ID, Role: models.RoleCustomer}, list[0].ID)
	assertKind(t, err, KindNotificationNotFound)

	if err := svc.MarkRead(ctx, ownerActor, list[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	var fresh models.Notification
	db.First(&fresh, "id = ?", list[0].ID)
	if !fresh.IsRead {
		t.Error("notification not marked read")
	}

	err = svc.MarkRead(ctx, ownerActor, uuid.New())
	assertKind(t, err, KindNotificationNotFound)
}
