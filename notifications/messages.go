package notifications

import (
	"fmt"

	"github.com/fikhidmatik/artisan_booking/models"
	"github.com/google/uuid"
)

func ids(bookingID, artisanID, customerID uuid.UUID) models.NotificationData {
	var d models.NotificationData
	if bookingID != uuid.Nil {
		s := bookingID.String()
		d.BookingID = &s
	}
	if artisanID != uuid.Nil {
		s := artisanID.String()
		d.ArtisanID = &s
	}
	if customerID != uuid.Nil {
		s := customerID.String()
		d.CustomerID = &s
	}
	return d
}

func BookingNew(artisanUserID uuid.UUID, b *models.Booking, customerName string) Event {
	return Event{
		UserID:  artisanUserID,
		Type:    models.NotifyBookingNew,
		Title:   "Nouvelle réservation",
		Message: fmt.Sprintf("%s a demandé un service de %s", customerName, b.Service.Name),
		Data:    ids(b.ID, uuid.Nil, b.CustomerID),
	}
}

func BookingConfirmed(b *models.Booking, artisanName string) Event {
	return Event{
		UserID:  b.CustomerID,
		Type:    models.NotifyBookingConfirmed,
		Title:   "Réservation confirmée",
		Message: fmt.Sprintf("%s a confirmé votre réservation", artisanName),
		Data:    ids(b.ID, b.ArtisanID, uuid.Nil),
	}
}

// BookingCancelled tells the party that did not cancel. byArtisan selects the wording.
func BookingCancelled(recipient uuid.UUID, b *models.Booking, cancellerName string, byArtisan bool) Event {
	msg := fmt.Sprintf("Votre réservation avec %s a été annulée", cancellerName)
	if byArtisan {
		msg = fmt.Sprintf("%s a annulé la réservation", cancellerName)
	}
	return Event{
		UserID:  recipient,
		Type:    models.NotifyBookingCancelled,
		Title:   "Réservation annulée",
		Message: msg,
		Data:    ids(b.ID, uuid.Nil, uuid.Nil),
	}
}

func BookingCompleted(b *models.Booking, artisanName string) Event {
	return Event{
		UserID:  b.CustomerID,
		Type:    models.NotifyBookingCompleted,
		Title:   "Travail terminé",
		Message: fmt.Sprintf("Le travail de %s est terminé. N'oubliez pas de laisser un avis!", artisanName),
		Data:    ids(b.ID, b.ArtisanID, uuid.Nil),
	}
}

func ReviewReceived(artisanUserID uuid.UUID, r *models.Review, customerName string) Event {
	return Event{
		UserID:  artisanUserID,
		Type:    models.NotifyReviewReceived,
		Title:   "Nouvel avis reçu",
		Message: fmt.Sprintf("%s vous a donné %d étoiles", customerName, r.Rating),
		Data:    ids(r.BookingID, r.ArtisanID, r.CustomerID),
	}
}

func PaymentReceived(artisanUserID uuid.UUID, p *models.Payment, serviceName string) Event {
	return Event{
		UserID:  artisanUserID,
		Type:    models.NotifySystem,
		Title:   "Paiement reçu",
		Message: fmt.Sprintf("Paiement de %s %s reçu pour le service %s", p.Amount.StringFixed(2), p.Currency, serviceName),
		Data:    ids(p.BookingID, uuid.Nil, uuid.Nil),
	}
}
