// Package availability derives a slot's status from its bookings.
package availability

import (
	"time"

	"slotbook/internal/clock"
	"slotbook/internal/models"
)

// Evaluation is the derived state of one slot for one viewer.
type Evaluation struct {
	Status  string
	CanBook bool
	Booked  bool
	Expired bool
	// OwnBooking is set when the viewer already holds a booking on the slot.
	OwnBooking bool
}

// Evaluate computes the slot status at now. viewerID 0 means the unscoped
// administrator view. A slot whose date or time cannot be parsed is
// reported as expired so it is never offered for booking.
func Evaluate(slot models.Slot, bookings []models.Booking, now time.Time, viewerID int64) Evaluation {
	var ev Evaluation

	ev.Expired = IsExpired(slot, now)

	for i := range bookings {
		b := &bookings[i]
		if b.SlotID != 0 && b.SlotID != slot.ID {
			continue
		}
		if viewerID != 0 && b.UserID == viewerID {
			ev.OwnBooking = true
		}
		if b.Status != models.StatusConfirmed {
			continue
		}
		if viewerID == 0 || b.UserID != viewerID {
			ev.Booked = true
		}
	}

	switch {
	case ev.Expired:
		ev.Status = models.SlotExpired
	case ev.Booked:
		ev.Status = models.SlotBooked
	default:
		ev.Status = models.SlotAvailable
	}
	ev.CanBook = ev.Status == models.SlotAvailable && !ev.OwnBooking

	return ev
}

// IsExpired reports whether the slot's start has passed at now. Slot dates
// are always read in the reference zone, whatever the location of now.
func IsExpired(slot models.Slot, now time.Time) bool {
	at, err := clock.SlotInstant(slot.Date, slot.Time, clock.Reference())
	if err != nil {
		return true
	}
	return at.Before(now)
}
