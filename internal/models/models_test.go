package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusPriorities(t *testing.T) {
	t.Run("Bookings", func(t *testing.T) {
		assert.Less(t, BookingStatusPriority(StatusPending), BookingStatusPriority(StatusConfirmed))
		assert.Less(t, BookingStatusPriority(StatusConfirmed), BookingStatusPriority(StatusCancelled))
		assert.Equal(t, unknownPriority, BookingStatusPriority("approved"))
	})

	t.Run("Slots", func(t *testing.T) {
		assert.Less(t, SlotStatusPriority(SlotAvailable), SlotStatusPriority(SlotBooked))
		assert.Less(t, SlotStatusPriority(SlotBooked), SlotStatusPriority(SlotExpired))
		assert.Equal(t, unknownPriority, SlotStatusPriority(""))
	})
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidBookingStatus(StatusPending))
	assert.True(t, ValidBookingStatus(StatusCancelled))
	assert.False(t, ValidBookingStatus("approved"))
	assert.True(t, ValidSlotStatus(SlotExpired))
	assert.False(t, ValidSlotStatus(StatusPending))
}

func TestNewUserBookingView(t *testing.T) {
	slot := Slot{ID: 3, Date: "2025-01-10", Time: "10:00"}

	v := NewUserBookingView(Booking{ID: 1, OrderID: "ORD-1", Status: StatusConfirmed}, slot)
	assert.True(t, v.HasBook)
	assert.False(t, v.Cancelled)
	assert.Equal(t, "2025-01-10", v.Date)

	v = NewUserBookingView(Booking{ID: 2, Status: StatusCancelled, Notes: "late"}, slot)
	assert.False(t, v.HasBook)
	assert.True(t, v.Cancelled)
	assert.Equal(t, "late", v.Notes)
}

func TestNewAdminBookingView(t *testing.T) {
	rec := BookingRecord{
		Booking: Booking{ID: 9, OrderID: "ORD-9", Status: StatusPending},
		Slot:    Slot{ID: 2, Date: "2025-02-01", Time: "09:30"},
		User:    User{ID: 4, Name: "alice", Email: "alice@example.com", PasswordHash: "secret"},
	}

	v := NewAdminBookingView(rec)
	assert.Equal(t, int64(9), v.ID)
	assert.Equal(t, "09:30", v.Slot.Time)
	assert.Equal(t, "alice@example.com", v.User.Email)
}
