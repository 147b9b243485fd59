package database

import (
	"context"
	"testing"

	"slotbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlots_CRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	slot := &models.Slot{Date: "2025-01-10", Time: "10:00"}
	require.NoError(t, db.CreateSlot(ctx, slot))
	assert.NotZero(t, slot.ID)

	err := db.CreateSlot(ctx, &models.Slot{Date: "2025-01-10", Time: "10:00"})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	got, err := db.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", got.Time)

	slot.Time = "11:30"
	require.NoError(t, db.UpdateSlot(ctx, slot))
	got, err = db.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, "11:30", got.Time)

	assert.ErrorIs(t, db.UpdateSlot(ctx, &models.Slot{ID: 999, Date: "2025-01-10", Time: "09:00"}), ErrNotFound)

	require.NoError(t, db.DeleteSlot(ctx, slot.ID))
	_, err = db.GetSlot(ctx, slot.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteSlot(ctx, slot.ID), ErrNotFound)
}

func TestDeleteSlot_RemovesPendingBookings(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	b := book(t, db, f.slot.ID, f.alice.ID, "ORD-1")
	require.NoError(t, db.DeleteSlot(ctx, f.slot.ID))

	_, err := db.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSlot_BlockedByConfirmedBooking(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	b := book(t, db, f.slot.ID, f.alice.ID, "ORD-1")
	require.NoError(t, db.ApplyStatusUpdates(ctx, []models.StatusUpdate{{BookingID: b.ID, Status: models.StatusConfirmed}}))

	assert.ErrorIs(t, db.DeleteSlot(ctx, f.slot.ID), ErrConfirmedExists)
	_, err := db.GetSlot(ctx, f.slot.ID)
	assert.NoError(t, err)
}

func TestListSlotsWithBookings(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	other := &models.Slot{Date: "2025-01-11", Time: "09:00"}
	require.NoError(t, db.CreateSlot(ctx, other))
	book(t, db, f.slot.ID, f.alice.ID, "ORD-1")
	book(t, db, f.slot.ID, f.bob.ID, "ORD-2")

	all, err := db.ListSlotsWithBookings(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, f.slot.ID, all[0].Slot.ID)
	assert.Len(t, all[0].Bookings, 2)
	assert.Empty(t, all[1].Bookings)

	byDate, err := db.ListSlotsWithBookings(ctx, "2025-01-11")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, other.ID, byDate[0].Slot.ID)
}
