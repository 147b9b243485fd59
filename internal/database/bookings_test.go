package database

import (
	"context"
	"testing"

	"slotbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking_Constraints(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	b := book(t, db, f.slot.ID, f.alice.ID, "ORD-1")
	assert.Equal(t, models.StatusPending, b.Status)
	assert.False(t, b.CreatedAt.IsZero())

	t.Run("SameUserSameSlot", func(t *testing.T) {
		err := db.CreateBooking(ctx, &models.Booking{SlotID: f.slot.ID, UserID: f.alice.ID, OrderID: "ORD-2"})
		assert.ErrorIs(t, err, ErrUniqueViolation)
	})

	t.Run("OrderIDReuse", func(t *testing.T) {
		err := db.CreateBooking(ctx, &models.Booking{SlotID: f.slot.ID, UserID: f.bob.ID, OrderID: "ORD-1"})
		assert.ErrorIs(t, err, ErrUniqueViolation)
	})

	t.Run("UnknownSlot", func(t *testing.T) {
		err := db.CreateBooking(ctx, &models.Booking{SlotID: 999, UserID: f.bob.ID, OrderID: "ORD-3"})
		assert.Error(t, err)
	})
}

func TestHasBookingAndFindConfirmed(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	a := book(t, db, f.slot.ID, f.alice.ID, "ORD-1")

	has, err := db.HasBooking(ctx, f.alice.ID, f.slot.ID)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = db.HasBooking(ctx, f.bob.ID, f.slot.ID)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = db.FindConfirmedBooking(ctx, f.slot.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.ApplyStatusUpdates(ctx, []models.StatusUpdate{{BookingID: a.ID, Status: models.StatusConfirmed}}))

	got, err := db.FindConfirmedBooking(ctx, f.slot.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = db.FindConfirmedBooking(ctx, f.slot.ID, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndDeleteBooking(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	other := &models.Slot{Date: "2025-01-11", Time: "09:00"}
	require.NoError(t, db.CreateSlot(ctx, other))

	a := book(t, db, f.slot.ID, f.alice.ID, "ORD-1")
	book(t, db, other.ID, f.alice.ID, "ORD-2")

	a.Notes = "window seat"
	require.NoError(t, db.UpdateBooking(ctx, a))
	got, err := db.GetBooking(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "window seat", got.Notes)

	a.SlotID = other.ID
	assert.ErrorIs(t, db.UpdateBooking(ctx, a), ErrUniqueViolation)

	require.NoError(t, db.DeleteBooking(ctx, a.ID))
	assert.ErrorIs(t, db.DeleteBooking(ctx, a.ID), ErrNotFound)
	_, err = db.GetBooking(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyStatusUpdates_Atomic(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	a := book(t, db, f.slot.ID, f.alice.ID, "ORD-1")
	b := book(t, db, f.slot.ID, f.bob.ID, "ORD-2")
	c := book(t, db, f.slot.ID, f.carol.ID, "ORD-3")

	err := db.ApplyStatusUpdates(ctx, []models.StatusUpdate{
		{BookingID: a.ID, Status: models.StatusConfirmed},
		{BookingID: b.ID, Status: models.StatusCancelled},
		{BookingID: c.ID, Status: models.StatusCancelled},
	})
	require.NoError(t, err)

	bookings, err := db.GetSlotBookings(ctx, f.slot.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.Equal(t, models.StatusConfirmed, bookings[0].Status)
	assert.Equal(t, models.StatusCancelled, bookings[1].Status)
	assert.Equal(t, models.StatusCancelled, bookings[2].Status)

	t.Run("SecondConfirmRollsBack", func(t *testing.T) {
		err := db.ApplyStatusUpdates(ctx, []models.StatusUpdate{
			{BookingID: c.ID, Status: models.StatusPending},
			{BookingID: b.ID, Status: models.StatusConfirmed},
		})
		assert.ErrorIs(t, err, ErrConfirmedExists)

		got, err := db.GetBooking(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
	})

	t.Run("MissingBookingRollsBack", func(t *testing.T) {
		err := db.ApplyStatusUpdates(ctx, []models.StatusUpdate{
			{BookingID: c.ID, Status: models.StatusPending},
			{BookingID: 999, Status: models.StatusCancelled},
		})
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := db.GetBooking(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
	})

	assert.NoError(t, db.ApplyStatusUpdates(ctx, nil))
}

func TestApplyStatusUpdates_SkipsMissingOptional(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	a := book(t, db, f.slot.ID, f.alice.ID, "ORD-1")
	b := book(t, db, f.slot.ID, f.bob.ID, "ORD-2")
	c := book(t, db, f.slot.ID, f.carol.ID, "ORD-3")
	require.NoError(t, db.DeleteBooking(ctx, b.ID))

	updates := []models.StatusUpdate{
		{BookingID: a.ID, Status: models.StatusConfirmed},
		{BookingID: b.ID, Status: models.StatusCancelled, Optional: true},
		{BookingID: c.ID, Status: models.StatusCancelled, Optional: true},
	}
	require.NoError(t, db.ApplyStatusUpdates(ctx, updates))
	assert.False(t, updates[0].Skipped)
	assert.True(t, updates[1].Skipped)
	assert.False(t, updates[2].Skipped)

	got, err := db.GetBooking(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	got, err = db.GetBooking(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestListBookingRecords(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	a := book(t, db, f.slot.ID, f.alice.ID, "ORD-1")
	book(t, db, f.slot.ID, f.bob.ID, "ORD-2")
	require.NoError(t, db.ApplyStatusUpdates(ctx, []models.StatusUpdate{{BookingID: a.ID, Status: models.StatusConfirmed}}))

	all, err := db.ListBookingRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].User.Name)
	assert.Equal(t, "10:00", all[0].Slot.Time)
	assert.Empty(t, all[0].User.PasswordHash)

	confirmed, err := db.ListBookingRecords(ctx, models.StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "ORD-1", confirmed[0].Booking.OrderID)

	mine, err := db.ListUserBookingRecords(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "ORD-2", mine[0].Booking.OrderID)
}
