package database

import (
	"context"
	"testing"

	"slotbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_CRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := &models.User{Name: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, db.CreateUser(ctx, u))
	assert.Equal(t, models.RoleUser, u.Role)

	t.Run("UniqueName", func(t *testing.T) {
		err := db.CreateUser(ctx, &models.User{Name: "alice", Email: "other@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, ErrUniqueViolation)
	})

	t.Run("UniqueEmail", func(t *testing.T) {
		err := db.CreateUser(ctx, &models.User{Name: "other", Email: "alice@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, ErrUniqueViolation)
	})

	byEmail, err := db.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byName, err := db.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = db.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	u.Name = "alice2"
	u.Role = models.RoleAdmin
	require.NoError(t, db.UpdateUser(ctx, u))
	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Name)
	assert.True(t, got.IsAdmin())

	assert.ErrorIs(t, db.UpdateUser(ctx, &models.User{ID: 999, Name: "n", Email: "e"}), ErrNotFound)
}

func TestDeleteUser_CascadesBookings(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	b := book(t, db, f.slot.ID, f.alice.ID, "ORD-1")
	require.NoError(t, db.ApplyStatusUpdates(ctx, []models.StatusUpdate{{BookingID: b.ID, Status: models.StatusConfirmed}}))

	require.NoError(t, db.DeleteUser(ctx, f.alice.ID))

	_, err := db.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetUserByID(ctx, f.alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteUser(ctx, f.alice.ID), ErrNotFound)
}

func TestListUserSummaries(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	admin := &models.User{Name: "root", Email: "root@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, db.CreateUser(ctx, admin))

	other := &models.Slot{Date: "2025-01-11", Time: "09:00"}
	require.NoError(t, db.CreateSlot(ctx, other))

	a1 := book(t, db, f.slot.ID, f.bob.ID, "ORD-1")
	a2 := book(t, db, other.ID, f.bob.ID, "ORD-2")
	book(t, db, f.slot.ID, f.alice.ID, "ORD-3")
	require.NoError(t, db.ApplyStatusUpdates(ctx, []models.StatusUpdate{
		{BookingID: a1.ID, Status: models.StatusConfirmed},
		{BookingID: a2.ID, Status: models.StatusConfirmed},
	}))

	users, err := db.ListUserSummaries(ctx, models.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, 0, users[0].BookingCount)
	assert.Equal(t, "bob", users[1].Name)
	assert.Equal(t, 2, users[1].BookingCount)

	all, err := db.ListUserSummaries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	count, err := db.CountConfirmedBookings(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
