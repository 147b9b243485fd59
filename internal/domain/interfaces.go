package domain

import (
	"context"
	"time"

	"slotbook/internal/models"
)

type Repository interface {
	SlotRepository
	BookingRepository
	UserRepository
	PingContext(ctx context.Context) error
}

type SlotRepository interface {
	CreateSlot(ctx context.Context, slot *models.Slot) error
	GetSlot(ctx context.Context, id int64) (*models.Slot, error)
	UpdateSlot(ctx context.Context, slot *models.Slot) error
	DeleteSlot(ctx context.Context, id int64) error
	ListSlots(ctx context.Context, date string) ([]*models.Slot, error)
	ListSlotsWithBookings(ctx context.Context, date string) ([]models.SlotWithBookings, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	HasBooking(ctx context.Context, userID, slotID int64) (bool, error)
	FindConfirmedBooking(ctx context.Context, slotID, excludeID int64) (*models.Booking, error)
	GetSlotBookings(ctx context.Context, slotID int64) ([]*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, id int64) error
	ApplyStatusUpdates(ctx context.Context, updates []models.StatusUpdate) error
	ListBookingRecords(ctx context.Context, status string) ([]models.BookingRecord, error)
	ListUserBookingRecords(ctx context.Context, userID int64) ([]models.BookingRecord, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUserSummaries(ctx context.Context, role string) ([]models.UserSummary, error)
	CountConfirmedBookings(ctx context.Context, userID int64) (int, error)
}

// RateLimitRepository counts events per user inside a sliding window.
type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier delivers a single notification; callers decide how to treat failures.
type Notifier interface {
	Send(ctx context.Context, n models.Notification) error
}
