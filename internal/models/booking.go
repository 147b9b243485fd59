package models

import "time"

type Booking struct {
	ID        int64     `json:"id"`
	SlotID    int64     `json:"slot_id"`
	UserID    int64     `json:"user_id"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"` // pending, confirmed, cancelled
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsConfirmed reports whether the booking holds its slot.
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// BookingRecord is a booking joined with its slot and owner.
type BookingRecord struct {
	Booking Booking `json:"booking"`
	Slot    Slot    `json:"slot"`
	User    User    `json:"user"`
}

// StatusUpdate is a single pending write of a booking status.
type StatusUpdate struct {
	BookingID int64
	Status    string
	// Optional updates may target a row deleted since they were computed.
	Optional bool
	// Skipped is set by the store when an optional row no longer exists.
	Skipped bool
}
