package models

import "time"

type Slot struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:mm in the reference timezone
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotWithBookings groups a slot with every booking that references it.
type SlotWithBookings struct {
	Slot     Slot      `json:"slot"`
	Bookings []Booking `json:"bookings"`
}
