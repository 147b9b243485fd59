package models

import "time"

// UserBookingView is a booking as its owner sees it.
type UserBookingView struct {
	ID        int64  `json:"id"`
	OrderID   string `json:"order_id"`
	SlotID    int64  `json:"slot_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    string `json:"status"`
	HasBook   bool   `json:"has_book"`
	Cancelled bool   `json:"cancelled"`
	Notes     string `json:"notes"`
}

// AdminBookingView is a booking row in the administrator listing.
type AdminBookingView struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Slot      SlotRef   `json:"slot"`
	User      UserRef   `json:"user"`
}

type SlotRef struct {
	ID   int64  `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
}

type UserRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SlotView is a slot decorated with its derived availability.
type SlotView struct {
	ID       int64     `json:"id"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Status   string    `json:"status"`
	Booked   bool      `json:"booked"`
	Expired  bool      `json:"expired"`
	CanBook  bool      `json:"can_book"`
	Bookings []Booking `json:"bookings,omitempty"`
}

// Page is a slice of results together with pagination metadata.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewAdminBookingView flattens a joined record.
func NewAdminBookingView(r BookingRecord) AdminBookingView {
	return AdminBookingView{
		ID:        r.Booking.ID,
		OrderID:   r.Booking.OrderID,
		Status:    r.Booking.Status,
		Notes:     r.Booking.Notes,
		CreatedAt: r.Booking.CreatedAt,
		UpdatedAt: r.Booking.UpdatedAt,
		Slot:      SlotRef{ID: r.Slot.ID, Date: r.Slot.Date, Time: r.Slot.Time},
		User:      UserRef{ID: r.User.ID, Name: r.User.Name, Email: r.User.Email},
	}
}

// NewUserBookingView derives the owner-facing flags from the stored status.
func NewUserBookingView(b Booking, s Slot) UserBookingView {
	return UserBookingView{
		ID:        b.ID,
		OrderID:   b.OrderID,
		SlotID:    s.ID,
		Date:      s.Date,
		Time:      s.Time,
		Status:    b.Status,
		HasBook:   b.Status == StatusConfirmed,
		Cancelled: b.Status == StatusCancelled,
		Notes:     b.Notes,
	}
}
