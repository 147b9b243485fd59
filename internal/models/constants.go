package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
	SlotExpired   = "expired"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	// DateLayout формат даты слота
	DateLayout = "2006-01-02"

	// TimeLayout формат времени слота
	TimeLayout = "15:04"

	// ReferenceTimezone часовой пояс, в котором интерпретируется время слота
	ReferenceTimezone = "Asia/Phnom_Penh"

	// ReferenceOffset смещение часового пояса, если tzdata недоступна
	ReferenceOffset = 7 * 60 * 60

	// DefaultPageSize размер страницы по умолчанию
	DefaultPageSize = 20

	// MaxPageSize верхняя граница размера страницы
	MaxPageSize = 100

	// OrderIDPrefix префикс номера заказа
	OrderIDPrefix = "ORD-"
)

// unknownPriority sorts unrecognised statuses last.
const unknownPriority = 99

// BookingStatusPriority orders booking listings: pending, confirmed, cancelled.
func BookingStatusPriority(status string) int {
	switch status {
	case StatusPending:
		return 1
	case StatusConfirmed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return unknownPriority
	}
}

// SlotStatusPriority orders slot listings: available, booked, expired.
func SlotStatusPriority(status string) int {
	switch status {
	case SlotAvailable:
		return 1
	case SlotBooked:
		return 2
	case SlotExpired:
		return 3
	default:
		return unknownPriority
	}
}

// ValidBookingStatus reports whether status is one of the booking lifecycle states.
func ValidBookingStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// ValidSlotStatus reports whether status is a derived slot status.
func ValidSlotStatus(status string) bool {
	switch status {
	case SlotAvailable, SlotBooked, SlotExpired:
		return true
	}
	return false
}
