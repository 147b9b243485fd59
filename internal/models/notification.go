package models

// Notification is an outgoing message about a booking status change.
type Notification struct {
	To       string `json:"to"`
	Name     string `json:"name"`
	SlotDate string `json:"slot_date"`
	SlotTime string `json:"slot_time"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"` // "Confirmed", "Cancelled"
}

const (
	NotifyConfirmed = "Confirmed"
	NotifyCancelled = "Cancelled"
)
