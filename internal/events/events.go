package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"slotbook/internal/models"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingUpdated       = "booking_updated"
	EventBookingDeleted       = "booking_deleted"
	EventBookingConfirmed     = "booking_confirmed"
	EventBookingCancelled     = "booking_cancelled"
	EventBookingStatusChanged = "booking_status_changed"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64  `json:"booking_id"`
	OrderID     string `json:"order_id"`
	SlotID      int64  `json:"slot_id"`
	UserID      int64  `json:"user_id"`
	Status      string `json:"status"`
	Cascaded    bool   `json:"cascaded,omitempty"`
	ChangedBy   string `json:"changed_by,omitempty"`
	ChangedByID int64  `json:"changed_by_id,omitempty"`
}

// NewBookingPayload snapshots b as changed by the given actor.
func NewBookingPayload(b *models.Booking, changedBy string, changedByID int64) BookingEventPayload {
	return BookingEventPayload{
		BookingID:   b.ID,
		OrderID:     b.OrderID,
		SlotID:      b.SlotID,
		UserID:      b.UserID,
		Status:      b.Status,
		ChangedBy:   changedBy,
		ChangedByID: changedByID,
	}
}

// StatusEvent maps a booking status to the event announcing it.
func StatusEvent(status string) string {
	switch status {
	case models.StatusConfirmed:
		return EventBookingConfirmed
	case models.StatusCancelled:
		return EventBookingCancelled
	default:
		return EventBookingStatusChanged
	}
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers handler for each of the event types.
func (b *EventBus) SubscribeAll(handler EventHandler, eventTypes ...string) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type. Every handler runs even
// when an earlier one fails; the failures are joined.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
