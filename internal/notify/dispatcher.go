package notify

import (
	"context"
	"fmt"

	"slotbook/internal/domain"
	"slotbook/internal/metrics"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
)

// Delivery is one notification addressed to the owner of a booking.
type Delivery struct {
	BookingID    int64
	Notification models.Notification
}

// DeliveryResult is the outcome of a single Delivery.
type DeliveryResult struct {
	BookingID int64  `json:"booking_id"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
}

// Delivered reports whether the notifier accepted the message.
func (r DeliveryResult) Delivered() bool {
	return r.Outcome == metrics.NotificationSent
}

// Dispatcher sends deliveries one after another and never fails as a whole:
// every error, including a notifier panic, is recorded on its result.
type Dispatcher struct {
	notifier domain.Notifier
	logger   *zerolog.Logger
}

func NewDispatcher(notifier domain.Notifier, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, deliveries []Delivery) []DeliveryResult {
	results := make([]DeliveryResult, 0, len(deliveries))
	for _, del := range deliveries {
		results = append(results, d.deliver(ctx, del))
	}
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, del Delivery) DeliveryResult {
	res := DeliveryResult{
		BookingID: del.BookingID,
		To:        del.Notification.To,
		Status:    del.Notification.Status,
	}

	if del.Notification.To == "" {
		res.Outcome = metrics.NotificationSkipped
		metrics.IncNotification(res.Outcome)
		d.logger.Warn().Int64("booking_id", del.BookingID).Msg("Notification skipped: no recipient")
		return res
	}

	if err := d.safeSend(ctx, del.Notification); err != nil {
		res.Outcome = metrics.NotificationFailed
		res.Error = err.Error()
		metrics.IncNotification(res.Outcome)
		d.logger.Warn().
			Err(err).
			Int64("booking_id", del.BookingID).
			Str("to", del.Notification.To).
			Str("status", del.Notification.Status).
			Msg("Failed to send booking notification")
		return res
	}

	res.Outcome = metrics.NotificationSent
	metrics.IncNotification(res.Outcome)
	return res
}

func (d *Dispatcher) safeSend(ctx context.Context, n models.Notification) (err error) {
	if d.notifier == nil {
		return fmt.Errorf("no notifier configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Send(ctx, n)
}
