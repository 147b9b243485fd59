package service

import (
	"context"
	"errors"

	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/metrics"
	"slotbook/internal/models"
	"slotbook/internal/notify"

	"github.com/rs/zerolog"
)

// StatusChange reports everything a status transition touched.
type StatusChange struct {
	Booking    *models.Booking         `json:"booking"`
	Cascaded   []models.Booking        `json:"cascaded"`
	Deliveries []notify.DeliveryResult `json:"deliveries"`
}

// ReconcileService applies administrator status decisions. Confirming a
// booking cancels every other live claim on the same slot.
type ReconcileService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	dispatcher *notify.Dispatcher
	logger     *zerolog.Logger
}

func NewReconcileService(
	repo domain.Repository,
	eventBus domain.EventPublisher,
	dispatcher *notify.Dispatcher,
	logger *zerolog.Logger,
) *ReconcileService {
	return &ReconcileService{
		repo:       repo,
		eventBus:   eventBus,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SetStatus moves bookingID to target on behalf of an administrator.
// Notification failures are reported in the result, never as an error.
func (s *ReconcileService) SetStatus(ctx context.Context, actor domain.Identity, bookingID int64, target string) (*StatusChange, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !models.ValidBookingStatus(target) {
		return nil, domain.ErrInvalidStatus
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, storeErr(err, domain.ErrBookingNotFound, "failed to load booking")
	}
	slot, err := s.repo.GetSlot(ctx, booking.SlotID)
	if err != nil {
		return nil, storeErr(err, domain.ErrSlotNotFound, "failed to load slot")
	}

	if target == models.StatusConfirmed {
		return s.confirm(ctx, actor, booking, slot)
	}

	switch booking.Status {
	case models.StatusConfirmed:
		return nil, domain.ErrBookingConfirmed
	case models.StatusCancelled:
		if target != models.StatusCancelled {
			return nil, domain.ErrInvalidStatus
		}
		return unchanged(booking), nil
	}
	return s.transition(ctx, actor, booking, slot, target)
}

func (s *ReconcileService) confirm(ctx context.Context, actor domain.Identity, booking *models.Booking, slot *models.Slot) (*StatusChange, error) {
	if other, err := s.repo.FindConfirmedBooking(ctx, slot.ID, booking.ID); err == nil {
		s.logger.Warn().
			Int64("booking_id", booking.ID).
			Int64("confirmed_id", other.ID).
			Int64("slot_id", slot.ID).
			Msg("Slot already has a confirmed booking")
		return nil, domain.ErrSlotAlreadyConfirmed
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, storeErr(err, nil, "failed to check slot confirmation")
	}

	switch booking.Status {
	case models.StatusConfirmed:
		return unchanged(booking), nil
	case models.StatusCancelled:
		// cancelled is terminal
		return nil, domain.ErrInvalidStatus
	}

	siblings, err := s.repo.GetSlotBookings(ctx, slot.ID)
	if err != nil {
		return nil, storeErr(err, nil, "failed to load slot bookings")
	}

	updates := []models.StatusUpdate{{BookingID: booking.ID, Status: models.StatusConfirmed}}
	cascaded := make([]models.Booking, 0, len(siblings))
	for _, b := range siblings {
		if b.ID == booking.ID || b.Status == models.StatusCancelled {
			continue
		}
		// a competitor deleted meanwhile must not fail the confirmation
		updates = append(updates, models.StatusUpdate{BookingID: b.ID, Status: models.StatusCancelled, Optional: true})
		cascaded = append(cascaded, *b)
	}

	if err := s.repo.ApplyStatusUpdates(ctx, updates); err != nil {
		if errors.Is(err, database.ErrConfirmedExists) {
			return nil, domain.ErrSlotAlreadyConfirmed
		}
		return nil, storeErr(err, domain.ErrBookingNotFound, "failed to apply status updates")
	}

	booking.Status = models.StatusConfirmed
	applied := cascaded[:0]
	for i, b := range cascaded {
		if updates[i+1].Skipped {
			continue
		}
		b.Status = models.StatusCancelled
		applied = append(applied, b)
	}
	cascaded = applied

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("slot_id", slot.ID).
		Int("cascaded", len(cascaded)).
		Int64("admin_id", actor.UserID).
		Msg("Booking confirmed")

	s.announce(booking, actor, false)
	for i := range cascaded {
		s.announce(&cascaded[i], actor, true)
	}

	deliveries := make([]notify.Delivery, 0, len(cascaded)+1)
	deliveries = append(deliveries, s.delivery(ctx, booking, slot, models.NotifyConfirmed))
	for i := range cascaded {
		deliveries = append(deliveries, s.delivery(ctx, &cascaded[i], slot, models.NotifyCancelled))
	}

	return &StatusChange{
		Booking:    booking,
		Cascaded:   cascaded,
		Deliveries: s.dispatch(ctx, deliveries),
	}, nil
}

func unchanged(b *models.Booking) *StatusChange {
	return &StatusChange{Booking: b, Cascaded: []models.Booking{}, Deliveries: []notify.DeliveryResult{}}
}

func (s *ReconcileService) transition(ctx context.Context, actor domain.Identity, booking *models.Booking, slot *models.Slot, target string) (*StatusChange, error) {
	update := []models.StatusUpdate{{BookingID: booking.ID, Status: target}}
	if err := s.repo.ApplyStatusUpdates(ctx, update); err != nil {
		return nil, storeErr(err, domain.ErrBookingNotFound, "failed to update booking status")
	}
	booking.Status = target

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("status", target).
		Int64("admin_id", actor.UserID).
		Msg("Booking status changed")
	s.announce(booking, actor, false)

	var deliveries []notify.Delivery
	if target == models.StatusCancelled {
		deliveries = append(deliveries, s.delivery(ctx, booking, slot, models.NotifyCancelled))
	}

	return &StatusChange{
		Booking:    booking,
		Cascaded:   []models.Booking{},
		Deliveries: s.dispatch(ctx, deliveries),
	}, nil
}

func (s *ReconcileService) announce(b *models.Booking, actor domain.Identity, cascaded bool) {
	metrics.IncBookingTransition(b.Status)
	payload := events.NewBookingPayload(b, "admin", actor.UserID)
	payload.Cascaded = cascaded
	publish(s.eventBus, s.logger, events.StatusEvent(b.Status), payload)
}

// delivery addresses a notice to the booking owner. An owner that cannot
// be loaded yields a delivery without recipient, which the dispatcher skips.
func (s *ReconcileService) delivery(ctx context.Context, b *models.Booking, slot *models.Slot, status string) notify.Delivery {
	n := models.Notification{
		SlotDate: slot.Date,
		SlotTime: slot.Time,
		OrderID:  b.OrderID,
		Status:   status,
	}
	owner, err := s.repo.GetUserByID(ctx, b.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", b.ID).Int64("user_id", b.UserID).Msg("Notification recipient lookup failed")
	} else {
		n.To, n.Name = owner.Email, owner.Name
	}
	return notify.Delivery{BookingID: b.ID, Notification: n}
}

func (s *ReconcileService) dispatch(ctx context.Context, deliveries []notify.Delivery) []notify.DeliveryResult {
	if s.dispatcher == nil || len(deliveries) == 0 {
		return []notify.DeliveryResult{}
	}
	// status writes are committed; a cancelled request must not drop notices
	return s.dispatcher.Dispatch(context.WithoutCancel(ctx), deliveries)
}
