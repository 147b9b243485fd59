package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"slotbook/internal/clock"
	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/metrics"
	"slotbook/internal/models"
	"slotbook/internal/query"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingOptions tunes admission control.
type BookingOptions struct {
	// CreateLimit is the number of bookings a user may create per
	// CreateWindow; zero disables the limit.
	CreateLimit  int
	CreateWindow time.Duration
	Paging       Paging
}

// BookingService admits, edits and lists bookings on behalf of their owners.
type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	limiter  domain.RateLimitRepository
	clock    clock.Clock
	opts     BookingOptions
	logger   *zerolog.Logger

	newOrderID func(now time.Time) string
}

func NewBookingService(
	repo domain.Repository,
	eventBus domain.EventPublisher,
	limiter domain.RateLimitRepository,
	clk clock.Clock,
	opts BookingOptions,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		repo:       repo,
		eventBus:   eventBus,
		limiter:    limiter,
		clock:      clk,
		opts:       opts,
		logger:     logger,
		newOrderID: NewOrderID,
	}
}

// NewOrderID returns ORD-<unix ms>-<8 hex>.
func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d-%s", models.OrderIDPrefix, now.UnixMilli(), suffix)
}

// Create admits a new pending booking for userID on slotID.
func (s *BookingService) Create(ctx context.Context, userID, slotID int64, notes string) (*models.Booking, error) {
	if err := s.checkRateLimit(ctx, userID); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetSlot(ctx, slotID); err != nil {
		return nil, storeErr(err, domain.ErrSlotNotFound, "failed to load slot")
	}

	// existence, not status: a cancelled booking still blocks the pair
	exists, err := s.repo.HasBooking(ctx, userID, slotID)
	if err != nil {
		return nil, storeErr(err, nil, "failed to check existing booking")
	}
	if exists {
		return nil, domain.ErrDuplicateBooking
	}

	if _, err := s.repo.FindConfirmedBooking(ctx, slotID, 0); err == nil {
		return nil, domain.ErrSlotAlreadyApproved
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, storeErr(err, nil, "failed to check slot confirmation")
	}

	booking := &models.Booking{
		SlotID:  slotID,
		UserID:  userID,
		OrderID: s.newOrderID(s.clock.Now()),
		Status:  models.StatusPending,
		Notes:   strings.TrimSpace(notes),
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, domain.ErrDuplicateBooking
		}
		return nil, storeErr(err, nil, "failed to create booking")
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("order_id", booking.OrderID).
		Int64("slot_id", slotID).
		Int64("user_id", userID).
		Msg("Booking created")
	metrics.IncBookingTransition(booking.Status)
	publish(s.eventBus, s.logger, events.EventBookingCreated, events.NewBookingPayload(booking, "user", userID))

	return booking, nil
}

func (s *BookingService) checkRateLimit(ctx context.Context, userID int64) error {
	if s.limiter == nil || s.opts.CreateLimit <= 0 {
		return nil
	}
	allowed, err := s.limiter.CheckRateLimit(ctx, userID, s.opts.CreateLimit, s.opts.CreateWindow)
	if err != nil {
		// limiter outage must not block bookings
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		return nil
	}
	if !allowed {
		metrics.IncRateLimited("booking_create")
		return domain.ErrTooManyRequests
	}
	return nil
}

// loadOwned fetches a booking the requestor may still change.
func (s *BookingService) loadOwned(ctx context.Context, bookingID, requestorID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, storeErr(err, domain.ErrBookingNotFound, "failed to load booking")
	}
	if booking.UserID != requestorID {
		return nil, domain.ErrForbidden
	}
	if booking.IsConfirmed() {
		return nil, domain.ErrBookingConfirmed
	}
	return booking, nil
}

// Update moves a booking to another slot and/or replaces its notes. Nil
// arguments leave the field unchanged.
func (s *BookingService) Update(ctx context.Context, bookingID, requestorID int64, newSlotID *int64, newNotes *string) (*models.Booking, error) {
	booking, err := s.loadOwned(ctx, bookingID, requestorID)
	if err != nil {
		return nil, err
	}

	if newSlotID != nil && *newSlotID != booking.SlotID {
		if _, err := s.repo.GetSlot(ctx, *newSlotID); err != nil {
			return nil, storeErr(err, domain.ErrSlotNotFound, "failed to load slot")
		}
		exists, err := s.repo.HasBooking(ctx, booking.UserID, *newSlotID)
		if err != nil {
			return nil, storeErr(err, nil, "failed to check existing booking")
		}
		if exists {
			return nil, domain.ErrDuplicateBooking
		}
		booking.SlotID = *newSlotID
	}
	if newNotes != nil {
		booking.Notes = strings.TrimSpace(*newNotes)
	}

	if err := s.repo.UpdateBooking(ctx, booking); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, domain.ErrDuplicateBooking
		}
		return nil, storeErr(err, domain.ErrBookingNotFound, "failed to update booking")
	}

	publish(s.eventBus, s.logger, events.EventBookingUpdated, events.NewBookingPayload(booking, "user", requestorID))
	return booking, nil
}

// Delete removes a booking that is not confirmed.
func (s *BookingService) Delete(ctx context.Context, bookingID, requestorID int64) error {
	booking, err := s.loadOwned(ctx, bookingID, requestorID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteBooking(ctx, bookingID); err != nil {
		return storeErr(err, domain.ErrBookingNotFound, "failed to delete booking")
	}

	s.logger.Info().Int64("booking_id", bookingID).Int64("user_id", requestorID).Msg("Booking deleted")
	publish(s.eventBus, s.logger, events.EventBookingDeleted, events.NewBookingPayload(booking, "user", requestorID))
	return nil
}

// ListForUser returns the user's bookings ordered by status priority only.
func (s *BookingService) ListForUser(ctx context.Context, userID int64, f ListFilter) (models.Page[models.UserBookingView], error) {
	if err := validateDateFilter(f.Date); err != nil {
		return models.Page[models.UserBookingView]{}, err
	}
	if f.Status != "" && !models.ValidBookingStatus(f.Status) {
		return models.Page[models.UserBookingView]{}, domain.ErrInvalidStatus
	}

	records, err := s.repo.ListUserBookingRecords(ctx, userID)
	if err != nil {
		return models.Page[models.UserBookingView]{}, storeErr(err, nil, "failed to list bookings")
	}

	views := make([]models.UserBookingView, 0, len(records))
	for _, r := range records {
		views = append(views, models.NewUserBookingView(r.Booking, r.Slot))
	}

	return paginate(UserBookingPipeline(f), views, s.opts.Paging, f), nil
}

// UserBookingPipeline filters by slot date, slot time search and status,
// then orders by status priority. The sort is stable so equal statuses
// keep store order.
func UserBookingPipeline(f ListFilter) query.Pipeline[models.UserBookingView] {
	search := normalizeSearch(f.Search)
	p := query.New[models.UserBookingView]()
	if f.Date != "" {
		p = p.Match(func(v models.UserBookingView) bool { return v.Date == f.Date })
	}
	if search != "" {
		p = p.Match(func(v models.UserBookingView) bool { return query.ContainsFold(search, v.Time) })
	}
	if f.Status != "" {
		p = p.Match(func(v models.UserBookingView) bool { return v.Status == f.Status })
	}
	return p.SortBy(func(a, b models.UserBookingView) int {
		return cmp.Compare(models.BookingStatusPriority(a.Status), models.BookingStatusPriority(b.Status))
	})
}
