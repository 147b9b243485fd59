package service

import (
	"cmp"
	"context"
	"time"

	"slotbook/internal/availability"
	"slotbook/internal/clock"
	"slotbook/internal/domain"
	"slotbook/internal/models"
	"slotbook/internal/query"

	"github.com/rs/zerolog"
)

// QueryService builds the read-only listings shown to users and administrators.
type QueryService struct {
	repo   domain.Repository
	clock  clock.Clock
	paging Paging
	logger *zerolog.Logger
}

func NewQueryService(repo domain.Repository, clk clock.Clock, paging Paging, logger *zerolog.Logger) *QueryService {
	return &QueryService{repo: repo, clock: clk, paging: paging, logger: logger}
}

func validateBookingFilter(f ListFilter) error {
	if err := validateDateFilter(f.Date); err != nil {
		return err
	}
	if f.Status != "" && !models.ValidBookingStatus(f.Status) {
		return domain.ErrInvalidStatus
	}
	return nil
}

func validateSlotFilter(f ListFilter) error {
	if err := validateDateFilter(f.Date); err != nil {
		return err
	}
	if f.Status != "" && !models.ValidSlotStatus(f.Status) {
		return domain.Validation("status must be one of available, booked, expired")
	}
	return nil
}

// ListAdminBookings returns every booking with its slot and owner.
func (s *QueryService) ListAdminBookings(ctx context.Context, f ListFilter) (models.Page[models.AdminBookingView], error) {
	if err := validateBookingFilter(f); err != nil {
		return models.Page[models.AdminBookingView]{}, err
	}
	views, err := s.adminViews(ctx, f.Status)
	if err != nil {
		return models.Page[models.AdminBookingView]{}, err
	}
	return paginate(AdminBookingPipeline(f), views, s.paging, f), nil
}

// ListConfirmedBookings returns confirmed bookings in schedule order.
func (s *QueryService) ListConfirmedBookings(ctx context.Context, f ListFilter) (models.Page[models.AdminBookingView], error) {
	if err := validateDateFilter(f.Date); err != nil {
		return models.Page[models.AdminBookingView]{}, err
	}
	views, err := s.adminViews(ctx, models.StatusConfirmed)
	if err != nil {
		return models.Page[models.AdminBookingView]{}, err
	}
	return paginate(ConfirmedBookingPipeline(f), views, s.paging, f), nil
}

// ExportAdminBookings returns the full filtered admin listing without paging.
func (s *QueryService) ExportAdminBookings(ctx context.Context, f ListFilter) ([]models.AdminBookingView, error) {
	if err := validateBookingFilter(f); err != nil {
		return nil, err
	}
	views, err := s.adminViews(ctx, f.Status)
	if err != nil {
		return nil, err
	}
	return AdminBookingPipeline(f).Run(views), nil
}

func (s *QueryService) adminViews(ctx context.Context, status string) ([]models.AdminBookingView, error) {
	records, err := s.repo.ListBookingRecords(ctx, status)
	if err != nil {
		return nil, storeErr(err, nil, "failed to list bookings")
	}
	views := make([]models.AdminBookingView, 0, len(records))
	for _, r := range records {
		views = append(views, models.NewAdminBookingView(r))
	}
	return views, nil
}

func matchAdminBooking(f ListFilter) func(models.AdminBookingView) bool {
	search := normalizeSearch(f.Search)
	return func(v models.AdminBookingView) bool {
		if f.Status != "" && v.Status != f.Status {
			return false
		}
		if f.Date != "" && v.Slot.Date != f.Date {
			return false
		}
		return query.ContainsFold(search, v.User.Name, v.User.Email, v.OrderID, v.Slot.Date, v.Slot.Time)
	}
}

// AdminBookingPipeline orders by status priority, then schedule, creation
// time and id.
func AdminBookingPipeline(f ListFilter) query.Pipeline[models.AdminBookingView] {
	return query.New[models.AdminBookingView]().
		Match(matchAdminBooking(f)).
		SortBy(query.Then(
			func(a, b models.AdminBookingView) int {
				return cmp.Compare(models.BookingStatusPriority(a.Status), models.BookingStatusPriority(b.Status))
			},
			func(a, b models.AdminBookingView) int {
				return compareSlotTime(a.Slot.Date, a.Slot.Time, b.Slot.Date, b.Slot.Time)
			},
			func(a, b models.AdminBookingView) int { return a.CreatedAt.Compare(b.CreatedAt) },
			func(a, b models.AdminBookingView) int { return cmp.Compare(a.ID, b.ID) },
		))
}

func ConfirmedBookingPipeline(f ListFilter) query.Pipeline[models.AdminBookingView] {
	f.Status = models.StatusConfirmed
	return query.New[models.AdminBookingView]().
		Match(matchAdminBooking(f)).
		SortBy(func(a, b models.AdminBookingView) int {
			return cmp.Or(
				compareSlotTime(a.Slot.Date, a.Slot.Time, b.Slot.Date, b.Slot.Time),
				cmp.Compare(a.ID, b.ID),
			)
		})
}

// ListAdminSlots returns every slot with its bookings and derived status.
func (s *QueryService) ListAdminSlots(ctx context.Context, f ListFilter) (models.Page[models.SlotView], error) {
	if err := validateSlotFilter(f); err != nil {
		return models.Page[models.SlotView]{}, err
	}
	rows, err := s.repo.ListSlotsWithBookings(ctx, f.Date)
	if err != nil {
		return models.Page[models.SlotView]{}, storeErr(err, nil, "failed to list slots")
	}

	now := s.clock.Now()
	views := make([]models.SlotView, 0, len(rows))
	for _, row := range rows {
		ev := s.evaluate(row, now, 0)
		v := slotView(row.Slot, ev)
		v.Bookings = row.Bookings
		if v.Bookings == nil {
			v.Bookings = []models.Booking{}
		}
		views = append(views, v)
	}

	return paginate(AdminSlotPipeline(f), views, s.paging, f), nil
}

// ListUserSlots returns the slots a user may still see: slots they already
// booked and slots that have passed are hidden.
func (s *QueryService) ListUserSlots(ctx context.Context, userID int64, f ListFilter) (models.Page[models.SlotView], error) {
	if err := validateSlotFilter(f); err != nil {
		return models.Page[models.SlotView]{}, err
	}
	views, err := s.userSlotViews(ctx, userID, f.Date)
	if err != nil {
		return models.Page[models.SlotView]{}, err
	}
	return paginate(UserSlotPipeline(f), views, s.paging, f), nil
}

// ListAvailableSlots returns only the slots userID can book right now.
func (s *QueryService) ListAvailableSlots(ctx context.Context, userID int64, date string) ([]models.SlotView, error) {
	if err := validateDateFilter(date); err != nil {
		return nil, err
	}
	views, err := s.userSlotViews(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	return query.New[models.SlotView]().
		Match(func(v models.SlotView) bool { return v.CanBook }).
		SortBy(compareSlotViews).
		Run(views), nil
}

func (s *QueryService) userSlotViews(ctx context.Context, userID int64, date string) ([]models.SlotView, error) {
	rows, err := s.repo.ListSlotsWithBookings(ctx, date)
	if err != nil {
		return nil, storeErr(err, nil, "failed to list slots")
	}

	now := s.clock.Now()
	views := make([]models.SlotView, 0, len(rows))
	for _, row := range rows {
		ev := s.evaluate(row, now, userID)
		if ev.OwnBooking || ev.Expired {
			continue
		}
		views = append(views, slotView(row.Slot, ev))
	}
	return views, nil
}

func (s *QueryService) evaluate(row models.SlotWithBookings, now time.Time, viewerID int64) availability.Evaluation {
	if !validDate(row.Slot.Date) || !validTime(row.Slot.Time) {
		s.logger.Warn().
			Int64("slot_id", row.Slot.ID).
			Str("date", row.Slot.Date).
			Str("time", row.Slot.Time).
			Msg("Slot has malformed date or time, treating as expired")
	}
	return availability.Evaluate(row.Slot, row.Bookings, now, viewerID)
}

func slotView(slot models.Slot, ev availability.Evaluation) models.SlotView {
	return models.SlotView{
		ID:      slot.ID,
		Date:    slot.Date,
		Time:    slot.Time,
		Status:  ev.Status,
		Booked:  ev.Booked,
		Expired: ev.Expired,
		CanBook: ev.CanBook,
	}
}

func compareSlotViews(a, b models.SlotView) int {
	return cmp.Or(
		compareSlotTime(a.Date, a.Time, b.Date, b.Time),
		cmp.Compare(a.ID, b.ID),
	)
}

func matchSlot(f ListFilter) func(models.SlotView) bool {
	search := normalizeSearch(f.Search)
	return func(v models.SlotView) bool {
		if f.Status != "" && v.Status != f.Status {
			return false
		}
		return query.ContainsFold(search, v.Date, v.Time)
	}
}

func bySlotPriority(a, b models.SlotView) int {
	return cmp.Compare(models.SlotStatusPriority(a.Status), models.SlotStatusPriority(b.Status))
}

// AdminSlotPipeline orders available, booked, expired, then by schedule.
func AdminSlotPipeline(f ListFilter) query.Pipeline[models.SlotView] {
	return query.New[models.SlotView]().
		Match(matchSlot(f)).
		SortBy(query.Then(bySlotPriority, compareSlotViews))
}

// UserSlotPipeline lists available slots before booked ones.
func UserSlotPipeline(f ListFilter) query.Pipeline[models.SlotView] {
	return AdminSlotPipeline(f)
}
