package service

import (
	"cmp"
	"context"
	"errors"
	"strings"
	"time"

	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
)

// SlotService manages the administrator-defined time slots.
type SlotService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewSlotService(repo domain.Repository, logger *zerolog.Logger) *SlotService {
	return &SlotService{repo: repo, logger: logger}
}

// validDate reports whether s is a real calendar date in YYYY-MM-DD form.
func validDate(s string) bool {
	return strictParse(models.DateLayout, s)
}

// validTime reports whether s is a zero-padded HH:mm clock time.
func validTime(s string) bool {
	return strictParse(models.TimeLayout, s)
}

// time.Parse accepts single-digit hours; round-tripping rejects them.
func strictParse(layout, s string) bool {
	t, err := time.Parse(layout, s)
	return err == nil && t.Format(layout) == s
}

func validateSlotInput(date, clockTime string) error {
	if !validDate(date) {
		return domain.Validation("date must be in YYYY-MM-DD format")
	}
	if !validTime(clockTime) {
		return domain.Validation("time must be in HH:mm format")
	}
	return nil
}

func (s *SlotService) Create(ctx context.Context, date, clockTime string) (*models.Slot, error) {
	date, clockTime = strings.TrimSpace(date), strings.TrimSpace(clockTime)
	if err := validateSlotInput(date, clockTime); err != nil {
		return nil, err
	}

	slot := &models.Slot{Date: date, Time: clockTime}
	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, domain.ErrSlotExists
		}
		return nil, storeErr(err, nil, "failed to create slot")
	}

	s.logger.Info().Int64("slot_id", slot.ID).Str("date", date).Str("time", clockTime).Msg("Slot created")
	return slot, nil
}

// Update reschedules a slot that nobody holds a confirmed booking on.
func (s *SlotService) Update(ctx context.Context, id int64, date, clockTime string) (*models.Slot, error) {
	date, clockTime = strings.TrimSpace(date), strings.TrimSpace(clockTime)
	if err := validateSlotInput(date, clockTime); err != nil {
		return nil, err
	}

	slot, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		return nil, storeErr(err, domain.ErrSlotNotFound, "failed to load slot")
	}
	if err := s.ensureUnlocked(ctx, id); err != nil {
		return nil, err
	}

	slot.Date, slot.Time = date, clockTime
	if err := s.repo.UpdateSlot(ctx, slot); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, domain.ErrSlotExists
		}
		return nil, storeErr(err, domain.ErrSlotNotFound, "failed to update slot")
	}

	s.logger.Info().Int64("slot_id", id).Str("date", date).Str("time", clockTime).Msg("Slot updated")
	return slot, nil
}

// Delete removes a slot together with its non-confirmed bookings.
func (s *SlotService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSlot(ctx, id); err != nil {
		if errors.Is(err, database.ErrConfirmedExists) {
			return domain.ErrSlotLocked
		}
		return storeErr(err, domain.ErrSlotNotFound, "failed to delete slot")
	}
	s.logger.Info().Int64("slot_id", id).Msg("Slot deleted")
	return nil
}

func (s *SlotService) ensureUnlocked(ctx context.Context, id int64) error {
	_, err := s.repo.FindConfirmedBooking(ctx, id, 0)
	switch {
	case err == nil:
		return domain.ErrSlotLocked
	case errors.Is(err, database.ErrNotFound):
		return nil
	default:
		return storeErr(err, nil, "failed to check slot lock")
	}
}

// List returns every slot ordered by date and time, optionally for one date.
func (s *SlotService) List(ctx context.Context, date string) ([]*models.Slot, error) {
	if err := validateDateFilter(date); err != nil {
		return nil, err
	}
	slots, err := s.repo.ListSlots(ctx, date)
	if err != nil {
		return nil, storeErr(err, nil, "failed to list slots")
	}
	if slots == nil {
		slots = []*models.Slot{}
	}
	return slots, nil
}

func compareSlotTime(aDate, aTime, bDate, bTime string) int {
	return cmp.Or(cmp.Compare(aDate, bDate), cmp.Compare(aTime, bTime))
}
