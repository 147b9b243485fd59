package service

import (
	"errors"
	"strings"

	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/models"
	"slotbook/internal/query"

	"github.com/rs/zerolog"
)

// ListFilter carries the paging and filtering parameters of a listing.
type ListFilter struct {
	Page   int
	Limit  int
	Date   string
	Search string
	Status string
}

// Paging bounds the page size of every listing.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Paging) normalize(f ListFilter) (int, int) {
	def, max := p.DefaultLimit, p.MaxLimit
	if def <= 0 {
		def = models.DefaultPageSize
	}
	if max <= 0 {
		max = models.MaxPageSize
	}
	return query.NormalizePage(f.Page, f.Limit, def, max)
}

// paginate runs p over rows and wraps the current page with its metadata.
func paginate[T any](p query.Pipeline[T], rows []T, paging Paging, f ListFilter) models.Page[T] {
	page, limit := paging.normalize(f)
	return models.Page[T]{
		Items: p.Paginate(page, limit).Run(rows),
		Total: p.Count(rows),
		Page:  page,
		Limit: limit,
	}
}

// storeErr maps a storage failure to a domain error. database.ErrNotFound
// becomes notFound; anything else is unexpected.
func storeErr(err error, notFound *domain.Error, msg string) error {
	if notFound != nil && errors.Is(err, database.ErrNotFound) {
		return notFound
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return domain.Unexpected(msg, err)
}

func validateDateFilter(date string) error {
	if date == "" {
		return nil
	}
	if !validDate(date) {
		return domain.Validation("date must be in YYYY-MM-DD format")
	}
	return nil
}

func normalizeSearch(s string) string {
	return strings.TrimSpace(s)
}

func publish(bus domain.EventPublisher, logger *zerolog.Logger, eventType string, payload interface{}) {
	if bus == nil {
		return
	}
	if err := bus.PublishJSON(eventType, payload); err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
