package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"slotbook/internal/models"
)

const slotColumns = `id, date, time, created_at, updated_at`

func (db *DB) CreateSlot(ctx context.Context, slot *models.Slot) error {
	query := `INSERT INTO slots (date, time, created_at, updated_at) VALUES (?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query, slot.Date, slot.Time, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("failed to create slot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	slot.ID = id
	slot.CreatedAt = now
	slot.UpdatedAt = now
	return nil
}

func (db *DB) GetSlot(ctx context.Context, id int64) (*models.Slot, error) {
	var s models.Slot
	err := db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id).
		Scan(&s.ID, &s.Date, &s.Time, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (db *DB) UpdateSlot(ctx context.Context, slot *models.Slot) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`UPDATE slots SET date = ?, time = ?, updated_at = ? WHERE id = ?`,
		slot.Date, slot.Time, now, slot.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("failed to update slot: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	slot.UpdatedAt = now
	return nil
}

// DeleteSlot removes the slot together with its non-confirmed bookings.
// A slot holding a confirmed booking is left untouched.
func (db *DB) DeleteSlot(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var confirmed int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookings WHERE slot_id = ? AND status = ?`,
			id, models.StatusConfirmed).Scan(&confirmed)
		if err != nil {
			return fmt.Errorf("failed to check slot bookings: %w", err)
		}
		if confirmed > 0 {
			return ErrConfirmedExists
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE slot_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete slot bookings: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete slot: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListSlots returns slots ordered by date and time; an empty date lists all.
func (db *DB) ListSlots(ctx context.Context, date string) ([]*models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots`
	var args []interface{}
	if date != "" {
		query += ` WHERE date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY date ASC, time ASC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	slots := []*models.Slot{}
	for rows.Next() {
		s := &models.Slot{}
		if err := rows.Scan(&s.ID, &s.Date, &s.Time, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ListSlotsWithBookings loads slots and attaches every booking referencing them.
func (db *DB) ListSlotsWithBookings(ctx context.Context, date string) ([]models.SlotWithBookings, error) {
	slots, err := db.ListSlots(ctx, date)
	if err != nil {
		return nil, err
	}

	query := `SELECT b.id, b.slot_id, b.user_id, b.order_id, b.status, b.notes, b.created_at, b.updated_at
              FROM bookings b JOIN slots s ON s.id = b.slot_id`
	var args []interface{}
	if date != "" {
		query += ` WHERE s.date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY b.id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot bookings: %w", err)
	}
	defer rows.Close()

	bySlot := make(map[int64][]models.Booking)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bySlot[b.SlotID] = append(bySlot[b.SlotID], *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]models.SlotWithBookings, 0, len(slots))
	for _, s := range slots {
		result = append(result, models.SlotWithBookings{Slot: *s, Bookings: bySlot[s.ID]})
	}
	return result, nil
}
