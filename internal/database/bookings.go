package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"slotbook/internal/models"
)

const bookingColumns = `id, slot_id, user_id, order_id, status, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(&b.ID, &b.SlotID, &b.UserID, &b.OrderID, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	return b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				slot_id, user_id, order_id, status, notes, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	result, err := db.ExecContext(ctx, query,
		booking.SlotID,
		booking.UserID,
		booking.OrderID,
		booking.Status,
		booking.Notes,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// HasBooking reports whether the user holds a booking of any status on the slot.
func (db *DB) HasBooking(ctx context.Context, userID, slotID int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE user_id = ? AND slot_id = ?)`,
		userID, slotID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check booking: %w", err)
	}
	return exists, nil
}

// FindConfirmedBooking returns the confirmed booking on the slot other than
// excludeID, or ErrNotFound.
func (db *DB) FindConfirmedBooking(ctx context.Context, slotID, excludeID int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE slot_id = ? AND status = ? AND id != ? LIMIT 1`,
		slotID, models.StatusConfirmed, excludeID)
	b, err := scanBooking(row)
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (db *DB) GetSlotBookings(ctx context.Context, slotID int64) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE slot_id = ? ORDER BY id ASC`, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateBooking persists slot, notes and status of an existing booking.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`UPDATE bookings SET slot_id = ?, notes = ?, status = ?, updated_at = ? WHERE id = ?`,
		booking.SlotID, booking.Notes, booking.Status, now, booking.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	booking.UpdatedAt = now
	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyStatusUpdates writes every status change in one transaction. Either
// all updates are stored or none is. A missing optional row is marked
// Skipped in updates; a missing required row fails with ErrNotFound. A second
// confirmed booking on a slot fails with ErrConfirmedExists.
func (db *DB) ApplyStatusUpdates(ctx context.Context, updates []models.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	now := time.Now().UTC()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare status update: %w", err)
		}
		defer stmt.Close()

		for i := range updates {
			u := &updates[i]
			u.Skipped = false
			result, err := stmt.ExecContext(ctx, u.Status, now, u.BookingID)
			if err != nil {
				if isUniqueViolation(err) {
					return ErrConfirmedExists
				}
				return fmt.Errorf("failed to update booking %d status: %w", u.BookingID, err)
			}
			if rows, _ := result.RowsAffected(); rows == 0 {
				if u.Optional {
					u.Skipped = true
					continue
				}
				return fmt.Errorf("booking %d: %w", u.BookingID, ErrNotFound)
			}
		}
		return nil
	})
}

const recordQuery = `SELECT b.id, b.slot_id, b.user_id, b.order_id, b.status, b.notes, b.created_at, b.updated_at,
                            s.id, s.date, s.time, s.created_at, s.updated_at,
                            u.id, u.name, u.email, u.role, u.created_at, u.updated_at
                     FROM bookings b
                     JOIN slots s ON s.id = b.slot_id
                     JOIN users u ON u.id = b.user_id`

// ListBookingRecords joins bookings with their slot and owner. An empty
// status lists every booking.
func (db *DB) ListBookingRecords(ctx context.Context, status string) ([]models.BookingRecord, error) {
	query := recordQuery
	var args []interface{}
	if status != "" {
		query += ` WHERE b.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY b.id ASC`
	return db.queryRecords(ctx, query, args...)
}

func (db *DB) ListUserBookingRecords(ctx context.Context, userID int64) ([]models.BookingRecord, error) {
	return db.queryRecords(ctx, recordQuery+` WHERE b.user_id = ? ORDER BY b.id ASC`, userID)
}

func (db *DB) queryRecords(ctx context.Context, query string, args ...interface{}) ([]models.BookingRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	records := []models.BookingRecord{}
	for rows.Next() {
		var r models.BookingRecord
		err := rows.Scan(
			&r.Booking.ID, &r.Booking.SlotID, &r.Booking.UserID, &r.Booking.OrderID,
			&r.Booking.Status, &r.Booking.Notes, &r.Booking.CreatedAt, &r.Booking.UpdatedAt,
			&r.Slot.ID, &r.Slot.Date, &r.Slot.Time, &r.Slot.CreatedAt, &r.Slot.UpdatedAt,
			&r.User.ID, &r.User.Name, &r.User.Email, &r.User.Role, &r.User.CreatedAt, &r.User.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
