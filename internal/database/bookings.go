package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"time"

	"roomboard/internal/models"
	"roomboard/internal/timetext"

	"github.com/mattn/go-sqlite3"
)

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		var (
			b        models.Booking
			startStr string
			endStr   string
		)
		if err := rows.Scan(&b.BookingID, &b.Title, &b.ResourceID, &startStr, &endStr); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		// Stored text is naive; tag it UTC before it takes part in any
		// comparison.
		start, err := timetext.FromStorage(startStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored start_time %q: %w", startStr, err)
		}
		end, err := timetext.FromStorage(endStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored end_time %q: %w", endStr, err)
		}
		b.StartTime = start
		b.EndTime = end
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetAllBookings returns every stored booking. Used by the export surfaces
// and by tests; the sync loop always queries a bounded window instead.
func (db *DB) GetAllBookings(ctx context.Context) ([]models.Booking, error) {
	query := `SELECT booking_id, title, resource_id, start_time, end_time FROM bookings`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("select bookings", err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, storageErr("select bookings", err)
	}
	return bookings, nil
}

// GetBookingsInRange returns all bookings whose interval intersects
// [start, end], both ends inclusive. Order is unspecified.
func (db *DB) GetBookingsInRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	query := `SELECT booking_id, title, resource_id, start_time, end_time FROM bookings
              WHERE start_time <= ? AND ? <= end_time`
	rows, err := db.QueryContext(ctx, query, timetext.ToStorage(end), timetext.ToStorage(start))
	if err != nil {
		return nil, storageErr("select bookings in range", err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, storageErr("select bookings in range", err)
	}
	return bookings, nil
}

// InsertBooking stores a new booking. Inserting an existing booking_id
// returns ErrDuplicateBooking.
func (db *DB) InsertBooking(ctx context.Context, booking models.Booking) error {
	query := `INSERT INTO bookings (booking_id, title, resource_id, start_time, end_time)
              VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		booking.BookingID,
		booking.Title,
		booking.ResourceID,
		timetext.ToStorage(booking.StartTime),
		timetext.ToStorage(booking.EndTime),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		// Only a key collision counts as a duplicate; other constraint
		// classes stay generic storage errors.
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%w: booking_id %d", ErrDuplicateBooking, booking.BookingID)
		}
		return storageErr("insert booking", err)
	}
	return nil
}

// InsertBookings stores each booking in turn, stopping at the first failure.
// A partial insert is acceptable: the next sync cycle re-diffs against the
// remote source and fills in whatever is missing.
func (db *DB) InsertBookings(ctx context.Context, bookings []models.Booking) error {
	for _, b := range bookings {
		if err := db.InsertBooking(ctx, b); err != nil {
			return err
		}
		db.logger.Info().
			Int64("booking_id", b.BookingID).
			Int64("resource_id", b.ResourceID).
			Time("start", b.StartTime).
			Time("end", b.EndTime).
			Msg("inserted new booking")
	}
	return nil
}

// UpdateBooking replaces all mutable fields of an existing booking.
// Returns ErrBookingNotFound if the key is absent.
func (db *DB) UpdateBooking(ctx context.Context, booking models.Booking) error {
	query := `UPDATE bookings SET title = ?, resource_id = ?, start_time = ?, end_time = ?
              WHERE booking_id = ?`
	result, err := db.ExecContext(ctx, query,
		booking.Title,
		booking.ResourceID,
		timetext.ToStorage(booking.StartTime),
		timetext.ToStorage(booking.EndTime),
		booking.BookingID,
	)
	if err != nil {
		return storageErr("update booking", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storageErr("update booking", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: booking_id %d", ErrBookingNotFound, booking.BookingID)
	}
	return nil
}

// UpdateBookings applies each update in turn, stopping at the first failure.
func (db *DB) UpdateBookings(ctx context.Context, bookings []models.Booking) error {
	for _, b := range bookings {
		if err := db.UpdateBooking(ctx, b); err != nil {
			return err
		}
		db.logger.Info().
			Int64("booking_id", b.BookingID).
			Time("start", b.StartTime).
			Time("end", b.EndTime).
			Msg("updated booking")
	}
	return nil
}

// DeleteBooking removes a booking by key. Deleting an absent key is a no-op
// success.
func (db *DB) DeleteBooking(ctx context.Context, bookingID int64) error {
	query := `DELETE FROM bookings WHERE booking_id = ?`
	if _, err := db.ExecContext(ctx, query, bookingID); err != nil {
		return storageErr("delete booking", err)
	}
	return nil
}

// DeleteBookings removes each id in turn, stopping at the first failure.
func (db *DB) DeleteBookings(ctx context.Context, bookingIDs []int64) error {
	for _, id := range bookingIDs {
		if err := db.DeleteBooking(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// PruneBefore deletes every booking whose end_time is strictly before the
// given instant and returns the number removed. The caller passes today's
// midnight: a booking that ended earlier today survives until tomorrow's
// pass, because the remote API only has day granularity and same-day entries
// would otherwise be evicted and immediately re-fetched.
func (db *DB) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM bookings WHERE end_time < ?`
	result, err := db.ExecContext(ctx, query, timetext.ToStorage(before))
	if err != nil {
		return 0, storageErr("prune bookings", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storageErr("prune bookings", err)
	}
	return affected, nil
}
