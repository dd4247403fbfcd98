package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bouncehire/backend/internal/storage/models"
)

// bookingColumns is the canonical column list shared by every booking query.
const bookingColumns = `id, reference, castle_id, castle_name, event_date, start_time, end_time,
	       start_at, end_at, status, total_pence, deposit_pence,
	       customer_name, customer_phone, customer_email, payment_method, notes,
	       calendar_event_id, sync_status, last_synced_at, created_at, updated_at`

// BookingRepository provides data access for bookings.
type BookingRepository struct {
	BaseRepository
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new booking. ID, reference and timestamps are filled in
// when absent.
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = GenerateID()
	}
	if b.Reference == "" {
		b.Reference = GenerateReference(b.EventDate)
	}
	if b.Status == "" {
		b.Status = models.BookingStatusPending
	}
	if b.SyncStatus == "" {
		b.SyncStatus = models.SyncStatusPendingSync
	}
	b.CreatedAt = r.Now()
	b.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO bookings (
			id, reference, castle_id, castle_name, event_date, start_time, end_time,
			start_at, end_at, status, total_pence, deposit_pence,
			customer_name, customer_phone, customer_email, payment_method, notes,
			calendar_event_id, sync_status, last_synced_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID, b.Reference, b.CastleID, b.CastleName, b.EventDate, b.StartTime, b.EndTime,
		b.StartAt, b.EndAt, b.Status, b.TotalPence, b.DepositPence,
		b.CustomerName, b.CustomerPhone, b.CustomerEmail, b.PaymentMethod, b.Notes,
		b.CalendarEventID, b.SyncStatus, b.LastSyncedAt, b.CreatedAt, b.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by its ID. Returns (nil, nil) when absent.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE id = ?
	`, id)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking: %w", err)
	}

	return b, nil
}

// GetByReference retrieves a booking by its human-readable reference.
func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE reference = ?
	`, reference)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking by reference: %w", err)
	}

	return b, nil
}

// GetByCalendarEventID retrieves the booking linked to a calendar event.
func (r *BookingRepository) GetByCalendarEventID(ctx context.Context, eventID string) (*models.Booking, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE calendar_event_id = ?
	`, eventID)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking by calendar event: %w", err)
	}

	return b, nil
}

// ListByStatus retrieves all bookings with the given status. An empty status
// returns every booking.
func (r *BookingRepository) ListByStatus(ctx context.Context, status string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY event_date, start_time`

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bookings by status: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListActiveOnDate retrieves pending and confirmed bookings on a calendar day,
// across all castles. This is the input set for conflict detection.
func (r *BookingRepository) ListActiveOnDate(ctx context.Context, date string) ([]models.Booking, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE event_date = ? AND status IN (?, ?)
		ORDER BY start_time
	`, date, models.BookingStatusPending, models.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("querying active bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListActiveInRange retrieves pending and confirmed bookings for a castle
// between two dates inclusive.
func (r *BookingRepository) ListActiveInRange(ctx context.Context, castleID, from, to string) ([]models.Booking, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE castle_id = ? AND event_date >= ? AND event_date <= ? AND status IN (?, ?)
		ORDER BY event_date, start_time
	`, castleID, from, to, models.BookingStatusPending, models.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("querying bookings in range: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListLinked retrieves the reconciliation working set: every active booking,
// plus cancelled or expired ones that still hold a calendar event link so the
// sweep can remove their mirror events. Completed bookings keep their events
// as calendar history.
func (r *BookingRepository) ListLinked(ctx context.Context) ([]models.Booking, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status IN (?, ?)
		   OR (status IN (?, ?) AND calendar_event_id IS NOT NULL)
		ORDER BY event_date, start_time
	`, models.BookingStatusPending, models.BookingStatusConfirmed,
		models.BookingStatusCancelled, models.BookingStatusExpired)
	if err != nil {
		return nil, fmt.Errorf("querying linked bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListPendingBefore retrieves pending bookings created before the cutoff.
func (r *BookingRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = ? AND created_at < ?
		ORDER BY created_at
	`, models.BookingStatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying stale pending bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// Query retrieves bookings matching the supplied filters plus the total count
// before limit/offset are applied.
func (r *BookingRepository) Query(ctx context.Context, q models.BookingQuery) ([]models.Booking, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if q.Status != "" {
		where += " AND status = ?"
		args = append(args, q.Status)
	}
	if q.CastleID != "" {
		where += " AND castle_id = ?"
		args = append(args, q.CastleID)
	}
	if q.DateFrom != "" {
		where += " AND event_date >= ?"
		args = append(args, q.DateFrom)
	}
	if q.DateTo != "" {
		where += " AND event_date <= ?"
		args = append(args, q.DateTo)
	}

	var total int
	if err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting bookings: %w", err)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY event_date DESC, start_time`
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// Update rewrites the customer, time and money fields of a booking.
// Status and sync metadata are updated through their dedicated methods.
func (r *BookingRepository) Update(ctx context.Context, b *models.Booking) error {
	b.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE bookings SET
			castle_id = ?, castle_name = ?, event_date = ?, start_time = ?, end_time = ?,
			start_at = ?, end_at = ?, total_pence = ?, deposit_pence = ?,
			customer_name = ?, customer_phone = ?, customer_email = ?,
			payment_method = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`,
		b.CastleID, b.CastleName, b.EventDate, b.StartTime, b.EndTime,
		b.StartAt, b.EndAt, b.TotalPence, b.DepositPence,
		b.CustomerName, b.CustomerPhone, b.CustomerEmail,
		b.PaymentMethod, b.Notes, b.UpdatedAt, b.ID,
	)

	if err != nil {
		return fmt.Errorf("updating booking: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("booking not found: %s", b.ID)
	}

	return nil
}

// UpdateStatus moves a booking from one status to another. The update is
// conditional on the current status, which keeps concurrent sweeps from
// racing each other on the same row.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, toStatus, r.Now(), id, fromStatus)

	if err != nil {
		return fmt.Errorf("updating booking status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("booking %s is not in status %q", id, fromStatus)
	}

	return nil
}

// SetStatus overwrites a booking's status unconditionally (admin overrides).
func (r *BookingRepository) SetStatus(ctx context.Context, id, status string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?
	`, status, r.Now(), id)

	if err != nil {
		return fmt.Errorf("setting booking status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("booking not found: %s", id)
	}

	return nil
}

// UpdateSyncState records the outcome of a calendar sync attempt. A nil
// eventID clears the calendar link. On a successful sync updated_at is
// stamped with the sync instant itself: change detection compares the two
// columns, and a freshly synced booking must not read as locally modified.
func (r *BookingRepository) UpdateSyncState(ctx context.Context, id string, eventID *string, syncStatus string, syncedAt *time.Time) error {
	updatedAt := r.Now()
	if syncedAt != nil {
		updatedAt = *syncedAt
	}

	_, err := r.DB().ExecContext(ctx, `
		UPDATE bookings SET calendar_event_id = ?, sync_status = ?, last_synced_at = ?, updated_at = ?
		WHERE id = ?
	`, eventID, syncStatus, syncedAt, updatedAt, id)

	if err != nil {
		return fmt.Errorf("updating booking sync state: %w", err)
	}

	return nil
}

// MarkSyncStatus updates only the sync status flag, leaving the event link
// and last-synced timestamp untouched.
func (r *BookingRepository) MarkSyncStatus(ctx context.Context, id, syncStatus string) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE bookings SET sync_status = ?, updated_at = ? WHERE id = ?
	`, syncStatus, r.Now(), id)

	if err != nil {
		return fmt.Errorf("marking booking sync status: %w", err)
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helper.
type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := s.Scan(
		&b.ID, &b.Reference, &b.CastleID, &b.CastleName, &b.EventDate, &b.StartTime, &b.EndTime,
		&b.StartAt, &b.EndAt, &b.Status, &b.TotalPence, &b.DepositPence,
		&b.CustomerName, &b.CustomerPhone, &b.CustomerEmail, &b.PaymentMethod, &b.Notes,
		&b.CalendarEventID, &b.SyncStatus, &b.LastSyncedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
