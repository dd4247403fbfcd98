package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bouncehire/backend/internal/storage/models"
)

// ConflictRepository provides data access for calendar sync conflicts.
type ConflictRepository struct {
	BaseRepository
}

// NewConflictRepository creates a new sync conflict repository.
func NewConflictRepository(db *DB) *ConflictRepository {
	return &ConflictRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create records a newly detected conflict.
func (r *ConflictRepository) Create(ctx context.Context, c *models.SyncConflict) error {
	if c.ID == "" {
		c.ID = GenerateID()
	}
	c.DetectedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO sync_conflicts (id, booking_id, conflict_type, booking_snapshot, event_snapshot, resolved, detected_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, c.ID, c.BookingID, c.ConflictType, c.BookingSnapshot, c.EventSnapshot, c.DetectedAt)

	if err != nil {
		return fmt.Errorf("inserting sync conflict: %w", err)
	}

	return nil
}

// GetByID retrieves a conflict by ID. Returns (nil, nil) when absent.
func (r *ConflictRepository) GetByID(ctx context.Context, id string) (*models.SyncConflict, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT id, booking_id, conflict_type, booking_snapshot, event_snapshot,
		       resolved, resolution_strategy, detected_at, resolved_at
		FROM sync_conflicts WHERE id = ?
	`, id)

	c, err := scanConflict(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sync conflict: %w", err)
	}

	return c, nil
}

// GetOpenByBooking retrieves the unresolved conflict for a booking, if any.
func (r *ConflictRepository) GetOpenByBooking(ctx context.Context, bookingID string) (*models.SyncConflict, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT id, booking_id, conflict_type, booking_snapshot, event_snapshot,
		       resolved, resolution_strategy, detected_at, resolved_at
		FROM sync_conflicts
		WHERE booking_id = ? AND resolved = 0
		ORDER BY detected_at DESC LIMIT 1
	`, bookingID)

	c, err := scanConflict(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying open conflict: %w", err)
	}

	return c, nil
}

// ListUnresolved retrieves all unresolved conflicts, newest first.
func (r *ConflictRepository) ListUnresolved(ctx context.Context) ([]models.SyncConflict, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, booking_id, conflict_type, booking_snapshot, event_snapshot,
		       resolved, resolution_strategy, detected_at, resolved_at
		FROM sync_conflicts WHERE resolved = 0 ORDER BY detected_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying unresolved conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []models.SyncConflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sync conflict: %w", err)
		}
		conflicts = append(conflicts, *c)
	}

	return conflicts, rows.Err()
}

// Resolve marks a conflict resolved and records the strategy used.
func (r *ConflictRepository) Resolve(ctx context.Context, id, strategy string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE sync_conflicts SET resolved = 1, resolution_strategy = ?, resolved_at = ?
		WHERE id = ? AND resolved = 0
	`, strategy, r.Now(), id)

	if err != nil {
		return fmt.Errorf("resolving sync conflict: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("open sync conflict not found: %s", id)
	}

	return nil
}

func scanConflict(s scanner) (*models.SyncConflict, error) {
	c := &models.SyncConflict{}
	err := s.Scan(
		&c.ID, &c.BookingID, &c.ConflictType, &c.BookingSnapshot, &c.EventSnapshot,
		&c.Resolved, &c.ResolutionStrategy, &c.DetectedAt, &c.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
