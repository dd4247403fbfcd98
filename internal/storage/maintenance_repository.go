package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bouncehire/backend/internal/storage/models"
)

// MaintenanceRepository provides data access for castle maintenance windows.
type MaintenanceRepository struct {
	BaseRepository
}

// NewMaintenanceRepository creates a new maintenance repository.
func NewMaintenanceRepository(db *DB) *MaintenanceRepository {
	return &MaintenanceRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new maintenance window. Start must not be after end.
func (r *MaintenanceRepository) Create(ctx context.Context, w *models.MaintenanceWindow) error {
	if w.StartDate > w.EndDate {
		return fmt.Errorf("maintenance window start %s is after end %s", w.StartDate, w.EndDate)
	}
	if w.ID == "" {
		w.ID = GenerateID()
	}
	if w.Status == "" {
		w.Status = models.MaintenanceStatusMaintenance
	}
	w.CreatedAt = r.Now()
	w.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO maintenance_windows (id, castle_id, status, start_date, end_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, w.ID, w.CastleID, w.Status, w.StartDate, w.EndDate, w.Notes, w.CreatedAt, w.UpdatedAt)

	if err != nil {
		return fmt.Errorf("inserting maintenance window: %w", err)
	}

	return nil
}

// ListForCastle retrieves windows for a castle overlapping [from, to].
func (r *MaintenanceRepository) ListForCastle(ctx context.Context, castleID, from, to string) ([]models.MaintenanceWindow, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, castle_id, status, start_date, end_date, notes, created_at, updated_at
		FROM maintenance_windows
		WHERE castle_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date
	`, castleID, to, from)
	if err != nil {
		return nil, fmt.Errorf("querying maintenance windows: %w", err)
	}
	defer rows.Close()

	return scanMaintenanceWindows(rows)
}

// List retrieves all maintenance windows.
func (r *MaintenanceRepository) List(ctx context.Context) ([]models.MaintenanceWindow, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, castle_id, status, start_date, end_date, notes, created_at, updated_at
		FROM maintenance_windows ORDER BY start_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying maintenance windows: %w", err)
	}
	defer rows.Close()

	return scanMaintenanceWindows(rows)
}

func scanMaintenanceWindows(rows *sql.Rows) ([]models.MaintenanceWindow, error) {
	var windows []models.MaintenanceWindow
	for rows.Next() {
		var w models.MaintenanceWindow
		if err := rows.Scan(&w.ID, &w.CastleID, &w.Status, &w.StartDate, &w.EndDate, &w.Notes, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning maintenance window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// Delete removes a maintenance window.
func (r *MaintenanceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM maintenance_windows WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting maintenance window: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("maintenance window not found: %s", id)
	}

	return nil
}
