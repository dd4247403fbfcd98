package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bouncehire/backend/internal/storage/models"
)

// CastleRepository provides data access for the castle fleet.
type CastleRepository struct {
	BaseRepository
}

// NewCastleRepository creates a new castle repository.
func NewCastleRepository(db *DB) *CastleRepository {
	return &CastleRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new castle.
func (r *CastleRepository) Create(ctx context.Context, c *models.Castle) error {
	if c.ID == "" {
		c.ID = GenerateID()
	}
	c.CreatedAt = r.Now()
	c.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO castles (id, name, slug, daily_rate_pence, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Slug, c.DailyRatePence, c.Active, c.CreatedAt, c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("inserting castle: %w", err)
	}

	return nil
}

// GetByID retrieves a castle by ID. Returns (nil, nil) when absent.
func (r *CastleRepository) GetByID(ctx context.Context, id string) (*models.Castle, error) {
	c := &models.Castle{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, name, slug, daily_rate_pence, active, created_at, updated_at
		FROM castles WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.DailyRatePence, &c.Active, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying castle: %w", err)
	}

	return c, nil
}

// List retrieves all castles, active first.
func (r *CastleRepository) List(ctx context.Context) ([]models.Castle, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, name, slug, daily_rate_pence, active, created_at, updated_at
		FROM castles ORDER BY active DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying castles: %w", err)
	}
	defer rows.Close()

	var castles []models.Castle
	for rows.Next() {
		var c models.Castle
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.DailyRatePence, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning castle: %w", err)
		}
		castles = append(castles, c)
	}

	return castles, rows.Err()
}

// Update rewrites a castle's details.
func (r *CastleRepository) Update(ctx context.Context, c *models.Castle) error {
	c.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE castles SET name = ?, slug = ?, daily_rate_pence = ?, active = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Slug, c.DailyRatePence, c.Active, c.UpdatedAt, c.ID)

	if err != nil {
		return fmt.Errorf("updating castle: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("castle not found: %s", c.ID)
	}

	return nil
}

// Delete removes a castle from the fleet.
func (r *CastleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM castles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting castle: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("castle not found: %s", id)
	}

	return nil
}
