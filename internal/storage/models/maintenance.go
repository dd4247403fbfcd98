package models

import "time"

// Maintenance window statuses.
const (
	MaintenanceStatusMaintenance  = "maintenance"
	MaintenanceStatusOutOfService = "out_of_service"
)

// MaintenanceWindow represents a castle-level unavailability period.
// A window overlapping a requested date forces that date to maintenance
// regardless of bookings.
type MaintenanceWindow struct {
	ID        string    `json:"id"`
	CastleID  string    `json:"castle_id"`
	Status    string    `json:"status"`
	StartDate string    `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate   string    `json:"end_date"`   // YYYY-MM-DD, inclusive
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Covers reports whether the window covers the given YYYY-MM-DD date.
// Dates in this format compare correctly as strings.
func (m *MaintenanceWindow) Covers(date string) bool {
	return m.StartDate <= date && date <= m.EndDate
}
