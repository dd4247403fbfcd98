package models

import "time"

// Sync conflict types.
const (
	ConflictTypeTimeMismatch    = "time_mismatch"
	ConflictTypeDetailsMismatch = "details_mismatch"
	ConflictTypeBothModified    = "both_modified"
)

// Conflict resolution strategies.
const (
	ResolutionUseLocal    = "use_local"
	ResolutionUseCalendar = "use_calendar"
	ResolutionManual      = "manual"
)

// SyncConflict is recorded when a booking and its linked calendar event have
// both been modified since the last sync. Snapshots hold the JSON state of
// each side at detection time.
type SyncConflict struct {
	ID                 string     `json:"id"`
	BookingID          string     `json:"booking_id"`
	ConflictType       string     `json:"conflict_type"`
	BookingSnapshot    string     `json:"booking_snapshot"`
	EventSnapshot      string     `json:"event_snapshot"`
	Resolved           bool       `json:"resolved"`
	ResolutionStrategy *string    `json:"resolution_strategy,omitempty"`
	DetectedAt         time.Time  `json:"detected_at"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
}
