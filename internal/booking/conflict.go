package booking

import (
	"fmt"
	"time"

	"github.com/bouncehire/backend/internal/storage/models"
)

// Conflict types. A same-castle overlap blocks the booking outright; a
// cross-castle overlap is a logistics warning only.
const (
	ConflictSameCastle  = "same_castle"
	ConflictTimeOverlap = "time_overlap"
)

// Conflict describes an overlap between a candidate booking and an existing one.
type Conflict struct {
	Type       string `json:"type"`
	BookingID  string `json:"booking_id"`
	Reference  string `json:"reference"`
	CastleName string `json:"castle_name"`
	Blocking   bool   `json:"blocking"`
	Message    string `json:"message"`
}

// FindConflicts tests a candidate booking against the supplied set of
// existing bookings and returns every overlap, same-castle conflicts flagged
// as blocking. Terminal-status bookings and the booking identified by
// excludeID (the one being edited) are skipped. Results keep the order of the
// input slice. The buffer widens the candidate's window to allow for setup
// and teardown.
func FindConflicts(candidate *models.Booking, existing []models.Booking, excludeID string, buffer time.Duration) ([]Conflict, error) {
	candidateIv, err := IntervalFromClocks(candidate.EventDate, candidate.StartTime, candidate.EndTime)
	if err != nil {
		return nil, fmt.Errorf("candidate interval: %w", err)
	}

	var conflicts []Conflict
	for i := range existing {
		other := &existing[i]
		if other.ID == excludeID {
			continue
		}
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if !other.IsActive() {
			continue
		}
		if other.EventDate != candidate.EventDate {
			continue
		}

		otherIv, err := IntervalFromClocks(other.EventDate, other.StartTime, other.EndTime)
		if err != nil {
			// A stored booking with a garbled window cannot be compared;
			// skip it rather than fail the whole check.
			continue
		}

		if !candidateIv.Overlaps(otherIv, buffer) {
			continue
		}

		c := Conflict{
			BookingID:  other.ID,
			Reference:  other.Reference,
			CastleName: other.CastleName,
		}
		if other.CastleID == candidate.CastleID {
			c.Type = ConflictSameCastle
			c.Blocking = true
			c.Message = fmt.Sprintf("%s is already booked on %s from %s to %s (ref %s)",
				other.CastleName, other.EventDate, other.StartTime, other.EndTime, other.Reference)
		} else {
			c.Type = ConflictTimeOverlap
			c.Message = fmt.Sprintf("overlaps booking %s for %s on %s from %s to %s",
				other.Reference, other.CastleName, other.EventDate, other.StartTime, other.EndTime)
		}
		conflicts = append(conflicts, c)
	}

	return conflicts, nil
}

// HasBlocking reports whether any conflict in the list blocks the booking.
func HasBlocking(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Blocking {
			return true
		}
	}
	return false
}
