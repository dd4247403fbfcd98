package booking

import (
	"testing"
	"time"

	"github.com/bouncehire/backend/internal/storage/models"
)

func existingBooking(id, castleID, castleName, date, start, end, status string) models.Booking {
	return models.Booking{
		ID:         id,
		Reference:  "BC-" + id,
		CastleID:   castleID,
		CastleName: castleName,
		EventDate:  date,
		StartTime:  start,
		EndTime:    end,
		Status:     status,
	}
}

func TestFindConflictsSameCastleBlocks(t *testing.T) {
	existing := []models.Booking{
		existingBooking("b1", "castle-a", "Princess Palace", "2024-06-01", "10:00", "14:00", models.BookingStatusConfirmed),
	}
	candidate := &models.Booking{
		CastleID:  "castle-a",
		EventDate: "2024-06-01",
		StartTime: "14:00",
		EndTime:   "18:00",
	}

	// Back to back on the same castle: clear without buffer, blocked with it.
	conflicts, err := FindConflicts(candidate, existing, "", 0)
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts without buffer, got %d", len(conflicts))
	}

	conflicts, err = FindConflicts(candidate, existing, "", 30*time.Minute)
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict with buffer, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Type != ConflictSameCastle {
		t.Errorf("conflict type = %q, want %q", c.Type, ConflictSameCastle)
	}
	if !c.Blocking {
		t.Error("same-castle conflict must be blocking")
	}
	if c.BookingID != "b1" || c.Reference != "BC-b1" {
		t.Errorf("conflict does not identify the existing booking: %+v", c)
	}
	if !HasBlocking(conflicts) {
		t.Error("HasBlocking should report the blocking conflict")
	}
}

func TestFindConflictsDifferentCastleWarns(t *testing.T) {
	existing := []models.Booking{
		existingBooking("b1", "castle-b", "Jungle Bouncer", "2024-06-01", "10:00", "14:00", models.BookingStatusConfirmed),
	}
	candidate := &models.Booking{
		CastleID:  "castle-a",
		EventDate: "2024-06-01",
		StartTime: "12:00",
		EndTime:   "16:00",
	}

	conflicts, err := FindConflicts(candidate, existing, "", 30*time.Minute)
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0].Type != ConflictTimeOverlap {
		t.Errorf("conflict type = %q, want %q", conflicts[0].Type, ConflictTimeOverlap)
	}
	if conflicts[0].Blocking {
		t.Error("cross-castle overlap must not block")
	}
	if HasBlocking(conflicts) {
		t.Error("HasBlocking should be false for advisory conflicts")
	}
}

func TestFindConflictsSkipsTerminalAndExcluded(t *testing.T) {
	existing := []models.Booking{
		existingBooking("cancelled", "castle-a", "Princess Palace", "2024-06-01", "10:00", "14:00", models.BookingStatusCancelled),
		existingBooking("completed", "castle-a", "Princess Palace", "2024-06-01", "10:00", "14:00", models.BookingStatusCompleted),
		existingBooking("edited", "castle-a", "Princess Palace", "2024-06-01", "10:00", "14:00", models.BookingStatusConfirmed),
		existingBooking("live", "castle-a", "Princess Palace", "2024-06-01", "10:00", "14:00", models.BookingStatusPending),
	}
	candidate := &models.Booking{
		ID:        "edited",
		CastleID:  "castle-a",
		EventDate: "2024-06-01",
		StartTime: "11:00",
		EndTime:   "15:00",
	}

	conflicts, err := FindConflicts(candidate, existing, "edited", 30*time.Minute)
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected only the live booking to conflict, got %d", len(conflicts))
	}
	if conflicts[0].BookingID != "live" {
		t.Errorf("conflicting booking = %q, want live", conflicts[0].BookingID)
	}
}

func TestFindConflictsSkipsGarbledRows(t *testing.T) {
	existing := []models.Booking{
		existingBooking("bad", "castle-a", "Princess Palace", "2024-06-01", "??", "14:00", models.BookingStatusConfirmed),
		existingBooking("good", "castle-a", "Princess Palace", "2024-06-01", "10:00", "14:00", models.BookingStatusConfirmed),
	}
	candidate := &models.Booking{
		CastleID:  "castle-a",
		EventDate: "2024-06-01",
		StartTime: "11:00",
		EndTime:   "15:00",
	}

	conflicts, err := FindConflicts(candidate, existing, "", 0)
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].BookingID != "good" {
		t.Fatalf("expected only the well-formed booking to conflict, got %+v", conflicts)
	}
}

func TestFindConflictsRejectsGarbledCandidate(t *testing.T) {
	candidate := &models.Booking{
		CastleID:  "castle-a",
		EventDate: "2024-06-01",
		StartTime: "25:00",
		EndTime:   "14:00",
	}
	if _, err := FindConflicts(candidate, nil, "", 0); err == nil {
		t.Error("expected error for candidate with invalid window")
	}
}
