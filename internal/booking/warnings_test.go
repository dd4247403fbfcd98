package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/bouncehire/backend/internal/storage/models"
)

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestAdvisoryWarnings(t *testing.T) {
	// Well in advance of the event so short notice does not trigger.
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("unremarkable booking has no warnings", func(t *testing.T) {
		b := &models.Booking{
			EventDate:    "2024-06-04", // a Tuesday
			StartTime:    "10:00",
			EndTime:      "14:00",
			TotalPence:   10000,
			DepositPence: 2500,
		}
		if warnings := AdvisoryWarnings(b, now); len(warnings) != 0 {
			t.Errorf("expected no warnings, got %v", warnings)
		}
	})

	t.Run("odd hours and weekend", func(t *testing.T) {
		b := &models.Booking{
			EventDate:    "2024-06-01", // a Saturday
			StartTime:    "07:00",
			EndTime:      "21:00",
			TotalPence:   10000,
			DepositPence: 2500,
		}
		warnings := AdvisoryWarnings(b, now)
		if !hasWarningContaining(warnings, "early start") {
			t.Errorf("missing early start warning in %v", warnings)
		}
		if !hasWarningContaining(warnings, "late finish") {
			t.Errorf("missing late finish warning in %v", warnings)
		}
		if !hasWarningContaining(warnings, "weekend") {
			t.Errorf("missing weekend warning in %v", warnings)
		}
		if !hasWarningContaining(warnings, "long hire") {
			t.Errorf("missing long hire warning in %v", warnings)
		}
	})

	t.Run("short notice", func(t *testing.T) {
		b := &models.Booking{
			EventDate:    "2024-06-04",
			StartTime:    "10:00",
			EndTime:      "14:00",
			TotalPence:   10000,
			DepositPence: 2500,
		}
		soon := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
		if warnings := AdvisoryWarnings(b, soon); !hasWarningContaining(warnings, "short notice") {
			t.Errorf("missing short notice warning in %v", warnings)
		}
	})

	t.Run("thin deposit", func(t *testing.T) {
		b := &models.Booking{
			EventDate:    "2024-06-04",
			StartTime:    "10:00",
			EndTime:      "14:00",
			TotalPence:   10000,
			DepositPence: 500,
		}
		if warnings := AdvisoryWarnings(b, now); !hasWarningContaining(warnings, "deposit") {
			t.Errorf("missing deposit warning in %v", warnings)
		}
	})
}
