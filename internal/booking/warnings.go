package booking

import (
	"fmt"
	"time"

	"github.com/bouncehire/backend/internal/storage/models"
)

// Advisory thresholds. These produce warnings for the admin to review,
// never a rejection.
const (
	earlyStartMinute   = 9 * 60  // before 09:00
	lateFinishMinute   = 20 * 60 // after 20:00
	shortNoticeDays    = 3
	longHireDuration   = 8 * time.Hour
	minDepositFraction = 0.20
)

// AdvisoryWarnings returns human-readable heuristics about a booking: odd
// hours, weekend work, short notice, unusually long hires and thin deposits.
func AdvisoryWarnings(b *models.Booking, now time.Time) []string {
	var warnings []string

	if startMin, err := ParseClock(b.StartTime); err == nil && startMin < earlyStartMinute {
		warnings = append(warnings, fmt.Sprintf("early start at %s; allow extra time for delivery", b.StartTime))
	}
	if endMin, err := ParseClock(b.EndTime); err == nil && endMin > lateFinishMinute {
		warnings = append(warnings, fmt.Sprintf("late finish at %s; collection will be after dark", b.EndTime))
	}

	if day, err := time.Parse("2006-01-02", b.EventDate); err == nil {
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
			warnings = append(warnings, "weekend booking; check crew availability")
		}

		notice := day.Sub(now.Truncate(24 * time.Hour))
		if notice >= 0 && notice < time.Duration(shortNoticeDays)*24*time.Hour {
			warnings = append(warnings, fmt.Sprintf("short notice: event is less than %d days away", shortNoticeDays))
		}
	}

	if iv, err := IntervalFromClocks(b.EventDate, b.StartTime, b.EndTime); err == nil {
		if iv.Duration() > longHireDuration {
			warnings = append(warnings, fmt.Sprintf("long hire of %s; confirm generator and supervision", iv.Duration()))
		}
	}

	if b.TotalPence > 0 {
		if float64(b.DepositPence) < minDepositFraction*float64(b.TotalPence) {
			warnings = append(warnings, "deposit is under 20% of the total price")
		}
	}

	return warnings
}
