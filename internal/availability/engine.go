// Package availability computes day-level and slot-level availability for
// castles by combining bookings and maintenance windows.
package availability

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bouncehire/backend/internal/booking"
	"github.com/bouncehire/backend/internal/storage/models"
)

// Day-level availability statuses, in precedence order: maintenance and
// unavailable always win, then fully booked, then partially booked.
const (
	StatusAvailable       = "available"
	StatusPartiallyBooked = "partially_booked"
	StatusFullyBooked     = "fully_booked"
	StatusUnavailable     = "unavailable"
	StatusMaintenance     = "maintenance"
)

// DayAvailability is the derived per-castle per-day record. It is computed on
// demand and never persisted.
type DayAvailability struct {
	CastleID       string `json:"castle_id"`
	Date           string `json:"date"`
	Status         string `json:"status"`
	SlotsAvailable int    `json:"slots_available"`
	SlotsTotal     int    `json:"slots_total"`
	Reason         string `json:"reason,omitempty"`
}

// CheckResult is the outcome of a slot-level availability check.
type CheckResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// SlotGrid divides the bookable part of a day into discrete slots used for
// availability counting.
type SlotGrid struct {
	DayStartMinute int
	DayEndMinute   int
	SlotMinutes    int
}

// DefaultGrid is the standard hire day: five two-hour slots from 09:00 to 19:00.
func DefaultGrid() SlotGrid {
	return SlotGrid{
		DayStartMinute: 9 * 60,
		DayEndMinute:   19 * 60,
		SlotMinutes:    120,
	}
}

// Slots returns the start minutes of every slot in the grid.
func (g SlotGrid) Slots() []int {
	var starts []int
	for m := g.DayStartMinute; m+g.SlotMinutes <= g.DayEndMinute; m += g.SlotMinutes {
		starts = append(starts, m)
	}
	return starts
}

// BookingSource is the slice of the booking store the engine reads.
type BookingSource interface {
	ListActiveOnDate(ctx context.Context, date string) ([]models.Booking, error)
	ListActiveInRange(ctx context.Context, castleID, from, to string) ([]models.Booking, error)
}

// MaintenanceSource is read-only access to maintenance windows.
type MaintenanceSource interface {
	ListForCastle(ctx context.Context, castleID, from, to string) ([]models.MaintenanceWindow, error)
}

// Engine answers availability queries. It owns no data; sources are injected.
type Engine struct {
	bookings    BookingSource
	maintenance MaintenanceSource
	grid        SlotGrid
	buffer      time.Duration
	now         func() time.Time
}

// NewEngine creates an availability engine. A nil now falls back to time.Now.
func NewEngine(bookings BookingSource, maintenance MaintenanceSource, grid SlotGrid, buffer time.Duration, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		bookings:    bookings,
		maintenance: maintenance,
		grid:        grid,
		buffer:      buffer,
		now:         now,
	}
}

// GetAvailability computes a day-level availability record for each date in
// [from, to]. Days whose data cannot be fetched are reported as available
// with a reason: this feeds calendars and booking forms, so a transient store
// error must not black out the UI. CheckAvailability remains the
// authoritative gate at submission time.
func (e *Engine) GetAvailability(ctx context.Context, castleID, from, to string) ([]DayAvailability, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("date range %s..%s is inverted", from, to)
	}

	windows, werr := e.maintenance.ListForCastle(ctx, castleID, from, to)
	if werr != nil {
		log.Printf("Availability: maintenance lookup failed for %s: %v", castleID, werr)
	}
	bookings, berr := e.bookings.ListActiveInRange(ctx, castleID, from, to)
	if berr != nil {
		log.Printf("Availability: booking lookup failed for %s: %v", castleID, berr)
	}

	byDate := make(map[string][]models.Booking)
	for _, b := range bookings {
		byDate[b.EventDate] = append(byDate[b.EventDate], b)
	}

	var days []DayAvailability
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")

		if werr != nil || berr != nil {
			days = append(days, DayAvailability{
				CastleID:       castleID,
				Date:           date,
				Status:         StatusAvailable,
				SlotsAvailable: len(e.grid.Slots()),
				SlotsTotal:     len(e.grid.Slots()),
				Reason:         "availability data unavailable; will be re-checked at booking time",
			})
			continue
		}

		days = append(days, e.computeDay(castleID, date, byDate[date], windows))
	}

	return days, nil
}

// computeDay applies the status precedence for a single date.
func (e *Engine) computeDay(castleID, date string, dayBookings []models.Booking, windows []models.MaintenanceWindow) DayAvailability {
	slots := e.grid.Slots()
	day := DayAvailability{
		CastleID:   castleID,
		Date:       date,
		SlotsTotal: len(slots),
	}

	for i := range windows {
		w := &windows[i]
		if !w.Covers(date) {
			continue
		}
		if w.Status == models.MaintenanceStatusOutOfService {
			day.Status = StatusUnavailable
		} else {
			day.Status = StatusMaintenance
		}
		day.Reason = w.Notes
		if day.Reason == "" {
			day.Reason = "castle under maintenance"
		}
		return day
	}

	available := 0
	for _, slotStart := range slots {
		slotIv, err := booking.NewInterval(date, slotStart, slotStart+e.grid.SlotMinutes)
		if err != nil {
			continue
		}
		if !slotTaken(slotIv, dayBookings, e.buffer) {
			available++
		}
	}

	day.SlotsAvailable = available
	switch {
	case available == 0:
		day.Status = StatusFullyBooked
	case available < len(slots):
		day.Status = StatusPartiallyBooked
	default:
		day.Status = StatusAvailable
	}

	return day
}

func slotTaken(slot booking.Interval, dayBookings []models.Booking, buffer time.Duration) bool {
	for i := range dayBookings {
		b := &dayBookings[i]
		if !b.IsActive() {
			continue
		}
		iv, err := booking.IntervalFromClocks(b.EventDate, b.StartTime, b.EndTime)
		if err != nil {
			continue
		}
		if slot.Overlaps(iv, buffer) {
			return true
		}
	}
	return false
}

// CheckAvailability is the authoritative slot-level gate for a specific
// requested window. Unlike GetAvailability it propagates store errors:
// a booking must not be committed on unknown data. Consumers that cached a
// day-level result must call this again immediately before committing.
func (e *Engine) CheckAvailability(ctx context.Context, castleID, date, startTime, endTime string) (CheckResult, error) {
	if _, err := booking.IntervalFromClocks(date, startTime, endTime); err != nil {
		return CheckResult{}, err
	}

	windows, err := e.maintenance.ListForCastle(ctx, castleID, date, date)
	if err != nil {
		return CheckResult{}, fmt.Errorf("checking maintenance windows: %w", err)
	}
	for i := range windows {
		if windows[i].Covers(date) {
			return CheckResult{
				Available: false,
				Reason:    "castle is unavailable for maintenance on this date",
			}, nil
		}
	}

	existing, err := e.bookings.ListActiveOnDate(ctx, date)
	if err != nil {
		return CheckResult{}, fmt.Errorf("checking existing bookings: %w", err)
	}

	candidate := &models.Booking{
		CastleID:  castleID,
		EventDate: date,
		StartTime: startTime,
		EndTime:   endTime,
	}
	conflicts, err := booking.FindConflicts(candidate, existing, "", e.buffer)
	if err != nil {
		return CheckResult{}, err
	}

	for _, c := range conflicts {
		if c.Blocking {
			return CheckResult{Available: false, Reason: c.Message}, nil
		}
	}

	return CheckResult{Available: true}, nil
}
