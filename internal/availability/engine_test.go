package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bouncehire/backend/internal/booking"
	"github.com/bouncehire/backend/internal/storage/models"
)

type fakeBookingSource struct {
	bookings []models.Booking
	err      error
}

func (f *fakeBookingSource) ListActiveOnDate(ctx context.Context, date string) ([]models.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Booking
	for _, b := range f.bookings {
		if b.EventDate == date && b.IsActive() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingSource) ListActiveInRange(ctx context.Context, castleID, from, to string) ([]models.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Booking
	for _, b := range f.bookings {
		if b.CastleID == castleID && b.EventDate >= from && b.EventDate <= to && b.IsActive() {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeMaintenanceSource struct {
	windows []models.MaintenanceWindow
	err     error
}

func (f *fakeMaintenanceSource) ListForCastle(ctx context.Context, castleID, from, to string) ([]models.MaintenanceWindow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.MaintenanceWindow
	for _, w := range f.windows {
		if w.CastleID == castleID && w.StartDate <= to && w.EndDate >= from {
			out = append(out, w)
		}
	}
	return out, nil
}

func newTestEngine(bookings *fakeBookingSource, maint *fakeMaintenanceSource) *Engine {
	fixed := func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	return NewEngine(bookings, maint, DefaultGrid(), booking.DefaultBuffer, fixed)
}

func confirmedOn(castleID, date, start, end string) models.Booking {
	return models.Booking{
		ID:         castleID + "-" + date + "-" + start,
		CastleID:   castleID,
		CastleName: "Castle",
		EventDate:  date,
		StartTime:  start,
		EndTime:    end,
		Status:     models.BookingStatusConfirmed,
	}
}

func TestGetAvailabilityStatuses(t *testing.T) {
	bookings := &fakeBookingSource{bookings: []models.Booking{
		// 2024-07-02: one mid-day booking leaves the day partially booked.
		confirmedOn("castle-a", "2024-07-02", "11:00", "15:00"),
		// 2024-07-03: bookings cover the whole grid.
		confirmedOn("castle-a", "2024-07-03", "09:00", "14:00"),
		confirmedOn("castle-a", "2024-07-03", "14:30", "19:00"),
	}}
	maint := &fakeMaintenanceSource{windows: []models.MaintenanceWindow{
		{
			ID:        "w1",
			CastleID:  "castle-a",
			Status:    models.MaintenanceStatusMaintenance,
			StartDate: "2024-07-01",
			EndDate:   "2024-07-01",
			Notes:     "annual PAT test",
		},
	}}

	engine := newTestEngine(bookings, maint)
	days, err := engine.GetAvailability(context.Background(), "castle-a", "2024-07-01", "2024-07-04")
	if err != nil {
		t.Fatalf("GetAvailability: %v", err)
	}
	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}

	if days[0].Status != StatusMaintenance {
		t.Errorf("2024-07-01 status = %q, want %q", days[0].Status, StatusMaintenance)
	}
	if days[0].Reason != "annual PAT test" {
		t.Errorf("2024-07-01 reason = %q", days[0].Reason)
	}

	if days[1].Status != StatusPartiallyBooked {
		t.Errorf("2024-07-02 status = %q, want %q", days[1].Status, StatusPartiallyBooked)
	}
	if days[1].SlotsAvailable == 0 || days[1].SlotsAvailable == days[1].SlotsTotal {
		t.Errorf("2024-07-02 slots = %d/%d, want partial", days[1].SlotsAvailable, days[1].SlotsTotal)
	}

	if days[2].Status != StatusFullyBooked {
		t.Errorf("2024-07-03 status = %q, want %q", days[2].Status, StatusFullyBooked)
	}
	if days[2].SlotsAvailable != 0 {
		t.Errorf("2024-07-03 slots available = %d, want 0", days[2].SlotsAvailable)
	}

	if days[3].Status != StatusAvailable {
		t.Errorf("2024-07-04 status = %q, want %q", days[3].Status, StatusAvailable)
	}
	if days[3].SlotsAvailable != days[3].SlotsTotal {
		t.Errorf("2024-07-04 slots = %d/%d, want all free", days[3].SlotsAvailable, days[3].SlotsTotal)
	}
}

func TestGetAvailabilityMaintenancePrecedence(t *testing.T) {
	// A fully booked day under an out_of_service window reports unavailable,
	// not fully_booked.
	bookings := &fakeBookingSource{bookings: []models.Booking{
		confirmedOn("castle-a", "2024-07-01", "09:00", "19:00"),
	}}
	maint := &fakeMaintenanceSource{windows: []models.MaintenanceWindow{
		{
			ID:        "w1",
			CastleID:  "castle-a",
			Status:    models.MaintenanceStatusOutOfService,
			StartDate: "2024-06-30",
			EndDate:   "2024-07-02",
		},
	}}

	engine := newTestEngine(bookings, maint)
	days, err := engine.GetAvailability(context.Background(), "castle-a", "2024-07-01", "2024-07-01")
	if err != nil {
		t.Fatalf("GetAvailability: %v", err)
	}
	if days[0].Status != StatusUnavailable {
		t.Errorf("status = %q, want %q", days[0].Status, StatusUnavailable)
	}
}

func TestGetAvailabilityFailsOpen(t *testing.T) {
	engine := newTestEngine(
		&fakeBookingSource{err: errors.New("db locked")},
		&fakeMaintenanceSource{},
	)

	days, err := engine.GetAvailability(context.Background(), "castle-a", "2024-07-01", "2024-07-02")
	if err != nil {
		t.Fatalf("range query must not fail on store errors: %v", err)
	}
	for _, d := range days {
		if d.Status != StatusAvailable {
			t.Errorf("%s status = %q, want fail-open available", d.Date, d.Status)
		}
		if d.Reason == "" {
			t.Errorf("%s should carry a reason explaining the degraded answer", d.Date)
		}
	}
}

func TestGetAvailabilityRejectsBadRange(t *testing.T) {
	engine := newTestEngine(&fakeBookingSource{}, &fakeMaintenanceSource{})

	if _, err := engine.GetAvailability(context.Background(), "castle-a", "2024-07-05", "2024-07-01"); err == nil {
		t.Error("expected error for inverted range")
	}
	if _, err := engine.GetAvailability(context.Background(), "castle-a", "bad", "2024-07-01"); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestCheckAvailability(t *testing.T) {
	bookings := &fakeBookingSource{bookings: []models.Booking{
		confirmedOn("castle-a", "2024-07-02", "10:00", "14:00"),
	}}
	maint := &fakeMaintenanceSource{windows: []models.MaintenanceWindow{
		{
			ID:        "w1",
			CastleID:  "castle-a",
			Status:    models.MaintenanceStatusMaintenance,
			StartDate: "2024-07-10",
			EndDate:   "2024-07-10",
		},
	}}
	engine := newTestEngine(bookings, maint)
	ctx := context.Background()

	t.Run("clear window is available", func(t *testing.T) {
		res, err := engine.CheckAvailability(ctx, "castle-a", "2024-07-02", "15:00", "19:00")
		if err != nil {
			t.Fatalf("CheckAvailability: %v", err)
		}
		if !res.Available {
			t.Errorf("expected available, got %+v", res)
		}
	})

	t.Run("buffered collision is refused", func(t *testing.T) {
		res, err := engine.CheckAvailability(ctx, "castle-a", "2024-07-02", "14:00", "18:00")
		if err != nil {
			t.Fatalf("CheckAvailability: %v", err)
		}
		if res.Available {
			t.Error("back-to-back window should collide through the buffer")
		}
		if res.Reason == "" {
			t.Error("refusal should carry a reason")
		}
	})

	t.Run("maintenance day is refused", func(t *testing.T) {
		res, err := engine.CheckAvailability(ctx, "castle-a", "2024-07-10", "10:00", "14:00")
		if err != nil {
			t.Fatalf("CheckAvailability: %v", err)
		}
		if res.Available {
			t.Error("maintenance day must not be bookable")
		}
	})

	t.Run("store errors propagate", func(t *testing.T) {
		broken := newTestEngine(&fakeBookingSource{err: errors.New("db locked")}, &fakeMaintenanceSource{})
		if _, err := broken.CheckAvailability(ctx, "castle-a", "2024-07-02", "10:00", "14:00"); err == nil {
			t.Error("slot-level check must fail closed on store errors")
		}
	})

	t.Run("invalid window is rejected", func(t *testing.T) {
		if _, err := engine.CheckAvailability(ctx, "castle-a", "2024-07-02", "14:00", "10:00"); err == nil {
			t.Error("expected error for inverted window")
		}
	})
}
