package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bouncehire/backend/internal/calendar"
	"github.com/bouncehire/backend/internal/storage/models"
)

type fakeStore struct {
	bookings map[string]*models.Booking
	failIDs  map[string]bool
	listErr  error
}

func newFakeStore(bookings ...*models.Booking) *fakeStore {
	s := &fakeStore{
		bookings: make(map[string]*models.Booking),
		failIDs:  make(map[string]bool),
	}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (s *fakeStore) ListByStatus(ctx context.Context, status string) ([]models.Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if b.Status == status {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if b.Status == models.BookingStatusPending && b.CreatedAt.Before(cutoff) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error {
	if s.failIDs[id] {
		return errors.New("simulated write failure")
	}
	b, ok := s.bookings[id]
	if !ok || b.Status != fromStatus {
		return fmt.Errorf("booking %s not in status %s", id, fromStatus)
	}
	b.Status = toStatus
	return nil
}

func (s *fakeStore) SetStatus(ctx context.Context, id, status string) error {
	if s.failIDs[id] {
		return errors.New("simulated write failure")
	}
	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not found", id)
	}
	b.Status = status
	return nil
}

type fakeEventSource struct {
	events map[string]*calendar.Event
	err    error
}

func (f *fakeEventSource) GetEvent(ctx context.Context, id string) (*calendar.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events[id], nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func confirmedBooking(id, date, startTime, endTime string) *models.Booking {
	return &models.Booking{
		ID:        id,
		Reference: "BC-" + id,
		CastleID:  "castle-a",
		EventDate: date,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    models.BookingStatusConfirmed,
	}
}

func TestCheckForCompletionUsesExplicitEnd(t *testing.T) {
	end := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	b := confirmedBooking("b1", "2024-06-01", "10:00", "14:00")
	b.EndAt = &end

	store := newFakeStore(b)
	now := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	engine := NewEngine(store, nil, 0, 0, fixedClock(now))

	tr, err := engine.CheckForCompletion(context.Background(), b)
	if err != nil {
		t.Fatalf("CheckForCompletion: %v", err)
	}
	if tr == nil {
		t.Fatal("expected a transition once the explicit end has passed")
	}
	if tr.ToStatus != models.BookingStatusCompleted {
		t.Errorf("ToStatus = %q, want completed", tr.ToStatus)
	}
	if store.bookings["b1"].Status != models.BookingStatusCompleted {
		t.Errorf("stored status = %q, want completed", store.bookings["b1"].Status)
	}
}

func TestCheckForCompletionPrefersCalendarOverFallback(t *testing.T) {
	eventID := "ev-1"
	b := confirmedBooking("b1", "2024-06-01", "10:00", "14:00")
	b.CalendarEventID = &eventID

	// The event runs later than the 17:00 fallback; at 18:00 the fallback
	// has elapsed but the event has not, so no transition yet.
	events := &fakeEventSource{events: map[string]*calendar.Event{
		"ev-1": {
			ID:  "ev-1",
			End: time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC),
		},
	}}

	store := newFakeStore(b)
	now := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	engine := NewEngine(store, events, 0, 0, fixedClock(now))

	tr, err := engine.CheckForCompletion(context.Background(), b)
	if err != nil {
		t.Fatalf("CheckForCompletion: %v", err)
	}
	if tr != nil {
		t.Fatalf("booking completed before its calendar event ended: %+v", tr)
	}

	// Past the event end it completes.
	engine = NewEngine(store, events, 0, 0, fixedClock(time.Date(2024, 6, 1, 20, 30, 0, 0, time.UTC)))
	tr, err = engine.CheckForCompletion(context.Background(), b)
	if err != nil {
		t.Fatalf("CheckForCompletion: %v", err)
	}
	if tr == nil {
		t.Fatal("expected completion after the calendar event end")
	}
}

func TestCheckForCompletionFallbackHour(t *testing.T) {
	b := confirmedBooking("b1", "2024-06-01", "10:00", "14:00")
	store := newFakeStore(b)

	// 16:00 on the event day: fallback end (17:00) has not passed.
	engine := NewEngine(store, nil, 0, 0, fixedClock(time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC)))
	tr, err := engine.CheckForCompletion(context.Background(), b)
	if err != nil {
		t.Fatalf("CheckForCompletion: %v", err)
	}
	if tr != nil {
		t.Fatal("booking completed before the fallback hour")
	}

	// 17:01 and it completes.
	engine = NewEngine(store, nil, 0, 0, fixedClock(time.Date(2024, 6, 1, 17, 1, 0, 0, time.UTC)))
	tr, err = engine.CheckForCompletion(context.Background(), b)
	if err != nil {
		t.Fatalf("CheckForCompletion: %v", err)
	}
	if tr == nil {
		t.Fatal("expected completion after the fallback hour")
	}
}

func TestCheckForCompletionIsIdempotent(t *testing.T) {
	b := confirmedBooking("b1", "2024-06-01", "10:00", "14:00")
	store := newFakeStore(b)
	engine := NewEngine(store, nil, 0, 0, fixedClock(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)))

	first, err := engine.CheckForCompletion(context.Background(), b)
	if err != nil || first == nil {
		t.Fatalf("first pass: transition=%v err=%v", first, err)
	}

	second, err := engine.CheckForCompletion(context.Background(), b)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second != nil {
		t.Error("a booking must complete exactly once")
	}
}

func TestCheckForCompletionSkipsNonConfirmed(t *testing.T) {
	engine := NewEngine(newFakeStore(), nil, 0, 0, fixedClock(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)))

	for _, status := range []string{
		models.BookingStatusPending,
		models.BookingStatusCancelled,
		models.BookingStatusExpired,
		models.BookingStatusCompleted,
	} {
		b := confirmedBooking("b1", "2024-06-01", "10:00", "14:00")
		b.Status = status
		tr, err := engine.CheckForCompletion(context.Background(), b)
		if err != nil {
			t.Fatalf("status %s: %v", status, err)
		}
		if tr != nil {
			t.Errorf("status %s must not transition, got %+v", status, tr)
		}
	}
}

func TestProcessAllCollectsPartialFailures(t *testing.T) {
	good1 := confirmedBooking("good1", "2024-06-01", "10:00", "14:00")
	bad := confirmedBooking("bad", "2024-06-01", "10:00", "14:00")
	good2 := confirmedBooking("good2", "2024-06-01", "10:00", "14:00")

	store := newFakeStore(good1, bad, good2)
	store.failIDs["bad"] = true

	engine := NewEngine(store, nil, 0, 0, fixedClock(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)))
	summary := engine.ProcessAll(context.Background())

	if summary.Checked != 3 {
		t.Errorf("Checked = %d, want 3", summary.Checked)
	}
	if summary.Transitioned != 2 {
		t.Errorf("Transitioned = %d, want 2", summary.Transitioned)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("Errors = %+v, want exactly one", summary.Errors)
	}
	if summary.Errors[0].BookingID != "bad" {
		t.Errorf("failing booking = %q, want bad", summary.Errors[0].BookingID)
	}
	if store.bookings["good1"].Status != models.BookingStatusCompleted ||
		store.bookings["good2"].Status != models.BookingStatusCompleted {
		t.Error("healthy bookings must complete despite the failure")
	}
	if store.bookings["bad"].Status != models.BookingStatusConfirmed {
		t.Error("failed booking must be left for the next sweep")
	}
}

func TestProcessAllReportsListFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("db locked")

	engine := NewEngine(store, nil, 0, 0, fixedClock(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)))
	summary := engine.ProcessAll(context.Background())

	if summary.Checked != 0 || len(summary.Errors) != 1 {
		t.Errorf("summary = %+v, want one list error", summary)
	}
}

func TestForceComplete(t *testing.T) {
	b := confirmedBooking("b1", "2024-06-01", "10:00", "14:00")
	store := newFakeStore(b)
	engine := NewEngine(store, nil, 0, 0, fixedClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))

	// Works even though the event window is in the future.
	tr, err := engine.ForceComplete(context.Background(), "b1")
	if err != nil {
		t.Fatalf("ForceComplete: %v", err)
	}
	if tr.FromStatus != models.BookingStatusConfirmed || tr.ToStatus != models.BookingStatusCompleted {
		t.Errorf("transition = %+v", tr)
	}

	if _, err := engine.ForceComplete(context.Background(), "b1"); err == nil {
		t.Error("forcing an already completed booking must fail")
	}
	if _, err := engine.ForceComplete(context.Background(), "missing"); err == nil {
		t.Error("forcing an unknown booking must fail")
	}
}

func TestExpirePending(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	stale := confirmedBooking("stale", "2024-07-01", "10:00", "14:00")
	stale.Status = models.BookingStatusPending
	stale.CreatedAt = now.Add(-100 * time.Hour)

	fresh := confirmedBooking("fresh", "2024-07-01", "15:00", "19:00")
	fresh.Status = models.BookingStatusPending
	fresh.CreatedAt = now.Add(-1 * time.Hour)

	store := newFakeStore(stale, fresh)
	engine := NewEngine(store, nil, 0, 72*time.Hour, fixedClock(now))

	summary := engine.ExpirePending(context.Background())
	if summary.Transitioned != 1 {
		t.Fatalf("Transitioned = %d, want 1", summary.Transitioned)
	}
	if store.bookings["stale"].Status != models.BookingStatusExpired {
		t.Errorf("stale booking status = %q, want expired", store.bookings["stale"].Status)
	}
	if store.bookings["fresh"].Status != models.BookingStatusPending {
		t.Errorf("fresh booking status = %q, want pending", store.bookings["fresh"].Status)
	}
}
