// Package lifecycle moves bookings through their status state machine:
// pending -> confirmed -> completed, with expiry for pending bookings that
// time out. Transitions only ever move forward.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/bouncehire/backend/internal/calendar"
	"github.com/bouncehire/backend/internal/storage/models"
)

// perItemTimeout bounds the external calls made for a single booking inside
// a sweep.
const perItemTimeout = 10 * time.Second

// DefaultFallbackEndHour is assumed when a booking has neither an explicit
// end timestamp nor a linked calendar event: hires wrap up by 17:00.
const DefaultFallbackEndHour = 17

// DefaultPendingTTL is how long a pending booking may sit unapproved before
// it expires.
const DefaultPendingTTL = 72 * time.Hour

// BookingStore is the slice of the booking store the engine uses.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByStatus(ctx context.Context, status string) ([]models.Booking, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error
	SetStatus(ctx context.Context, id, status string) error
}

// EventSource resolves a booking's linked calendar event, used as the second
// choice for its end time. calendar.Client satisfies this.
type EventSource interface {
	GetEvent(ctx context.Context, id string) (*calendar.Event, error)
}

// Engine decides and applies status transitions.
type Engine struct {
	store           BookingStore
	events          EventSource
	fallbackEndHour int
	pendingTTL      time.Duration
	now             func() time.Time
}

// NewEngine creates a status transition engine. events may be nil when no
// calendar is configured; now nil falls back to time.Now.
func NewEngine(store BookingStore, events EventSource, fallbackEndHour int, pendingTTL time.Duration, now func() time.Time) *Engine {
	if fallbackEndHour <= 0 || fallbackEndHour > 23 {
		fallbackEndHour = DefaultFallbackEndHour
	}
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		store:           store,
		events:          events,
		fallbackEndHour: fallbackEndHour,
		pendingTTL:      pendingTTL,
		now:             now,
	}
}

// Summary reports a sweep: which bookings were examined, which transitioned,
// and which failed. A sweep never aborts on a single booking's error.
type Summary struct {
	Checked      int                       `json:"checked"`
	Transitioned int                       `json:"transitioned"`
	Transitions  []models.StatusTransition `json:"transitions,omitempty"`
	Errors       []BatchError              `json:"errors,omitempty"`
	RanAt        time.Time                 `json:"ran_at"`
}

// BatchError identifies the booking that failed within a sweep.
type BatchError struct {
	BookingID string `json:"booking_id"`
	Message   string `json:"message"`
}

// CheckForCompletion transitions a confirmed booking to completed once its
// event window has elapsed. It returns nil for bookings in any other status,
// so repeated calls are harmless: a booking completes exactly once.
func (e *Engine) CheckForCompletion(ctx context.Context, b *models.Booking) (*models.StatusTransition, error) {
	if b.Status != models.BookingStatusConfirmed {
		return nil, nil
	}

	end, source := e.resolveEndTime(ctx, b)
	now := e.now()
	if !now.After(end) {
		return nil, nil
	}

	if err := e.store.UpdateStatus(ctx, b.ID, models.BookingStatusConfirmed, models.BookingStatusCompleted); err != nil {
		return nil, fmt.Errorf("completing booking %s: %w", b.ID, err)
	}

	t := &models.StatusTransition{
		BookingID:  b.ID,
		Reference:  b.Reference,
		FromStatus: models.BookingStatusConfirmed,
		ToStatus:   models.BookingStatusCompleted,
		Reason:     fmt.Sprintf("event ended %s (%s)", end.Format(time.RFC3339), source),
		OccurredAt: now,
	}
	b.Status = models.BookingStatusCompleted

	return t, nil
}

// resolveEndTime picks the best available end-time signal: the explicit end
// timestamp, then the linked calendar event's end, then the fallback hour on
// the booking's date.
func (e *Engine) resolveEndTime(ctx context.Context, b *models.Booking) (time.Time, string) {
	if b.EndAt != nil {
		return *b.EndAt, "explicit end"
	}

	if e.events != nil && b.HasCalendarEvent() {
		evCtx, cancel := context.WithTimeout(ctx, perItemTimeout)
		ev, err := e.events.GetEvent(evCtx, *b.CalendarEventID)
		cancel()
		if err == nil && ev != nil && !ev.End.IsZero() {
			return ev.End, "calendar event"
		}
	}

	day, err := time.Parse("2006-01-02", b.EventDate)
	if err != nil {
		// An unparseable date can never elapse; push the end far out so the
		// booking is left alone rather than completed spuriously.
		return e.now().Add(24 * time.Hour), "unparseable date"
	}
	return day.Add(time.Duration(e.fallbackEndHour) * time.Hour), "fallback"
}

// ProcessAll sweeps every confirmed booking through CheckForCompletion.
// Each booking has its own error boundary; failures are collected, never
// propagated, so one bad record cannot block the rest of the batch.
func (e *Engine) ProcessAll(ctx context.Context) Summary {
	summary := Summary{RanAt: e.now()}

	confirmed, err := e.store.ListByStatus(ctx, models.BookingStatusConfirmed)
	if err != nil {
		summary.Errors = append(summary.Errors, BatchError{Message: fmt.Sprintf("listing confirmed bookings: %v", err)})
		return summary
	}

	for i := range confirmed {
		b := confirmed[i]
		summary.Checked++

		itemCtx, cancel := context.WithTimeout(ctx, perItemTimeout)
		t, err := e.CheckForCompletion(itemCtx, &b)
		cancel()

		if err != nil {
			summary.Errors = append(summary.Errors, BatchError{BookingID: b.ID, Message: err.Error()})
			continue
		}
		if t != nil {
			summary.Transitioned++
			summary.Transitions = append(summary.Transitions, *t)
		}
	}

	return summary
}

// ForceComplete marks a booking completed regardless of its event window.
// It is an admin override and fails when the booking is already completed.
func (e *Engine) ForceComplete(ctx context.Context, id string) (*models.StatusTransition, error) {
	b, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("looking up booking %s: %w", id, err)
	}
	if b == nil {
		return nil, fmt.Errorf("booking not found: %s", id)
	}
	if b.Status == models.BookingStatusCompleted {
		return nil, fmt.Errorf("booking %s is already completed", b.Reference)
	}

	if err := e.store.SetStatus(ctx, id, models.BookingStatusCompleted); err != nil {
		return nil, err
	}

	return &models.StatusTransition{
		BookingID:  b.ID,
		Reference:  b.Reference,
		FromStatus: b.Status,
		ToStatus:   models.BookingStatusCompleted,
		Reason:     "manual completion",
		OccurredAt: e.now(),
	}, nil
}

// ExpirePending expires pending bookings that have sat unapproved past the
// TTL. Same partial-failure semantics as ProcessAll.
func (e *Engine) ExpirePending(ctx context.Context) Summary {
	summary := Summary{RanAt: e.now()}

	cutoff := e.now().Add(-e.pendingTTL)
	stale, err := e.store.ListPendingBefore(ctx, cutoff)
	if err != nil {
		summary.Errors = append(summary.Errors, BatchError{Message: fmt.Sprintf("listing stale pending bookings: %v", err)})
		return summary
	}

	for i := range stale {
		b := stale[i]
		summary.Checked++

		if err := e.store.UpdateStatus(ctx, b.ID, models.BookingStatusPending, models.BookingStatusExpired); err != nil {
			summary.Errors = append(summary.Errors, BatchError{BookingID: b.ID, Message: err.Error()})
			continue
		}

		summary.Transitioned++
		summary.Transitions = append(summary.Transitions, models.StatusTransition{
			BookingID:  b.ID,
			Reference:  b.Reference,
			FromStatus: models.BookingStatusPending,
			ToStatus:   models.BookingStatusExpired,
			Reason:     fmt.Sprintf("pending for more than %s", e.pendingTTL),
			OccurredAt: e.now(),
		})
	}

	return summary
}
