package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/bouncehire/backend/internal/booking"
	"github.com/bouncehire/backend/internal/storage/models"
)

// Outcomes of a bidirectional sync for one booking.
const (
	OutcomeCreated   = "created"   // event created for an unlinked booking
	OutcomeRecreated = "recreated" // dangling link cleared and event recreated
	OutcomePushed    = "pushed"    // booking was newer, calendar updated
	OutcomePulled    = "pulled"    // event was newer, booking updated
	OutcomeConflict  = "conflict"  // both sides changed, conflict recorded
	OutcomeNoop      = "noop"      // nothing changed since the last sync
)

// BookingStore is the slice of the booking store the sync service uses.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByCalendarEventID(ctx context.Context, eventID string) (*models.Booking, error)
	Create(ctx context.Context, b *models.Booking) error
	Update(ctx context.Context, b *models.Booking) error
	UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error
	UpdateSyncState(ctx context.Context, id string, eventID *string, syncStatus string, syncedAt *time.Time) error
	MarkSyncStatus(ctx context.Context, id, syncStatus string) error
	ListLinked(ctx context.Context) ([]models.Booking, error)
}

// ConflictStore records and resolves sync conflicts.
type ConflictStore interface {
	Create(ctx context.Context, c *models.SyncConflict) error
	GetOpenByBooking(ctx context.Context, bookingID string) (*models.SyncConflict, error)
	Resolve(ctx context.Context, id, strategy string) error
}

// Service reconciles booking records with their calendar events.
type Service struct {
	store     BookingStore
	conflicts ConflictStore
	client    Client
	now       func() time.Time
}

// NewService creates a reconciliation service. A nil now falls back to time.Now.
func NewService(store BookingStore, conflicts ConflictStore, client Client, now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		store:     store,
		conflicts: conflicts,
		client:    client,
		now:       now,
	}
}

// SyncSummary reports the result of a reconciliation sweep.
type SyncSummary struct {
	Checked         int              `json:"checked"`
	Synced          int              `json:"synced"`
	Conflicts       int              `json:"conflicts"`
	ConflictDetails []ConflictNotice `json:"conflict_details,omitempty"`
	Errors          []SweepError     `json:"errors,omitempty"`
	SyncedAt        time.Time        `json:"synced_at"`
}

// ConflictNotice identifies a booking whose conflict surfaced in a sweep.
type ConflictNotice struct {
	BookingID    string `json:"booking_id"`
	Reference    string `json:"reference"`
	ConflictType string `json:"conflict_type"`
}

// SweepError identifies the booking that failed within a sweep.
type SweepError struct {
	BookingID string `json:"booking_id"`
	Message   string `json:"message"`
}

// ToCalendar pushes a booking to the calendar, creating the event if the
// booking has none and updating it otherwise. On success the event link and
// synced status are recorded; on failure the booking is marked sync_failed
// and the error is returned for the caller to decide retry policy.
func (s *Service) ToCalendar(ctx context.Context, b *models.Booking) error {
	ev, err := s.eventFromBooking(b)
	if err != nil {
		return fmt.Errorf("building event for booking %s: %w", b.ID, err)
	}

	eventID := ""
	if b.HasCalendarEvent() {
		eventID = *b.CalendarEventID
		err = s.client.UpdateEvent(ctx, eventID, ev)
	} else {
		eventID, err = s.client.CreateEvent(ctx, ev)
	}

	if err != nil {
		if markErr := s.store.MarkSyncStatus(ctx, b.ID, models.SyncStatusSyncFailed); markErr != nil {
			log.Printf("Failed to mark booking %s sync_failed: %v", b.ID, markErr)
		}
		return fmt.Errorf("pushing booking %s to calendar: %w", b.ID, err)
	}

	syncedAt := s.now()
	if err := s.store.UpdateSyncState(ctx, b.ID, &eventID, models.SyncStatusSynced, &syncedAt); err != nil {
		return fmt.Errorf("recording sync state for booking %s: %w", b.ID, err)
	}

	b.CalendarEventID = &eventID
	b.SyncStatus = models.SyncStatusSynced
	b.LastSyncedAt = &syncedAt

	return nil
}

// FromCalendar reconstructs booking fields from a calendar event. When
// bookingID is empty the event's linked booking is looked up by event ID, and
// a new pending booking is created if none exists.
func (s *Service) FromCalendar(ctx context.Context, ev *Event, bookingID string) (*models.Booking, error) {
	var b *models.Booking
	var err error

	if bookingID != "" {
		b, err = s.store.GetByID(ctx, bookingID)
	} else {
		b, err = s.store.GetByCalendarEventID(ctx, ev.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up booking for event %s: %w", ev.ID, err)
	}

	details := DecodeDescription(ev.Description)

	if b == nil {
		b = &models.Booking{
			Reference:  details.Reference,
			CastleName: ev.Summary,
			Status:     models.BookingStatusPending,
		}
		applyEvent(b, ev, details)

		eventID := ev.ID
		b.CalendarEventID = &eventID
		b.SyncStatus = models.SyncStatusSynced
		syncedAt := s.now()
		b.LastSyncedAt = &syncedAt

		if err := s.store.Create(ctx, b); err != nil {
			return nil, fmt.Errorf("creating booking from event %s: %w", ev.ID, err)
		}
		return b, nil
	}

	applyEvent(b, ev, details)
	if err := s.store.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("updating booking %s from event: %w", b.ID, err)
	}

	syncedAt := s.now()
	eventID := ev.ID
	if err := s.store.UpdateSyncState(ctx, b.ID, &eventID, models.SyncStatusSynced, &syncedAt); err != nil {
		return nil, fmt.Errorf("recording sync state for booking %s: %w", b.ID, err)
	}

	b.SyncStatus = models.SyncStatusSynced
	b.LastSyncedAt = &syncedAt

	return b, nil
}

// Bidirectional reconciles one booking with its calendar event and returns
// the outcome. When both sides changed since the last sync a conflict is
// recorded and nothing is overwritten.
func (s *Service) Bidirectional(ctx context.Context, b *models.Booking) (string, error) {
	if !b.HasCalendarEvent() {
		if err := s.ToCalendar(ctx, b); err != nil {
			return "", err
		}
		return OutcomeCreated, nil
	}

	ev, err := s.client.GetEvent(ctx, *b.CalendarEventID)
	if err != nil {
		if markErr := s.store.MarkSyncStatus(ctx, b.ID, models.SyncStatusSyncFailed); markErr != nil {
			log.Printf("Failed to mark booking %s sync_failed: %v", b.ID, markErr)
		}
		return "", fmt.Errorf("fetching event for booking %s: %w", b.ID, err)
	}

	if ev == nil {
		// Event deleted externally: clear the dangling link and recreate.
		if err := s.store.UpdateSyncState(ctx, b.ID, nil, models.SyncStatusPendingSync, nil); err != nil {
			return "", fmt.Errorf("clearing dangling link for booking %s: %w", b.ID, err)
		}
		b.CalendarEventID = nil
		b.SyncStatus = models.SyncStatusPendingSync
		if err := s.ToCalendar(ctx, b); err != nil {
			return "", err
		}
		return OutcomeRecreated, nil
	}

	if b.LastSyncedAt == nil {
		// Linked but never synced: treat the local record as authoritative.
		if err := s.ToCalendar(ctx, b); err != nil {
			return "", err
		}
		return OutcomePushed, nil
	}

	bookingChanged := b.UpdatedAt.After(*b.LastSyncedAt)
	eventChanged := ev.Updated.After(*b.LastSyncedAt)

	switch {
	case bookingChanged && eventChanged:
		if err := s.recordConflict(ctx, b, ev); err != nil {
			return "", err
		}
		return OutcomeConflict, nil

	case bookingChanged:
		if err := s.ToCalendar(ctx, b); err != nil {
			return "", err
		}
		return OutcomePushed, nil

	case eventChanged:
		if _, err := s.FromCalendar(ctx, ev, b.ID); err != nil {
			return "", err
		}
		return OutcomePulled, nil

	default:
		syncedAt := s.now()
		if err := s.store.UpdateSyncState(ctx, b.ID, b.CalendarEventID, models.SyncStatusSynced, &syncedAt); err != nil {
			return "", fmt.Errorf("marking booking %s synced: %w", b.ID, err)
		}
		return OutcomeNoop, nil
	}
}

// recordConflict snapshots both sides, stores the conflict and flags the
// booking. Resolution is always an explicit admin action.
func (s *Service) recordConflict(ctx context.Context, b *models.Booking, ev *Event) error {
	// Skip if a conflict for this booking is already open; re-detecting it
	// on every sweep would pile up duplicates.
	if open, err := s.conflicts.GetOpenByBooking(ctx, b.ID); err == nil && open != nil {
		return nil
	}

	bookingSnap, _ := json.Marshal(b)
	eventSnap, _ := json.Marshal(ev)

	conflict := &models.SyncConflict{
		BookingID:       b.ID,
		ConflictType:    classifyConflict(b, ev),
		BookingSnapshot: string(bookingSnap),
		EventSnapshot:   string(eventSnap),
	}

	if err := s.conflicts.Create(ctx, conflict); err != nil {
		return fmt.Errorf("recording conflict for booking %s: %w", b.ID, err)
	}

	if err := s.store.MarkSyncStatus(ctx, b.ID, models.SyncStatusConflict); err != nil {
		return fmt.Errorf("flagging booking %s conflict: %w", b.ID, err)
	}

	return nil
}

// classifyConflict distinguishes pure time divergence from detail divergence.
func classifyConflict(b *models.Booking, ev *Event) string {
	start, end, err := bookingWindow(b)
	if err != nil {
		return models.ConflictTypeBothModified
	}

	timeDiffers := !start.Equal(ev.Start) || !end.Equal(ev.End)
	details := DecodeDescription(ev.Description)
	detailsDiffer := details.CustomerName != b.CustomerName ||
		details.CustomerPhone != b.CustomerPhone ||
		details.PaymentMethod != b.PaymentMethod

	switch {
	case timeDiffers && !detailsDiffer:
		return models.ConflictTypeTimeMismatch
	case detailsDiffer && !timeDiffers:
		return models.ConflictTypeDetailsMismatch
	default:
		return models.ConflictTypeBothModified
	}
}

// ResolveConflict applies the chosen side of an open conflict and records the
// strategy for the audit trail. The manual strategy takes an edited booking
// whose fields are applied before pushing.
func (s *Service) ResolveConflict(ctx context.Context, bookingID, strategy string, manual *models.Booking) error {
	conflict, err := s.conflicts.GetOpenByBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("looking up conflict for booking %s: %w", bookingID, err)
	}
	if conflict == nil {
		return fmt.Errorf("no open conflict for booking %s", bookingID)
	}

	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("looking up booking %s: %w", bookingID, err)
	}
	if b == nil {
		return fmt.Errorf("booking not found: %s", bookingID)
	}

	switch strategy {
	case models.ResolutionUseLocal:
		if err := s.ToCalendar(ctx, b); err != nil {
			return err
		}

	case models.ResolutionUseCalendar:
		if !b.HasCalendarEvent() {
			return fmt.Errorf("booking %s has no calendar event to resolve from", bookingID)
		}
		ev, err := s.client.GetEvent(ctx, *b.CalendarEventID)
		if err != nil {
			return fmt.Errorf("fetching event for booking %s: %w", bookingID, err)
		}
		if ev == nil {
			return fmt.Errorf("calendar event for booking %s no longer exists", bookingID)
		}
		if _, err := s.FromCalendar(ctx, ev, bookingID); err != nil {
			return err
		}

	case models.ResolutionManual:
		if manual == nil {
			return fmt.Errorf("manual resolution requires an edited booking")
		}
		applyManual(b, manual)
		if err := s.store.Update(ctx, b); err != nil {
			return fmt.Errorf("applying manual resolution to booking %s: %w", bookingID, err)
		}
		if err := s.ToCalendar(ctx, b); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown resolution strategy %q", strategy)
	}

	return s.conflicts.Resolve(ctx, conflict.ID, strategy)
}

// DeleteBookingEvent removes a booking's calendar event, tolerating an event
// that is already gone. An active booking whose event is removed this way
// (an admin declining it) is expired.
func (s *Service) DeleteBookingEvent(ctx context.Context, b *models.Booking) error {
	if b.HasCalendarEvent() {
		if err := s.client.DeleteEvent(ctx, *b.CalendarEventID); err != nil {
			return fmt.Errorf("deleting event for booking %s: %w", b.ID, err)
		}
	}

	if err := s.store.UpdateSyncState(ctx, b.ID, nil, models.SyncStatusPendingSync, nil); err != nil {
		return fmt.Errorf("clearing event link for booking %s: %w", b.ID, err)
	}
	b.CalendarEventID = nil
	b.SyncStatus = models.SyncStatusPendingSync

	if b.IsActive() {
		if err := s.store.UpdateStatus(ctx, b.ID, b.Status, models.BookingStatusExpired); err != nil {
			return fmt.Errorf("expiring booking %s: %w", b.ID, err)
		}
		b.Status = models.BookingStatusExpired
	}

	return nil
}

// SyncAll runs a bidirectional reconciliation over every active booking.
// Each booking is processed inside its own error boundary: one failure is
// collected and the sweep moves on.
func (s *Service) SyncAll(ctx context.Context) SyncSummary {
	summary := SyncSummary{SyncedAt: s.now()}

	bookings, err := s.store.ListLinked(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, SweepError{Message: fmt.Sprintf("listing bookings: %v", err)})
		return summary
	}

	for i := range bookings {
		b := bookings[i]
		summary.Checked++

		if !b.IsActive() {
			// A terminal booking still holding an event link: remove the
			// mirror event so the slot frees up on the calendar.
			if err := s.DeleteBookingEvent(ctx, &b); err != nil {
				log.Printf("Event removal failed for booking %s: %v", b.ID, err)
				summary.Errors = append(summary.Errors, SweepError{BookingID: b.ID, Message: err.Error()})
				continue
			}
			summary.Synced++
			continue
		}

		outcome, err := s.Bidirectional(ctx, &b)
		if err != nil {
			log.Printf("Sync failed for booking %s: %v", b.ID, err)
			summary.Errors = append(summary.Errors, SweepError{BookingID: b.ID, Message: err.Error()})
			continue
		}

		switch outcome {
		case OutcomeConflict:
			summary.Conflicts++
			notice := ConflictNotice{BookingID: b.ID, Reference: b.Reference, ConflictType: models.ConflictTypeBothModified}
			if c, err := s.conflicts.GetOpenByBooking(ctx, b.ID); err == nil && c != nil {
				notice.ConflictType = c.ConflictType
			}
			summary.ConflictDetails = append(summary.ConflictDetails, notice)
		case OutcomeNoop:
			// Nothing to count.
		default:
			summary.Synced++
		}
	}

	return summary
}

// eventFromBooking builds the calendar mirror of a booking.
func (s *Service) eventFromBooking(b *models.Booking) (Event, error) {
	start, end, err := bookingWindow(b)
	if err != nil {
		return Event{}, err
	}

	cost := b.TotalPence
	return Event{
		Summary: fmt.Sprintf("Bouncy Castle Hire: %s (%s)", b.CastleName, b.Reference),
		Description: EncodeDescription(Details{
			Reference:     b.Reference,
			CustomerName:  b.CustomerName,
			CustomerPhone: b.CustomerPhone,
			CostPence:     &cost,
			PaymentMethod: b.PaymentMethod,
			Notes:         b.Notes,
		}),
		Start: start,
		End:   end,
	}, nil
}

// bookingWindow resolves a booking's absolute start and end, preferring
// explicit timestamps over the date + time-of-day pair.
func bookingWindow(b *models.Booking) (time.Time, time.Time, error) {
	if b.StartAt != nil && b.EndAt != nil {
		return *b.StartAt, *b.EndAt, nil
	}
	iv, err := booking.IntervalFromClocks(b.EventDate, b.StartTime, b.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return iv.Start, iv.End, nil
}

// applyEvent copies event-side fields onto a booking.
func applyEvent(b *models.Booking, ev *Event, details Details) {
	b.EventDate = ev.Start.Format("2006-01-02")
	b.StartTime = ev.Start.Format("15:04")
	b.EndTime = ev.End.Format("15:04")
	start := ev.Start
	end := ev.End
	b.StartAt = &start
	b.EndAt = &end

	if details.CustomerName != "" {
		b.CustomerName = details.CustomerName
	}
	if details.CustomerPhone != "" {
		b.CustomerPhone = details.CustomerPhone
	}
	if details.CostPence != nil {
		b.TotalPence = *details.CostPence
	}
	if details.PaymentMethod != "" {
		b.PaymentMethod = details.PaymentMethod
	}
	if details.Notes != "" {
		b.Notes = details.Notes
	}
}

// applyManual copies admin-edited fields onto the stored booking.
func applyManual(b, edited *models.Booking) {
	if edited.EventDate != "" {
		b.EventDate = edited.EventDate
	}
	if edited.StartTime != "" {
		b.StartTime = edited.StartTime
	}
	if edited.EndTime != "" {
		b.EndTime = edited.EndTime
	}
	if edited.CustomerName != "" {
		b.CustomerName = edited.CustomerName
	}
	if edited.CustomerPhone != "" {
		b.CustomerPhone = edited.CustomerPhone
	}
	if edited.PaymentMethod != "" {
		b.PaymentMethod = edited.PaymentMethod
	}
	if edited.Notes != "" {
		b.Notes = edited.Notes
	}
	if edited.TotalPence > 0 {
		b.TotalPence = edited.TotalPence
	}
	if edited.DepositPence > 0 {
		b.DepositPence = edited.DepositPence
	}
}
