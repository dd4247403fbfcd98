// Package models contains the domain models for the application.
package models

import (
	"time"
)

// Booking statuses. A booking is created as pending, becomes confirmed when an
// admin approves it, and ends in exactly one of the terminal states.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusExpired   = "expired"
)

// Sync statuses track whether a booking's calendar mirror is up to date.
const (
	SyncStatusPendingSync = "pending_sync"
	SyncStatusSynced      = "synced"
	SyncStatusSyncFailed  = "sync_failed"
	SyncStatusConflict    = "conflict"
)

// Booking represents a reservation of one castle for one time window.
// Monetary fields are integer pence.
type Booking struct {
	ID              string     `json:"id"`
	Reference       string     `json:"reference"`
	CastleID        string     `json:"castle_id"`
	CastleName      string     `json:"castle_name"`
	EventDate       string     `json:"event_date"` // YYYY-MM-DD
	StartTime       string     `json:"start_time"` // HH:MM
	EndTime         string     `json:"end_time"`   // HH:MM
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	Status          string     `json:"status"`
	TotalPence      int64      `json:"total_pence"`
	DepositPence    int64      `json:"deposit_pence"`
	CustomerName    string     `json:"customer_name"`
	CustomerPhone   string     `json:"customer_phone"`
	CustomerEmail   string     `json:"customer_email"`
	PaymentMethod   string     `json:"payment_method"`
	Notes           string     `json:"notes"`
	CalendarEventID *string    `json:"calendar_event_id,omitempty"`
	SyncStatus      string     `json:"sync_status"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the booking can no longer transition.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusExpired:
		return true
	}
	return false
}

// IsActive reports whether the booking occupies its time window for
// conflict-detection purposes.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// HasCalendarEvent reports whether the booking is linked to a calendar event.
func (b *Booking) HasCalendarEvent() bool {
	return b.CalendarEventID != nil && *b.CalendarEventID != ""
}

// BookingQuery holds filters for listing bookings.
type BookingQuery struct {
	Status   string
	CastleID string
	DateFrom string
	DateTo   string
	Limit    int
	Offset   int
}

// StatusTransition records a single automatic or manual status change.
type StatusTransition struct {
	BookingID  string    `json:"booking_id"`
	Reference  string    `json:"reference"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
