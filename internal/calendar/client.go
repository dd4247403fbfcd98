// Package calendar provides the external calendar client and the
// booking/calendar reconciliation service.
package calendar

import (
	"context"
	"time"
)

// Event mirrors a booking in the external calendar. Booking metadata is
// carried in the Description field using the codec in description.go.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees,omitempty"`
	Updated     time.Time `json:"updated,omitempty"`
}

// Client is the narrow calendar interface the reconciliation service depends
// on. Implementations wrap a specific provider; the service never sees more
// than this surface.
//
// GetEvent returns (nil, nil) when the event does not exist. DeleteEvent
// succeeds when the event is already absent.
type Client interface {
	GetEvent(ctx context.Context, id string) (*Event, error)
	CreateEvent(ctx context.Context, ev Event) (string, error)
	UpdateEvent(ctx context.Context, id string, ev Event) error
	DeleteEvent(ctx context.Context, id string) error
	GetEventsInRange(ctx context.Context, start, end time.Time) ([]Event, error)
	TestConnection(ctx context.Context) error
}
