package websocket

import (
	"log"
)

// EventBroadcaster handles broadcasting WebSocket events to admin sessions.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastBookingStatusChanged sends a booking status transition event.
func (b *EventBroadcaster) BroadcastBookingStatusChanged(bookingID, reference, previousStatus, newStatus, reason string) {
	payload := BookingStatusPayload{
		BookingID:      bookingID,
		Reference:      reference,
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
		Reason:         reason,
	}

	msg := NewMessage(TypeBookingStatusChanged, payload)
	b.broadcast(msg)
}

// BroadcastCalendarSyncCompleted sends a reconciliation sweep summary.
func (b *EventBroadcaster) BroadcastCalendarSyncCompleted(checked, synced, conflicts, errors int) {
	payload := CalendarSyncPayload{
		Status:    "success",
		Checked:   checked,
		Synced:    synced,
		Conflicts: conflicts,
		Errors:    errors,
	}
	if errors > 0 {
		payload.Status = "partial"
	}

	msg := NewMessage(TypeCalendarSyncCompleted, payload)
	b.broadcast(msg)
}

// BroadcastCalendarSyncError sends a calendar sync error event.
func (b *EventBroadcaster) BroadcastCalendarSyncError(err error) {
	payload := CalendarSyncErrorPayload{
		Error:   "sync_error",
		Message: err.Error(),
	}

	msg := NewMessage(TypeCalendarSyncError, payload)
	b.broadcast(msg)
}

// BroadcastSyncConflictDetected flags a booking whose calendar mirror has
// diverged and needs an admin decision.
func (b *EventBroadcaster) BroadcastSyncConflictDetected(bookingID, reference, conflictType string) {
	payload := SyncConflictPayload{
		BookingID:    bookingID,
		Reference:    reference,
		ConflictType: conflictType,
	}

	msg := NewMessage(TypeSyncConflictDetected, payload)
	b.broadcast(msg)
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	msg := NewMessage(TypeNotification, payload)
	b.broadcast(msg)
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
