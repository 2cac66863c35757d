package store

import (
	"encoding/json"
	"time"
)

// OutboxEvent is one row of the change feed. Realtime and notifier
// consumers read the outbox after their own persisted offsets.
type OutboxEvent struct {
	EventID    string          `json:"event_id"`
	BusinessID string          `json:"business_id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

const (
	EventEntryCreated   = "entry.created"
	EventEntryCalled    = "entry.called"
	EventEntryAttending = "entry.attending"
	EventEntryCompleted = "entry.completed"
	EventEntryCancelled = "entry.cancelled"
	EventEntryNoShow    = "entry.no_show"

	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCompleted = "reservation.completed"
	EventReservationNoShow    = "reservation.no_show"
)

// EntryEventType maps a staff action to its outbox event type.
func EntryEventType(action string) string {
	switch action {
	case ActionCall:
		return EventEntryCalled
	case ActionAttend:
		return EventEntryAttending
	case ActionComplete:
		return EventEntryCompleted
	case ActionCancel:
		return EventEntryCancelled
	case ActionNoShow:
		return EventEntryNoShow
	default:
		return ""
	}
}

func ReservationEventType(action string) string {
	switch action {
	case ReservationActionConfirm:
		return EventReservationConfirmed
	case ReservationActionCancel:
		return EventReservationCancelled
	case ReservationActionComplete:
		return EventReservationCompleted
	case ReservationActionNoShow:
		return EventReservationNoShow
	default:
		return ""
	}
}

// Offset marks the last outbox event a consumer applied. Events are
// ordered by (created_at, event_id); both fields break ties so a
// consumer never re-reads or skips rows sharing a timestamp.
type Offset struct {
	LastEventTime time.Time
	LastEventID   string
}
