package models

import "time"

type QueueEntry struct {
	EntryID            string     `json:"entry_id"`
	BusinessID         string     `json:"business_id"`
	CustomerName       string     `json:"customer_name"`
	CustomerPhone      string     `json:"customer_phone,omitempty"`
	PartySize          int        `json:"party_size"`
	Position           int64      `json:"position"`
	Status             string     `json:"status"`
	JoinedAt           time.Time  `json:"joined_at"`
	CalledAt           *time.Time `json:"called_at,omitempty"`
	AttendedAt         *time.Time `json:"attended_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	RequestID          string     `json:"request_id,omitempty"`
}

const (
	StatusWaiting   = "waiting"
	StatusCalled    = "called"
	StatusAttending = "attending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)
