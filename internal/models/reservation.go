package models

import "time"

type Reservation struct {
	ReservationID      string     `json:"reservation_id"`
	BusinessID         string     `json:"business_id"`
	CustomerName       string     `json:"customer_name"`
	CustomerPhone      string     `json:"customer_phone,omitempty"`
	PartySize          int        `json:"party_size"`
	ReservedFor        time.Time  `json:"reserved_for"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	RequestID          string     `json:"request_id,omitempty"`
}

const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
	ReservationNoShow    = "no_show"
	ReservationCompleted = "completed"
)
