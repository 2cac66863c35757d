package models

import "time"

type Business struct {
	BusinessID         string     `json:"business_id"`
	Name               string     `json:"name"`
	Type               string     `json:"type,omitempty"`
	Address            string     `json:"address,omitempty"`
	IsQueueOpen        bool       `json:"is_queue_open"`
	SubscriptionStatus string     `json:"subscription_status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
)

// ScheduleWindow is one automatic-opening window. Weekday follows
// time.Weekday numbering (0 = Sunday). OpensAt and ClosesAt are
// minutes from midnight; a window with ClosesAt < OpensAt wraps
// past midnight.
type ScheduleWindow struct {
	BusinessID string `json:"business_id,omitempty"`
	Weekday    int    `json:"weekday"`
	OpensAt    int    `json:"opens_at"`
	ClosesAt   int    `json:"closes_at"`
}
