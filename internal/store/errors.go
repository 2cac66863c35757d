package store

import "errors"

var (
	ErrBusinessNotFound    = errors.New("business not found")
	ErrEntryNotFound       = errors.New("entry not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidState        = errors.New("invalid state for action")
	ErrReasonRequired      = errors.New("cancellation reason required")
	ErrQueueClosed         = errors.New("queue closed")
	ErrSlotInPast          = errors.New("reservation slot in the past")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrSessionNotFound     = errors.New("session not found")
	ErrAccessDenied        = errors.New("access denied")
)
