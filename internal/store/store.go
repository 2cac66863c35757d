package store

import (
	"context"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
)

type JoinQueueInput struct {
	RequestID     string
	BusinessID    string
	CustomerName  string
	CustomerPhone string
	PartySize     int
	Notes         string
	JoinedAt      time.Time
}

type EntryActionInput struct {
	RequestID  string
	BusinessID string
	EntryID    string
	Reason     string
	OccurredAt time.Time
}

type CreateReservationInput struct {
	RequestID     string
	BusinessID    string
	CustomerName  string
	CustomerPhone string
	PartySize     int
	ReservedFor   time.Time
	Notes         string
	CreatedAt     time.Time
}

type ReservationActionInput struct {
	RequestID     string
	BusinessID    string
	ReservationID string
	Reason        string
	OccurredAt    time.Time
}

type LoginInput struct {
	Email    string
	Password string
	TTL      time.Duration
}

type Session struct {
	SessionID  string
	UserID     string
	BusinessID string
	ExpiresAt  time.Time
}

type AnalyticsSummary struct {
	Served            int64    `json:"served"`
	Cancelled         int64    `json:"cancelled"`
	NoShows           int64    `json:"no_shows"`
	AvgWaitSeconds    *float64 `json:"avg_wait_seconds"`
	AvgServiceSeconds *float64 `json:"avg_service_seconds"`
}

// QueueStore covers the walk-in queue: public joins, rank inputs,
// and the staff transition writes. The boolean returned by mutating
// calls reports whether a write happened; replaying a request_id
// returns the original row with false.
type QueueStore interface {
	JoinQueue(ctx context.Context, input JoinQueueInput) (models.QueueEntry, bool, error)
	GetEntry(ctx context.Context, entryID string) (models.QueueEntry, error)
	ListQueue(ctx context.Context, businessID, status string) ([]models.QueueEntry, error)
	CountWaiting(ctx context.Context, businessID string) (int, error)
	CountWaitingAhead(ctx context.Context, businessID string, position int64) (int, error)
	CallEntry(ctx context.Context, input EntryActionInput) (models.QueueEntry, bool, error)
	AttendEntry(ctx context.Context, input EntryActionInput) (models.QueueEntry, bool, error)
	CompleteEntry(ctx context.Context, input EntryActionInput) (models.QueueEntry, bool, error)
	CancelEntry(ctx context.Context, input EntryActionInput) (models.QueueEntry, bool, error)
	NoShowEntry(ctx context.Context, input EntryActionInput) (models.QueueEntry, bool, error)
}

type ReservationStore interface {
	CreateReservation(ctx context.Context, input CreateReservationInput) (models.Reservation, bool, error)
	ListReservations(ctx context.Context, businessID string, day time.Time) ([]models.Reservation, error)
	ConfirmReservation(ctx context.Context, input ReservationActionInput) (models.Reservation, bool, error)
	CancelReservation(ctx context.Context, input ReservationActionInput) (models.Reservation, bool, error)
	CompleteReservation(ctx context.Context, input ReservationActionInput) (models.Reservation, bool, error)
	NoShowReservation(ctx context.Context, input ReservationActionInput) (models.Reservation, bool, error)
	ExpirePendingReservations(ctx context.Context, grace time.Duration, batchSize int) (int, error)
}

type BusinessStore interface {
	GetBusiness(ctx context.Context, businessID string) (models.Business, error)
	ListScheduleWindows(ctx context.Context, businessID string) ([]models.ScheduleWindow, error)
	SetQueueOpen(ctx context.Context, businessID string, open bool) error
	ReplaceSchedule(ctx context.Context, businessID string, windows []models.ScheduleWindow) error
}

type AuthStore interface {
	Login(ctx context.Context, input LoginInput) (Session, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
}

type AnalyticsStore interface {
	Summary(ctx context.Context, businessID string, from, to time.Time) (AnalyticsSummary, error)
}

// Store is what the HTTP API needs.
type Store interface {
	QueueStore
	ReservationStore
	BusinessStore
	AuthStore
	AnalyticsStore
}

// OutboxStore is what the realtime poller needs.
type OutboxStore interface {
	ListOutboxEvents(ctx context.Context, after Offset, limit int) ([]OutboxEvent, error)
	GetConsumerOffset(ctx context.Context, consumer string) (Offset, error)
	UpdateConsumerOffset(ctx context.Context, consumer string, offset Offset) error
	CleanupOutbox(ctx context.Context, before time.Time) error
}

type Notification struct {
	NotificationID string
	BusinessID     string
	Channel        string
	Recipient      string
	Status         string
	Attempts       int
	Error          string
}

// NotifyStore is what the notification worker needs on top of the
// outbox feed.
type NotifyStore interface {
	OutboxStore
	GetBusiness(ctx context.Context, businessID string) (models.Business, error)
	InsertNotification(ctx context.Context, notification Notification) error
	MarkNotificationSent(ctx context.Context, notificationID string) error
	MarkNotificationFailed(ctx context.Context, notificationID, reason string) error
	InsertDLQ(ctx context.Context, notificationID, reason string) error
}
