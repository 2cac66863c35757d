package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func insertEntryEvent(ctx context.Context, tx pgx.Tx, eventType string, entry models.QueueEntry) error {
	payload := map[string]interface{}{
		"entry_id":       entry.EntryID,
		"business_id":    entry.BusinessID,
		"customer_name":  entry.CustomerName,
		"customer_phone": entry.CustomerPhone,
		"party_size":     entry.PartySize,
		"position":       entry.Position,
		"status":         entry.Status,
		"joined_at":      entry.JoinedAt,
		"called_at":      entry.CalledAt,
		"request_id":     entry.RequestID,
	}
	if entry.CancellationReason != "" {
		payload["cancellation_reason"] = entry.CancellationReason
	}
	return insertOutboxEvent(ctx, tx, entry.BusinessID, eventType, payload)
}

func insertReservationEvent(ctx context.Context, tx pgx.Tx, eventType string, reservation models.Reservation) error {
	payload := map[string]interface{}{
		"reservation_id": reservation.ReservationID,
		"business_id":    reservation.BusinessID,
		"customer_name":  reservation.CustomerName,
		"customer_phone": reservation.CustomerPhone,
		"party_size":     reservation.PartySize,
		"reserved_for":   reservation.ReservedFor,
		"status":         reservation.Status,
		"request_id":     reservation.RequestID,
	}
	if reservation.CancellationReason != "" {
		payload["cancellation_reason"] = reservation.CancellationReason
	}
	return insertOutboxEvent(ctx, tx, reservation.BusinessID, eventType, payload)
}

func insertOutboxEvent(ctx context.Context, tx pgx.Tx, businessID, eventType string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, business_id, type, payload_json, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), businessID, eventType, payloadJSON, time.Now().UTC())
	return err
}

func (s *Store) ListOutboxEvents(ctx context.Context, after store.Offset, limit int) ([]store.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, business_id, type, payload_json, created_at
		FROM outbox_events
		WHERE (created_at, event_id) > ($1, $2)
		ORDER BY created_at ASC, event_id ASC
		LIMIT $3
	`, after.LastEventTime, after.LastEventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.OutboxEvent
	for rows.Next() {
		var event store.OutboxEvent
		if err := rows.Scan(&event.EventID, &event.BusinessID, &event.Type, &event.Payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) GetConsumerOffset(ctx context.Context, consumer string) (store.Offset, error) {
	var offset store.Offset
	var eventIDNull sql.NullString
	var eventTimeNull sql.NullTime
	row := s.pool.QueryRow(ctx, `
		SELECT last_event_time, last_event_id
		FROM consumer_offsets
		WHERE consumer = $1
	`, consumer)
	if err := row.Scan(&eventTimeNull, &eventIDNull); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Offset{}, nil
		}
		return store.Offset{}, err
	}
	if eventTimeNull.Valid {
		offset.LastEventTime = eventTimeNull.Time
	}
	offset.LastEventID = eventIDNull.String
	return offset, nil
}

func (s *Store) UpdateConsumerOffset(ctx context.Context, consumer string, offset store.Offset) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO consumer_offsets (consumer, last_event_time, last_event_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer)
		DO UPDATE SET last_event_time = $2, last_event_id = $3
	`, consumer, offset.LastEventTime, offset.LastEventID)
	return err
}

// CleanupOutbox deletes events every consumer has passed. The caller
// computes the safe cutoff from the slowest consumer offset.
func (s *Store) CleanupOutbox(ctx context.Context, before time.Time) error {
	if before.IsZero() {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		DELETE FROM outbox_events
		WHERE created_at < $1
	`, before)
	return err
}

func (s *Store) InsertNotification(ctx context.Context, notification store.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (notification_id, business_id, channel, recipient, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, notification.NotificationID, notification.BusinessID, notification.Channel, notification.Recipient,
		notification.Status, notification.Attempts, time.Now().UTC())
	return err
}

func (s *Store) MarkNotificationSent(ctx context.Context, notificationID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET status = 'sent', sent_at = $1
		WHERE notification_id = $2
	`, time.Now().UTC(), notificationID)
	return err
}

func (s *Store) MarkNotificationFailed(ctx context.Context, notificationID, reason string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET status = 'failed', error = $1
		WHERE notification_id = $2
	`, reason, notificationID)
	return err
}

func (s *Store) InsertDLQ(ctx context.Context, notificationID, reason string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications_dlq (notification_id, reason, created_at)
		VALUES ($1, $2, $3)
	`, notificationID, reason, time.Now().UTC())
	return err
}
