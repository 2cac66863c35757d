package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/queue"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const entryColumns = `entry_id, business_id, customer_name, customer_phone, party_size, position,
	status, joined_at, called_at, attended_at, completed_at, notes, cancellation_reason, request_id`

func (s *Store) JoinQueue(ctx context.Context, input store.JoinQueueInput) (models.QueueEntry, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	existing, found, err := findEntryByRequestID(ctx, tx, input.RequestID)
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	if found {
		if err = tx.Commit(ctx); err != nil {
			return models.QueueEntry{}, false, err
		}
		return existing, false, nil
	}

	business, windows, err := lockBusinessGate(ctx, tx, input.BusinessID)
	if err != nil {
		return models.QueueEntry{}, false, err
	}

	joinedAt := input.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}
	if !queue.Accepting(business, joinedAt) || !queue.OpenNow(business, windows, joinedAt) {
		err = store.ErrQueueClosed
		return models.QueueEntry{}, false, err
	}

	position, err := nextPosition(ctx, tx, input.BusinessID)
	if err != nil {
		return models.QueueEntry{}, false, err
	}

	partySize := input.PartySize
	if partySize <= 0 {
		partySize = 1
	}

	entry := models.QueueEntry{
		EntryID:       uuid.NewString(),
		BusinessID:    input.BusinessID,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		PartySize:     partySize,
		Position:      position,
		Status:        models.StatusWaiting,
		JoinedAt:      joinedAt,
		Notes:         input.Notes,
		RequestID:     input.RequestID,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO queue_entries (
			entry_id, request_id, business_id, customer_name, customer_phone, party_size,
			position, status, joined_at, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, entry.EntryID, entry.RequestID, entry.BusinessID, entry.CustomerName, nullIfEmpty(entry.CustomerPhone),
		entry.PartySize, entry.Position, entry.Status, entry.JoinedAt, nullIfEmpty(entry.Notes))
	if err != nil {
		return models.QueueEntry{}, false, err
	}

	if err = insertEntryEvent(ctx, tx, store.EventEntryCreated, entry); err != nil {
		return models.QueueEntry{}, false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.QueueEntry{}, false, err
	}
	return entry, true, nil
}

func (s *Store) GetEntry(ctx context.Context, entryID string) (models.QueueEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE entry_id = $1
	`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, store.ErrEntryNotFound
		}
		return models.QueueEntry{}, err
	}
	return entry, nil
}

func (s *Store) ListQueue(ctx context.Context, businessID, status string) ([]models.QueueEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM queue_entries
		WHERE business_id = $1
	`
	args := []interface{}{businessID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	} else {
		query += " AND status IN ('waiting','called','attending')"
	}
	query += " ORDER BY position ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) CountWaiting(ctx context.Context, businessID string) (int, error) {
	var count int
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM queue_entries
		WHERE business_id = $1 AND status = 'waiting'
	`, businessID)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) CountWaitingAhead(ctx context.Context, businessID string, position int64) (int, error) {
	var count int
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM queue_entries
		WHERE business_id = $1 AND status = 'waiting' AND position < $2
	`, businessID, position)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) CallEntry(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	return s.applyEntryAction(ctx, input, store.ActionCall)
}

func (s *Store) AttendEntry(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	return s.applyEntryAction(ctx, input, store.ActionAttend)
}

func (s *Store) CompleteEntry(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	return s.applyEntryAction(ctx, input, store.ActionComplete)
}

func (s *Store) CancelEntry(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	if input.Reason == "" {
		return models.QueueEntry{}, false, store.ErrReasonRequired
	}
	return s.applyEntryAction(ctx, input, store.ActionCancel)
}

func (s *Store) NoShowEntry(ctx context.Context, input store.EntryActionInput) (models.QueueEntry, bool, error) {
	return s.applyEntryAction(ctx, input, store.ActionNoShow)
}

// applyEntryAction performs one staff transition. The legal-from
// statuses come from the transition table and are enforced inside
// the UPDATE's WHERE clause; a concurrent conflicting action sees
// zero rows and gets ErrInvalidState instead of clobbering state.
// Position is never touched.
func (s *Store) applyEntryAction(ctx context.Context, input store.EntryActionInput, action string) (models.QueueEntry, bool, error) {
	toStatus := store.EntryStatusFor(action)
	allowed := store.EntryStatusesFor(action)
	if toStatus == "" || len(allowed) == 0 {
		return models.QueueEntry{}, false, store.ErrInvalidState
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	existing, found, err := findEntryActionRequest(ctx, tx, action, input.RequestID)
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	if found {
		if err = tx.Commit(ctx); err != nil {
			return models.QueueEntry{}, false, err
		}
		return existing, false, nil
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	query := `
		UPDATE queue_entries
		SET status = $1`
	args := []interface{}{toStatus, input.EntryID, input.BusinessID, allowed}
	switch action {
	case store.ActionCall:
		query += `, called_at = $5`
		args = append(args, occurredAt)
	case store.ActionAttend:
		query += `, attended_at = $5`
		args = append(args, occurredAt)
	case store.ActionComplete:
		query += `, completed_at = $5`
		args = append(args, occurredAt)
	case store.ActionCancel:
		query += `, cancellation_reason = $5`
		args = append(args, input.Reason)
	}
	query += `
		WHERE entry_id = $2 AND business_id = $3 AND status = ANY($4)
		RETURNING ` + entryColumns

	row := tx.QueryRow(ctx, query, args...)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = classifyMissingEntry(ctx, tx, input.EntryID, input.BusinessID)
			return models.QueueEntry{}, false, err
		}
		return models.QueueEntry{}, false, err
	}
	entry.RequestID = input.RequestID

	if err = insertEntryActionRequest(ctx, tx, action, input.RequestID, entry.EntryID); err != nil {
		return models.QueueEntry{}, false, err
	}
	if err = insertEntryEvent(ctx, tx, store.EntryEventType(action), entry); err != nil {
		return models.QueueEntry{}, false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.QueueEntry{}, false, err
	}
	return entry, true, nil
}

func classifyMissingEntry(ctx context.Context, tx pgx.Tx, entryID, businessID string) error {
	var status string
	row := tx.QueryRow(ctx, `
		SELECT status
		FROM queue_entries
		WHERE entry_id = $1 AND business_id = $2
	`, entryID, businessID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrEntryNotFound
		}
		return err
	}
	return store.ErrInvalidState
}

// nextPosition assigns the per-business monotonic position. Values
// are never reused or compacted; rank is derived by counting, so
// gaps left by terminal entries are harmless.
func nextPosition(ctx context.Context, tx pgx.Tx, businessID string) (int64, error) {
	var next int64
	row := tx.QueryRow(ctx, `
		INSERT INTO queue_positions (business_id, next_position)
		VALUES ($1, 1)
		ON CONFLICT (business_id)
		DO UPDATE SET next_position = queue_positions.next_position + 1
		RETURNING next_position
	`, businessID)
	if err := row.Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func findEntryByRequestID(ctx context.Context, tx pgx.Tx, requestID string) (models.QueueEntry, bool, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE request_id = $1
	`, requestID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, false, nil
		}
		return models.QueueEntry{}, false, err
	}
	return entry, true, nil
}

func findEntryActionRequest(ctx context.Context, tx pgx.Tx, action, requestID string) (models.QueueEntry, bool, error) {
	var entryID string
	row := tx.QueryRow(ctx, `
		SELECT entry_id
		FROM entry_action_requests
		WHERE action = $1 AND request_id = $2
	`, action, requestID)
	if err := row.Scan(&entryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.QueueEntry{}, false, nil
		}
		return models.QueueEntry{}, false, err
	}

	row = tx.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE entry_id = $1
	`, entryID)
	entry, err := scanEntry(row)
	if err != nil {
		return models.QueueEntry{}, false, err
	}
	entry.RequestID = requestID
	return entry, true, nil
}

func insertEntryActionRequest(ctx context.Context, tx pgx.Tx, action, requestID, entryID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO entry_action_requests (action, request_id, entry_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, action, requestID, entryID, time.Now().UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (models.QueueEntry, error) {
	var entry models.QueueEntry
	var phoneNull sql.NullString
	var calledAtNull sql.NullTime
	var attendedAtNull sql.NullTime
	var completedAtNull sql.NullTime
	var notesNull sql.NullString
	var reasonNull sql.NullString
	var requestIDNull sql.NullString
	if err := row.Scan(&entry.EntryID, &entry.BusinessID, &entry.CustomerName, &phoneNull, &entry.PartySize,
		&entry.Position, &entry.Status, &entry.JoinedAt, &calledAtNull, &attendedAtNull, &completedAtNull,
		&notesNull, &reasonNull, &requestIDNull); err != nil {
		return models.QueueEntry{}, err
	}
	entry.CustomerPhone = phoneNull.String
	entry.CalledAt = nullTimePtr(calledAtNull)
	entry.AttendedAt = nullTimePtr(attendedAtNull)
	entry.CompletedAt = nullTimePtr(completedAtNull)
	entry.Notes = notesNull.String
	entry.CancellationReason = reasonNull.String
	entry.RequestID = requestIDNull.String
	return entry, nil
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time
	return &t
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
