package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const reservationColumns = `reservation_id, business_id, customer_name, customer_phone, party_size,
	reserved_for, status, created_at, confirmed_at, completed_at, notes, cancellation_reason, request_id`

func (s *Store) CreateReservation(ctx context.Context, input store.CreateReservationInput) (models.Reservation, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reservation{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	existing, found, err := findReservationByRequestID(ctx, tx, input.RequestID)
	if err != nil {
		return models.Reservation{}, false, err
	}
	if found {
		if err = tx.Commit(ctx); err != nil {
			return models.Reservation{}, false, err
		}
		return existing, false, nil
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if !input.ReservedFor.After(createdAt) {
		err = store.ErrSlotInPast
		return models.Reservation{}, false, err
	}

	var exists bool
	row := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM businesses WHERE business_id = $1)
	`, input.BusinessID)
	if err = row.Scan(&exists); err != nil {
		return models.Reservation{}, false, err
	}
	if !exists {
		err = store.ErrBusinessNotFound
		return models.Reservation{}, false, err
	}

	partySize := input.PartySize
	if partySize <= 0 {
		partySize = 1
	}

	reservation := models.Reservation{
		ReservationID: uuid.NewString(),
		BusinessID:    input.BusinessID,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		PartySize:     partySize,
		ReservedFor:   input.ReservedFor,
		Status:        models.ReservationPending,
		CreatedAt:     createdAt,
		Notes:         input.Notes,
		RequestID:     input.RequestID,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (
			reservation_id, request_id, business_id, customer_name, customer_phone, party_size,
			reserved_for, status, created_at, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, reservation.ReservationID, reservation.RequestID, reservation.BusinessID, reservation.CustomerName,
		nullIfEmpty(reservation.CustomerPhone), reservation.PartySize, reservation.ReservedFor,
		reservation.Status, reservation.CreatedAt, nullIfEmpty(reservation.Notes))
	if err != nil {
		return models.Reservation{}, false, err
	}

	if err = insertReservationEvent(ctx, tx, store.EventReservationCreated, reservation); err != nil {
		return models.Reservation{}, false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Reservation{}, false, err
	}
	return reservation, true, nil
}

func (s *Store) ListReservations(ctx context.Context, businessID string, day time.Time) ([]models.Reservation, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE business_id = $1 AND reserved_for >= $2 AND reserved_for < $3
		ORDER BY reserved_for ASC
	`, businessID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (s *Store) ConfirmReservation(ctx context.Context, input store.ReservationActionInput) (models.Reservation, bool, error) {
	return s.applyReservationAction(ctx, input, store.ReservationActionConfirm)
}

func (s *Store) CancelReservation(ctx context.Context, input store.ReservationActionInput) (models.Reservation, bool, error) {
	if input.Reason == "" {
		return models.Reservation{}, false, store.ErrReasonRequired
	}
	return s.applyReservationAction(ctx, input, store.ReservationActionCancel)
}

func (s *Store) CompleteReservation(ctx context.Context, input store.ReservationActionInput) (models.Reservation, bool, error) {
	return s.applyReservationAction(ctx, input, store.ReservationActionComplete)
}

func (s *Store) NoShowReservation(ctx context.Context, input store.ReservationActionInput) (models.Reservation, bool, error) {
	return s.applyReservationAction(ctx, input, store.ReservationActionNoShow)
}

func (s *Store) applyReservationAction(ctx context.Context, input store.ReservationActionInput, action string) (models.Reservation, bool, error) {
	toStatus := store.ReservationStatusFor(action)
	allowed := store.ReservationStatusesFor(action)
	if toStatus == "" || len(allowed) == 0 {
		return models.Reservation{}, false, store.ErrInvalidState
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reservation{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	existing, found, err := findReservationActionRequest(ctx, tx, action, input.RequestID)
	if err != nil {
		return models.Reservation{}, false, err
	}
	if found {
		if err = tx.Commit(ctx); err != nil {
			return models.Reservation{}, false, err
		}
		return existing, false, nil
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	query := `
		UPDATE reservations
		SET status = $1`
	args := []interface{}{toStatus, input.ReservationID, input.BusinessID, allowed}
	switch action {
	case store.ReservationActionConfirm:
		query += `, confirmed_at = $5`
		args = append(args, occurredAt)
	case store.ReservationActionComplete:
		query += `, completed_at = $5`
		args = append(args, occurredAt)
	case store.ReservationActionCancel:
		query += `, cancellation_reason = $5`
		args = append(args, input.Reason)
	}
	query += `
		WHERE reservation_id = $2 AND business_id = $3 AND status = ANY($4)
		RETURNING ` + reservationColumns

	row := tx.QueryRow(ctx, query, args...)
	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = classifyMissingReservation(ctx, tx, input.ReservationID, input.BusinessID)
			return models.Reservation{}, false, err
		}
		return models.Reservation{}, false, err
	}
	reservation.RequestID = input.RequestID

	if err = insertReservationActionRequest(ctx, tx, action, input.RequestID, reservation.ReservationID); err != nil {
		return models.Reservation{}, false, err
	}
	if err = insertReservationEvent(ctx, tx, store.ReservationEventType(action), reservation); err != nil {
		return models.Reservation{}, false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Reservation{}, false, err
	}
	return reservation, true, nil
}

// ExpirePendingReservations sweeps pending reservations whose slot
// passed more than grace ago to no_show, emitting an event per row.
func (s *Store) ExpirePendingReservations(ctx context.Context, grace time.Duration, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	cutoff := time.Now().UTC().Add(-grace)
	rows, err := tx.Query(ctx, `
		WITH expired AS (
			SELECT reservation_id
			FROM reservations
			WHERE status = 'pending' AND reserved_for <= $1
			ORDER BY reserved_for ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $2
		)
		UPDATE reservations
		SET status = 'no_show'
		FROM expired
		WHERE reservations.reservation_id = expired.reservation_id
		RETURNING `+reservationColumns, cutoff, batchSize)
	if err != nil {
		return 0, err
	}

	var expired []models.Reservation
	for rows.Next() {
		reservation, scanErr := scanReservation(rows)
		if scanErr != nil {
			rows.Close()
			err = scanErr
			return 0, err
		}
		expired = append(expired, reservation)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return 0, err
	}

	for _, reservation := range expired {
		if err = insertReservationEvent(ctx, tx, store.EventReservationNoShow, reservation); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(expired), nil
}

func classifyMissingReservation(ctx context.Context, tx pgx.Tx, reservationID, businessID string) error {
	var status string
	row := tx.QueryRow(ctx, `
		SELECT status
		FROM reservations
		WHERE reservation_id = $1 AND business_id = $2
	`, reservationID, businessID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrReservationNotFound
		}
		return err
	}
	return store.ErrInvalidState
}

func findReservationByRequestID(ctx context.Context, tx pgx.Tx, requestID string) (models.Reservation, bool, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE request_id = $1
	`, requestID)
	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Reservation{}, false, nil
		}
		return models.Reservation{}, false, err
	}
	return reservation, true, nil
}

func findReservationActionRequest(ctx context.Context, tx pgx.Tx, action, requestID string) (models.Reservation, bool, error) {
	var reservationID string
	row := tx.QueryRow(ctx, `
		SELECT reservation_id
		FROM reservation_action_requests
		WHERE action = $1 AND request_id = $2
	`, action, requestID)
	if err := row.Scan(&reservationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Reservation{}, false, nil
		}
		return models.Reservation{}, false, err
	}

	row = tx.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE reservation_id = $1
	`, reservationID)
	reservation, err := scanReservation(row)
	if err != nil {
		return models.Reservation{}, false, err
	}
	reservation.RequestID = requestID
	return reservation, true, nil
}

func insertReservationActionRequest(ctx context.Context, tx pgx.Tx, action, requestID, reservationID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO reservation_action_requests (action, request_id, reservation_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, action, requestID, reservationID, time.Now().UTC())
	return err
}

func scanReservation(row rowScanner) (models.Reservation, error) {
	var reservation models.Reservation
	var phoneNull sql.NullString
	var confirmedAtNull sql.NullTime
	var completedAtNull sql.NullTime
	var notesNull sql.NullString
	var reasonNull sql.NullString
	var requestIDNull sql.NullString
	if err := row.Scan(&reservation.ReservationID, &reservation.BusinessID, &reservation.CustomerName,
		&phoneNull, &reservation.PartySize, &reservation.ReservedFor, &reservation.Status,
		&reservation.CreatedAt, &confirmedAtNull, &completedAtNull, &notesNull, &reasonNull,
		&requestIDNull); err != nil {
		return models.Reservation{}, err
	}
	reservation.CustomerPhone = phoneNull.String
	reservation.ConfirmedAt = nullTimePtr(confirmedAtNull)
	reservation.CompletedAt = nullTimePtr(completedAtNull)
	reservation.Notes = notesNull.String
	reservation.CancellationReason = reasonNull.String
	reservation.RequestID = requestIDNull.String
	return reservation, nil
}
