package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"

	"github.com/jackc/pgx/v5"
)

const businessColumns = `business_id, name, type, address, is_queue_open, subscription_status, trial_ends_at, created_at`

func (s *Store) GetBusiness(ctx context.Context, businessID string) (models.Business, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+businessColumns+`
		FROM businesses
		WHERE business_id = $1
	`, businessID)
	business, err := scanBusiness(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Business{}, store.ErrBusinessNotFound
		}
		return models.Business{}, err
	}
	return business, nil
}

// lockBusinessGate reads the business row FOR SHARE together with its
// schedule windows, so a join decision cannot race a staff toggle
// committed mid-transaction.
func lockBusinessGate(ctx context.Context, tx pgx.Tx, businessID string) (models.Business, []models.ScheduleWindow, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+businessColumns+`
		FROM businesses
		WHERE business_id = $1
		FOR SHARE
	`, businessID)
	business, err := scanBusiness(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Business{}, nil, store.ErrBusinessNotFound
		}
		return models.Business{}, nil, err
	}

	windows, err := listWindows(ctx, tx, businessID)
	if err != nil {
		return models.Business{}, nil, err
	}
	return business, windows, nil
}

func (s *Store) ListScheduleWindows(ctx context.Context, businessID string) ([]models.ScheduleWindow, error) {
	return listWindows(ctx, s.pool, businessID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func listWindows(ctx context.Context, q querier, businessID string) ([]models.ScheduleWindow, error) {
	rows, err := q.Query(ctx, `
		SELECT business_id, weekday, opens_at, closes_at
		FROM schedule_windows
		WHERE business_id = $1
		ORDER BY weekday ASC, opens_at ASC
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []models.ScheduleWindow
	for rows.Next() {
		var w models.ScheduleWindow
		if err := rows.Scan(&w.BusinessID, &w.Weekday, &w.OpensAt, &w.ClosesAt); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return windows, nil
}

func (s *Store) SetQueueOpen(ctx context.Context, businessID string, open bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE businesses
		SET is_queue_open = $1
		WHERE business_id = $2
	`, open, businessID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrBusinessNotFound
	}
	return nil
}

func (s *Store) ReplaceSchedule(ctx context.Context, businessID string, windows []models.ScheduleWindow) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var exists bool
	row := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM businesses WHERE business_id = $1)
	`, businessID)
	if err = row.Scan(&exists); err != nil {
		return err
	}
	if !exists {
		err = store.ErrBusinessNotFound
		return err
	}

	if _, err = tx.Exec(ctx, `DELETE FROM schedule_windows WHERE business_id = $1`, businessID); err != nil {
		return err
	}
	for _, w := range windows {
		if _, err = tx.Exec(ctx, `
			INSERT INTO schedule_windows (business_id, weekday, opens_at, closes_at)
			VALUES ($1, $2, $3, $4)
		`, businessID, w.Weekday, w.OpensAt, w.ClosesAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func scanBusiness(row rowScanner) (models.Business, error) {
	var business models.Business
	var typeNull, addressNull sql.NullString
	var trialNull sql.NullTime
	if err := row.Scan(&business.BusinessID, &business.Name, &typeNull, &addressNull,
		&business.IsQueueOpen, &business.SubscriptionStatus, &trialNull, &business.CreatedAt); err != nil {
		return models.Business{}, err
	}
	business.Type = typeNull.String
	business.Address = addressNull.String
	business.TrialEndsAt = nullTimePtr(trialNull)
	return business, nil
}
