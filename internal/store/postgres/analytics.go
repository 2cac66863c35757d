package postgres

import (
	"context"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"
)

func (s *Store) Summary(ctx context.Context, businessID string, from, to time.Time) (store.AnalyticsSummary, error) {
	var summary store.AnalyticsSummary
	row := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'no_show'),
			AVG(EXTRACT(EPOCH FROM (called_at - joined_at))) FILTER (WHERE called_at IS NOT NULL),
			AVG(EXTRACT(EPOCH FROM (completed_at - attended_at))) FILTER (WHERE completed_at IS NOT NULL AND attended_at IS NOT NULL)
		FROM queue_entries
		WHERE business_id = $1 AND joined_at >= $2 AND joined_at <= $3
	`, businessID, from, to)
	if err := row.Scan(&summary.Served, &summary.Cancelled, &summary.NoShows,
		&summary.AvgWaitSeconds, &summary.AvgServiceSeconds); err != nil {
		return store.AnalyticsSummary{}, err
	}
	return summary, nil
}
