package queries

import (
	"context"

	"dispatch/internal/core/domain/model/task"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
)

// GetBroadcastStatsQueryHandler aggregates window outcomes for the admin
// dashboard. Like every read here, transient failures retry with bounded
// backoff.
type GetBroadcastStatsQueryHandler struct {
	db *gorm.DB
}

// NewGetBroadcastStatsQueryHandler creates a handler for stats queries.
func NewGetBroadcastStatsQueryHandler(db *gorm.DB) GetBroadcastStatsQueryHandler {
	return GetBroadcastStatsQueryHandler{db: db}
}

// Handle counts tasks per broadcast outcome. Assigned counts tasks with
// an assignee regardless of the broadcast column, so a completed window
// that produced an assignment shows up in exactly one bucket.
func (h GetBroadcastStatsQueryHandler) Handle(
	ctx context.Context,
	query GetBroadcastStatsQuery,
) (GetBroadcastStatsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetBroadcastStatsQueryResponse{}, err
	}

	var stats GetBroadcastStatsQueryResponse

	operation := func() error {
		result, err := h.fetch(ctx, query)
		if err != nil {
			return err
		}
		stats = result
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), openBroadcastsMaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return GetBroadcastStatsQueryResponse{}, err
	}

	return stats, nil
}

func (h GetBroadcastStatsQueryHandler) fetch(
	ctx context.Context,
	query GetBroadcastStatsQuery,
) (GetBroadcastStatsQueryResponse, error) {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			CASE WHEN assigned_to IS NOT NULL THEN 'assigned' ELSE broadcast_status END AS bucket,
			COUNT(*)
		FROM tasks
		WHERE created_at >= ?
		GROUP BY bucket
	`, query.Since()).Rows()
	if err != nil {
		return GetBroadcastStatsQueryResponse{}, err
	}
	defer rows.Close()

	var stats GetBroadcastStatsQueryResponse

	for rows.Next() {
		var bucket string
		var count int

		if err = rows.Scan(&bucket, &count); err != nil {
			return GetBroadcastStatsQueryResponse{}, err
		}

		switch bucket {
		case "assigned":
			stats.Assigned = count
		case task.BroadcastActive.String():
			stats.Broadcasting = count
		case task.BroadcastExpired.String():
			stats.Expired = count
		case task.BroadcastIdle.String():
			stats.Idle = count
		case task.BroadcastCompleted.String():
			stats.Completed = count
		}
	}

	if err = rows.Err(); err != nil {
		return GetBroadcastStatsQueryResponse{}, err
	}

	return stats, nil
}
