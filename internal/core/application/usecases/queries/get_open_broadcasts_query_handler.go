package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

const openBroadcastsMaxRetries = 2

// GetOpenBroadcastsQueryHandler serves the poll contract for courier
// clients. The read is idempotent, so transient database failures are
// retried with bounded exponential backoff before surfacing an error.
//
// Ordering is fixed: priority descending, then creation time ascending,
// so every polling client sees the same queue.
type GetOpenBroadcastsQueryHandler struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// NewGetOpenBroadcastsQueryHandler creates a handler for open-broadcast
// polls.
func NewGetOpenBroadcastsQueryHandler(db *gorm.DB, clock clockwork.Clock) GetOpenBroadcastsQueryHandler {
	return GetOpenBroadcastsQueryHandler{db: db, clock: clock}
}

// Handle returns every task that is broadcasting, unassigned, and whose
// deadline is still in the future at read time. A task past its deadline
// is excluded even if the sweep has not expired it yet.
func (h GetOpenBroadcastsQueryHandler) Handle(
	ctx context.Context,
	query GetOpenBroadcastsQuery,
) ([]GetOpenBroadcastsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var broadcasts []GetOpenBroadcastsQueryResponse

	operation := func() error {
		result, err := h.fetch(ctx, query)
		if err != nil {
			return err
		}
		broadcasts = result
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), openBroadcastsMaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return broadcasts, nil
}

func (h GetOpenBroadcastsQueryHandler) fetch(
	ctx context.Context,
	query GetOpenBroadcastsQuery,
) ([]GetOpenBroadcastsQueryResponse, error) {
	now := h.clock.Now()
	broadcasts := make([]GetOpenBroadcastsQueryResponse, 0)

	sql := `
		SELECT
			id,
			pickup_lat,
			pickup_lng,
			dropoff_lat,
			dropoff_lng,
			fee,
			priority,
			broadcast_end_time
		FROM tasks
		WHERE broadcast_status = ?
		  AND assigned_to IS NULL
		  AND broadcast_end_time > ?
		ORDER BY priority DESC, created_at ASC
	`
	args := []any{task.BroadcastActive.String(), now}
	if query.Limit() > 0 {
		sql += " LIMIT ?"
		args = append(args, query.Limit())
	}

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var pickupLat, pickupLng, dropoffLat, dropoffLng float64
		var fee int64
		var priority int
		var endsAt time.Time

		if err = rows.Scan(
			&id,
			&pickupLat,
			&pickupLng,
			&dropoffLat,
			&dropoffLng,
			&fee,
			&priority,
			&endsAt,
		); err != nil {
			return nil, err
		}

		taskID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}

		pickup, pickupErr := kernel.NewGeoPoint(pickupLat, pickupLng)
		if pickupErr != nil {
			return nil, pickupErr
		}

		dropoff, dropoffErr := kernel.NewGeoPoint(dropoffLat, dropoffLng)
		if dropoffErr != nil {
			return nil, dropoffErr
		}

		broadcasts = append(broadcasts, GetOpenBroadcastsQueryResponse{
			TaskID:   taskID,
			Pickup:   pickup,
			Dropoff:  dropoff,
			FeeCents: fee,
			Priority: priority,
			EndsAt:   endsAt,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return broadcasts, nil
}
