package queries

import (
	"errors"
	"time"

	"dispatch/internal/pkg/guard"
)

var ErrGetBroadcastStatsQueryIsNotConstructed = errors.New(
	"GetBroadcastStatsQuery must be created via NewGetBroadcastStatsQuery constructor",
)

// GetBroadcastStatsQuery retrieves dispatch counters for the admin view.
type GetBroadcastStatsQuery struct { //nolint:recvcheck //using for validation
	since time.Time

	guard guard.ConstructorGuard
}

// NewGetBroadcastStatsQuery creates a stats query covering tasks created
// at or after since. A zero since covers all tasks.
func NewGetBroadcastStatsQuery(since time.Time) GetBroadcastStatsQuery {
	return GetBroadcastStatsQuery{
		since: since,
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the query was created through the constructor.
func (q GetBroadcastStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetBroadcastStatsQueryIsNotConstructed)
}

// Since returns the lower bound on task creation time.
func (q GetBroadcastStatsQuery) Since() time.Time {
	return q.since
}

// GetBroadcastStatsQueryResponse aggregates window outcomes.
type GetBroadcastStatsQueryResponse struct {
	Broadcasting int
	Assigned     int
	Expired      int
	Idle         int
	Completed    int
}
