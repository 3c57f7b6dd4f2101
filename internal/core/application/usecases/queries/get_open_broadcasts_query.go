// Package queries contains read-only operations over the dispatch store.
// Queries bypass the aggregate layer and read projections directly, the
// read side of the CQRS split.
package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetOpenBroadcastsQueryIsNotConstructed = errors.New(
		"GetOpenBroadcastsQuery must be created via NewGetOpenBroadcastsQuery constructor",
	)
	ErrLimitIsInvalid = errors.New("limit must not be negative")
)

// GetOpenBroadcastsQuery retrieves tasks whose acceptance window is open
// right now. This is the poll contract behind the push channel: a courier
// client that missed every push still converges on the full set of open
// tasks through this query.
type GetOpenBroadcastsQuery struct { //nolint:recvcheck //using for validation
	limit int

	guard guard.ConstructorGuard
}

// NewGetOpenBroadcastsQuery creates the poll query. A limit of 0 returns
// every open broadcast.
func NewGetOpenBroadcastsQuery(limit int) (GetOpenBroadcastsQuery, error) {
	query := GetOpenBroadcastsQuery{
		guard: guard.NewConstructorGuard(),
	}

	if err := query.setLimit(limit); err != nil {
		return GetOpenBroadcastsQuery{}, err
	}

	return query, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOpenBroadcastsQuery) Validate() error {
	return q.guard.Validate(ErrGetOpenBroadcastsQueryIsNotConstructed)
}

// Limit returns the maximum number of broadcasts to return.
func (q GetOpenBroadcastsQuery) Limit() int {
	return q.limit
}

func (q *GetOpenBroadcastsQuery) setLimit(limit int) error {
	if limit < 0 {
		return ErrLimitIsInvalid
	}

	q.limit = limit
	return nil
}

// GetOpenBroadcastsQueryResponse represents one open acceptance window.
type GetOpenBroadcastsQueryResponse struct {
	TaskID   kernel.UUID
	Pickup   kernel.GeoPoint
	Dropoff  kernel.GeoPoint
	FeeCents int64
	Priority int
	EndsAt   time.Time
}
