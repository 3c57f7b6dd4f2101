package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// Event names pushed to courier and admin channels.
const (
	// EventTaskAvailable announces a newly opened broadcast to candidates.
	EventTaskAvailable = "task-available"

	// EventTaskUnavailable tells losing candidates the task is gone so
	// their clients stop displaying it.
	EventTaskUnavailable = "task-unavailable"

	// EventTaskAssigned confirms the assignment to the winner and the
	// admin view.
	EventTaskAssigned = "task-assigned"

	// EventTaskExpired reports a swept, unaccepted window to the admin view.
	EventTaskExpired = "task-expired"

	// EventTaskEscalated reports an expired task awaiting manual handling.
	EventTaskEscalated = "task-escalated"
)

// Event is a fan-out notification about a task's broadcast state. Pushes
// are advisory: clients learn the authoritative state from the poll
// contract, so an undelivered event is never a correctness problem.
type Event struct {
	Name      string     `json:"event"`
	TaskID    string     `json:"taskId"`
	CourierID string     `json:"courierId,omitempty"`
	Priority  int        `json:"priority,omitempty"`
	FeeCents  int64      `json:"feeCents,omitempty"`
	EndsAt    *time.Time `json:"endsAt,omitempty"`
}

// EventPublisher delivers near-real-time events to connected courier and
// admin sessions. Delivery is best-effort; implementations must not block
// state commits and failures are logged, not propagated to the caller's
// business outcome.
type EventPublisher interface {
	// PublishToCouriers delivers the event to each identified courier's
	// channel.
	PublishToCouriers(ctx context.Context, event Event, courierIDs []kernel.UUID) error

	// PublishToAdmin delivers the event to the admin dashboard channel.
	PublishToAdmin(ctx context.Context, event Event) error
}
