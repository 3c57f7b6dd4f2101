// Package ports defines the contracts between the dispatch domain and
// infrastructure: repositories, the unit of work, and the fan-out
// publisher. These interfaces enable dependency inversion and testability.
package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
)

// TaskRepository defines the persistence contract for task aggregates.
//
// The broadcast-affecting mutations (Accept, OpenBroadcast, ExpireBroadcast,
// RequeueBroadcast, ForceCloseBroadcast) are conditional writes: each checks
// its precondition and mutates in ONE indivisible server-side operation, so
// concurrent callers race on the storage layer rather than in application
// code. No other code path may write the broadcast fields.
type TaskRepository interface {
	// Add persists a new task aggregate.
	Add(ctx context.Context, aggregate *task.Task) error

	// Update persists a delivery-progress transition, conditioned on the
	// status still being expectedStatus at commit time. A stale caller
	// whose read has been overtaken receives errs.ErrConflict instead of
	// overwriting the newer state. Broadcast fields go through the
	// conditional operations below.
	Update(ctx context.Context, aggregate *task.Task, expectedStatus task.Status) error

	// Get retrieves a task aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*task.Task, error)

	// Accept atomically assigns the task to courierID if, at commit time,
	// the window is still open: broadcastStatus broadcasting, no assignee,
	// deadline after now. At most one caller per task ever succeeds.
	//
	// Losing callers receive a classified error: errs.ErrConflict when the
	// task went to another courier, errs.ErrExpired when the deadline had
	// passed (whether or not the sweep marked it), errs.ErrObjectNotFound
	// for an unknown task.
	Accept(ctx context.Context, taskID, courierID kernel.UUID, now time.Time) (*task.Task, error)

	// OpenBroadcast atomically opens an acceptance window ending at endTime,
	// conditioned on the task being pending, unassigned, and not already
	// broadcasting. Re-opening an expired task re-checks that no assignment
	// happened in the interim.
	OpenBroadcast(ctx context.Context, taskID kernel.UUID, endTime, now time.Time) (*task.Task, error)

	// ExpireBroadcast atomically moves an active window past its deadline
	// to expired, conditioned on the assignee still being null at commit
	// time. A task accepted between scan and write is left untouched and
	// errs.ErrConflict is returned.
	ExpireBroadcast(ctx context.Context, taskID kernel.UUID, now time.Time) error

	// RequeueBroadcast atomically returns an expired, unassigned window to
	// idle so the task can be re-broadcast.
	RequeueBroadcast(ctx context.Context, taskID kernel.UUID) error

	// ForceCloseBroadcast atomically closes an active, unassigned window
	// without an assignment (operator action).
	ForceCloseBroadcast(ctx context.Context, taskID kernel.UUID) error

	// CancelTask atomically cancels a task that has not reached a terminal
	// state, releasing any assignment and completing an active window.
	// Delivered or already-cancelled tasks yield errs.ErrConflict.
	CancelTask(ctx context.Context, taskID kernel.UUID) (*task.Task, error)

	// GetExpiredBroadcasting returns tasks whose window is still marked
	// broadcasting but whose deadline is at or before now, unassigned.
	// Used by the expiry sweep; limit 0 means no limit.
	GetExpiredBroadcasting(ctx context.Context, now time.Time, limit int) ([]*task.Task, error)
}
