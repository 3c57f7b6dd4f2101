package task

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrTaskIsNotConstructed is returned when a Task instance was not
	// created through NewTask or RestoreTask.
	ErrTaskIsNotConstructed = errors.New("Task must be created via NewTask or RestoreTask constructor")
)

// Task is the aggregate root for a delivery job awaiting courier assignment.
// It carries both the delivery lifecycle (Status) and the broadcast window
// sub-state (BroadcastStatus, BroadcastEndTime).
//
// Invariants:
//   - AssignedTo is non-nil exactly when Status requires a courier
//     (assigned, picked_up, in_progress, delivered)
//   - an active broadcast implies Status pending, no assignee, and a future
//     deadline; records violating the deadline clause are stale and are
//     reconciled by the expiry sweep
//   - priority is non-negative, fee is non-negative
//
// The in-memory transitions here mirror the conditional updates the
// repository performs server-side; the repository's conditional write is the
// arbiter under concurrency, the aggregate enforces the same rules for
// single-writer paths and for reconstructed state.
type Task struct {
	id              kernel.UUID
	status          Status
	broadcastStatus BroadcastStatus

	// broadcastEndTime is the acceptance deadline while a window is open.
	broadcastEndTime *time.Time

	// assignedTo is the winning courier, nil until acceptance.
	assignedTo *kernel.UUID

	priority   int
	fee        int64
	pickup     kernel.GeoPoint
	dropoff    kernel.GeoPoint
	createdAt  time.Time
	acceptedAt *time.Time

	isConstructed bool
}

// NewTask creates a Task in Pending status with an idle broadcast sub-state.
//
// Parameters:
//   - id: unique task identifier
//   - pickup, dropoff: validated geographic endpoints
//   - fee: courier fee in minor currency units (must not be negative)
//   - priority: dispatch priority ordinal (must not be negative)
//   - createdAt: creation timestamp supplied by the caller's clock
func NewTask(id kernel.UUID, pickup, dropoff kernel.GeoPoint, fee int64, priority int, createdAt time.Time) (*Task, error) {
	t := &Task{
		status:          Pending,
		broadcastStatus: BroadcastIdle,
		createdAt:       createdAt,
		isConstructed:   true,
	}

	if err := errors.Join(
		t.setID(id),
		t.setPickup(pickup),
		t.setDropoff(dropoff),
		t.setFee(fee),
		t.setPriority(priority),
	); err != nil {
		return nil, err
	}

	return t, nil
}

// RestoreTask reconstructs a Task from persistence without replaying
// transitions. The stored state is still validated, including the
// assignedTo/status invariant.
func RestoreTask(
	id kernel.UUID,
	pickup, dropoff kernel.GeoPoint,
	fee int64,
	priority int,
	status Status,
	broadcastStatus BroadcastStatus,
	broadcastEndTime *time.Time,
	assignedTo *kernel.UUID,
	createdAt time.Time,
	acceptedAt *time.Time,
) (*Task, error) {
	t := &Task{
		status:           status,
		broadcastStatus:  broadcastStatus,
		broadcastEndTime: broadcastEndTime,
		assignedTo:       assignedTo,
		createdAt:        createdAt,
		acceptedAt:       acceptedAt,
		isConstructed:    true,
	}

	if err := errors.Join(
		t.setID(id),
		t.setPickup(pickup),
		t.setDropoff(dropoff),
		t.setFee(fee),
		t.setPriority(priority),
		status.Validate(),
		broadcastStatus.Validate(),
	); err != nil {
		return nil, err
	}

	if status.HasCourier() != (assignedTo != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause("assignedTo",
			fmt.Errorf("status %s requires assignedTo=%v", status, status.HasCourier()))
	}

	return t, nil
}

// Validate ensures the Task was created through a constructor.
func (t *Task) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTaskIsNotConstructed
	}
	return nil
}

// IsEqual compares tasks by identifier.
func (t *Task) IsEqual(other *Task) bool {
	return other != nil && t.id.IsEqual(other.id)
}

// ID returns the task's unique identifier.
func (t *Task) ID() kernel.UUID {
	return t.id
}

// Status returns the delivery lifecycle status.
func (t *Task) Status() Status {
	return t.status
}

// BroadcastStatus returns the broadcast window sub-state.
func (t *Task) BroadcastStatus() BroadcastStatus {
	return t.broadcastStatus
}

// BroadcastEndTime returns the acceptance deadline, nil when no window has
// been opened.
func (t *Task) BroadcastEndTime() *time.Time {
	return t.broadcastEndTime
}

// AssignedTo returns the winning courier's ID, nil until acceptance.
func (t *Task) AssignedTo() *kernel.UUID {
	return t.assignedTo
}

// Priority returns the dispatch priority ordinal (higher dispatches first).
func (t *Task) Priority() int {
	return t.priority
}

// Fee returns the courier fee in minor currency units.
func (t *Task) Fee() int64 {
	return t.fee
}

// Pickup returns the pickup point.
func (t *Task) Pickup() kernel.GeoPoint {
	return t.pickup
}

// Dropoff returns the dropoff point.
func (t *Task) Dropoff() kernel.GeoPoint {
	return t.dropoff
}

// CreatedAt returns the creation timestamp.
func (t *Task) CreatedAt() time.Time {
	return t.createdAt
}

// AcceptedAt returns the acceptance timestamp, nil until acceptance.
func (t *Task) AcceptedAt() *time.Time {
	return t.acceptedAt
}

// IsOpenForAcceptance reports whether a courier could accept the task at the
// given instant: window active, nobody assigned, deadline in the future.
func (t *Task) IsOpenForAcceptance(now time.Time) bool {
	return t.broadcastStatus == BroadcastActive &&
		t.assignedTo == nil &&
		t.broadcastEndTime != nil &&
		t.broadcastEndTime.After(now)
}

// OpenBroadcast opens (or re-opens) an acceptance window ending at endTime.
// The task must be unassigned and Pending, with the window idle or expired;
// re-opening after expiry is how the requeue policy widens parameters.
func (t *Task) OpenBroadcast(endTime, now time.Time) error {
	if t.assignedTo != nil {
		return errs.NewConflictError("task", t.id.String(), t.assignedTo.String())
	}

	if t.status != Pending {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("cannot broadcast a task in status %s", t.status))
	}

	if t.broadcastStatus == BroadcastActive {
		return errs.NewConflictError("task broadcast", t.id.String(), nil)
	}

	if !endTime.After(now) {
		return errs.NewValueIsInvalidErrorWithCause("broadcastEndTime",
			fmt.Errorf("window end %s is not after %s", endTime, now))
	}

	t.broadcastStatus = BroadcastActive
	t.broadcastEndTime = &endTime
	return nil
}

// Accept assigns the task to courierID if the acceptance precondition holds
// at the given instant. Returns a conflict error when another courier
// already holds the task and an expired error when the deadline has passed,
// whether or not the sweep has marked it yet.
func (t *Task) Accept(courierID kernel.UUID, now time.Time) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	if t.assignedTo != nil {
		return errs.NewConflictError("task", t.id.String(), t.assignedTo.String())
	}

	if t.broadcastStatus != BroadcastActive || t.broadcastEndTime == nil || !t.broadcastEndTime.After(now) {
		return errs.NewExpiredError("task", t.id.String())
	}

	newStatus, err := t.status.Assign()
	if err != nil {
		return err
	}

	t.status = newStatus
	t.assignedTo = &courierID
	t.broadcastStatus = BroadcastCompleted
	acceptedAt := now
	t.acceptedAt = &acceptedAt
	return nil
}

// ExpireBroadcast transitions an active window past its deadline to
// expired. No-op preconditions mirror the sweep's conditional write: the
// task must still be unassigned with an active window whose deadline has
// passed.
func (t *Task) ExpireBroadcast(now time.Time) error {
	if t.assignedTo != nil {
		return errs.NewConflictError("task", t.id.String(), t.assignedTo.String())
	}

	if t.broadcastStatus != BroadcastActive {
		return errs.NewValueIsInvalidErrorWithCause("broadcastStatus",
			fmt.Errorf("cannot expire a window in state %s", t.broadcastStatus))
	}

	if t.broadcastEndTime != nil && t.broadcastEndTime.After(now) {
		return errs.NewValueIsInvalidErrorWithCause("broadcastEndTime",
			fmt.Errorf("window has not ended yet"))
	}

	t.broadcastStatus = BroadcastExpired
	return nil
}

// RequeueBroadcast returns an expired task's window to idle so the task
// owner can re-open it with adjusted parameters.
func (t *Task) RequeueBroadcast() error {
	if t.broadcastStatus != BroadcastExpired {
		return errs.NewValueIsInvalidErrorWithCause("broadcastStatus",
			fmt.Errorf("cannot requeue a window in state %s", t.broadcastStatus))
	}

	t.broadcastStatus = BroadcastIdle
	t.broadcastEndTime = nil
	return nil
}

// ForceCloseBroadcast closes an active, unassigned window without an
// assignment. Operator action; the task stays pending.
func (t *Task) ForceCloseBroadcast() error {
	if t.assignedTo != nil {
		return errs.NewConflictError("task", t.id.String(), t.assignedTo.String())
	}

	if t.broadcastStatus != BroadcastActive {
		return errs.NewValueIsInvalidErrorWithCause("broadcastStatus",
			fmt.Errorf("cannot force-close a window in state %s", t.broadcastStatus))
	}

	t.broadcastStatus = BroadcastCompleted
	return nil
}

// PickUp marks the package as collected by the assigned courier.
func (t *Task) PickUp() error {
	newStatus, err := t.status.PickUp()
	if err != nil {
		return err
	}
	t.status = newStatus
	return nil
}

// StartDelivery marks the courier en route to the dropoff.
func (t *Task) StartDelivery() error {
	newStatus, err := t.status.Start()
	if err != nil {
		return err
	}
	t.status = newStatus
	return nil
}

// CompleteDelivery marks the task delivered. Terminal.
func (t *Task) CompleteDelivery() error {
	newStatus, err := t.status.Deliver()
	if err != nil {
		return err
	}
	t.status = newStatus
	return nil
}

// Cancel abandons the task. Any assignment is released so the
// assignedTo/status invariant keeps holding.
func (t *Task) Cancel() error {
	newStatus, err := t.status.Cancel()
	if err != nil {
		return err
	}
	t.status = newStatus
	t.assignedTo = nil
	if t.broadcastStatus == BroadcastActive {
		t.broadcastStatus = BroadcastCompleted
	}
	return nil
}

func (t *Task) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.id = id
	return nil
}

func (t *Task) setPickup(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	t.pickup = p
	return nil
}

func (t *Task) setDropoff(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	t.dropoff = p
	return nil
}

func (t *Task) setFee(fee int64) error {
	if fee < 0 {
		return errs.NewValueIsInvalidErrorWithCause("fee is invalid",
			fmt.Errorf("%d is negative", fee))
	}
	t.fee = fee
	return nil
}

func (t *Task) setPriority(priority int) error {
	if priority < 0 {
		return errs.NewValueIsInvalidErrorWithCause("priority is invalid",
			fmt.Errorf("%d is negative", priority))
	}
	t.priority = priority
	return nil
}
