package task

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the delivery lifecycle state of a task.
//
// State transitions:
//
//	Pending ──> Assigned ──> PickedUp ──> InProgress ──> Delivered
//	   │            │
//	   └────────────┴──────> Cancelled
//
// Broadcasting exists as a persisted legacy value some task owners still
// write; the broadcast sub-state proper lives in BroadcastStatus, and a task
// with an open window keeps Status Pending.
type Status int

const (
	// StatusUnknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	StatusUnknown Status = iota

	// Pending is the initial status; the task awaits courier assignment.
	Pending

	// Broadcasting mirrors an open broadcast window. Accepted for
	// compatibility with external writers; the dispatch flows keep tasks
	// Pending while their window is open.
	Broadcasting

	// Assigned indicates a courier won the acceptance race.
	Assigned

	// PickedUp indicates the assigned courier collected the package.
	PickedUp

	// InProgress indicates the courier is en route to the dropoff.
	InProgress

	// Delivered is the terminal success state.
	Delivered

	// Cancelled is the terminal state for abandoned tasks.
	Cancelled
)

func statusStrings() map[Status]string {
	return map[Status]string{
		StatusUnknown: "unknown",
		Pending:       "pending",
		Broadcasting:  "broadcasting",
		Assigned:      "assigned",
		PickedUp:      "picked_up",
		InProgress:    "in_progress",
		Delivered:     "delivered",
		Cancelled:     "cancelled",
	}
}

func validStatusStrings() map[Status]string {
	//nolint:exhaustive // StatusUnknown is intentionally excluded as invalid
	return map[Status]string{
		Pending:      "pending",
		Broadcasting: "broadcasting",
		Assigned:     "assigned",
		PickedUp:     "picked_up",
		InProgress:   "in_progress",
		Delivered:    "delivered",
		Cancelled:    "cancelled",
	}
}

// Validate rejects StatusUnknown and any value outside the defined set.
// Used to check Status values arriving from persistence or external systems.
func (s Status) Validate() error {
	if _, ok := validStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String implements fmt.Stringer. Safe on any value, including invalid ones.
func (s Status) String() string {
	if str, ok := statusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// StatusFromString parses a persisted wire name into a Status.
func StatusFromString(s string) (Status, error) {
	for status, str := range validStatusStrings() {
		if str == s {
			return status, nil
		}
	}
	return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status is invalid",
		fmt.Errorf("%q is not a valid status", s))
}

// HasCourier reports whether this status requires an assigned courier.
// The assignedTo invariant holds exactly over these states.
func (s Status) HasCourier() bool {
	switch s {
	case Assigned, PickedUp, InProgress, Delivered:
		return true
	default:
		return false
	}
}

// Assign returns the status after a successful acceptance.
// Only Pending (or the legacy Broadcasting mirror) can be assigned.
func (s Status) Assign() (Status, error) {
	switch s {
	case Pending, Broadcasting:
		return Assigned, nil
	default:
		return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status transition",
			fmt.Errorf("cannot assign a task in status %s", s))
	}
}

// PickUp returns the status after the courier collects the package.
func (s Status) PickUp() (Status, error) {
	if s != Assigned {
		return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status transition",
			fmt.Errorf("cannot pick up a task in status %s", s))
	}
	return PickedUp, nil
}

// Start returns the status once the courier is en route to the dropoff.
func (s Status) Start() (Status, error) {
	if s != PickedUp {
		return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status transition",
			fmt.Errorf("cannot start delivery of a task in status %s", s))
	}
	return InProgress, nil
}

// Deliver returns the terminal Delivered status.
func (s Status) Deliver() (Status, error) {
	if s != InProgress {
		return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status transition",
			fmt.Errorf("cannot deliver a task in status %s", s))
	}
	return Delivered, nil
}

// Cancel returns the terminal Cancelled status. Delivered tasks cannot be
// cancelled.
func (s Status) Cancel() (Status, error) {
	switch s {
	case Delivered, Cancelled, StatusUnknown:
		return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status transition",
			fmt.Errorf("cannot cancel a task in status %s", s))
	default:
		return Cancelled, nil
	}
}

// BroadcastStatus represents the broadcast sub-state of a task, tracked
// independently of the delivery lifecycle.
//
// State transitions:
//
//	BroadcastIdle ──open──> BroadcastActive ──accept──> BroadcastCompleted
//	                             │    ▲
//	                       sweep │    │ reopen
//	                             ▼    │
//	                        BroadcastExpired ──escalate──> (stays expired)
type BroadcastStatus int

const (
	// BroadcastStatusUnknown represents an invalid or undefined value.
	BroadcastStatusUnknown BroadcastStatus = iota

	// BroadcastIdle means no window is open for the task.
	BroadcastIdle

	// BroadcastActive means a window is open and couriers may accept.
	BroadcastActive

	// BroadcastExpired means the window deadline passed without acceptance.
	BroadcastExpired

	// BroadcastCompleted means the window closed with an assignment, or was
	// force-closed by an operator.
	BroadcastCompleted
)

func broadcastStatusStrings() map[BroadcastStatus]string {
	return map[BroadcastStatus]string{
		BroadcastStatusUnknown: "unknown",
		BroadcastIdle:          "idle",
		BroadcastActive:        "broadcasting",
		BroadcastExpired:       "expired",
		BroadcastCompleted:     "completed",
	}
}

// Validate rejects BroadcastStatusUnknown and out-of-set values.
func (s BroadcastStatus) Validate() error {
	switch s {
	case BroadcastIdle, BroadcastActive, BroadcastExpired, BroadcastCompleted:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("broadcast status is invalid",
			fmt.Errorf("%d is not a valid broadcast status", s))
	}
}

// String implements fmt.Stringer using the wire names (idle, broadcasting,
// expired, completed).
func (s BroadcastStatus) String() string {
	if str, ok := broadcastStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// BroadcastStatusFromString parses a persisted wire name into a
// BroadcastStatus.
func BroadcastStatusFromString(s string) (BroadcastStatus, error) {
	for status, str := range broadcastStatusStrings() {
		if status != BroadcastStatusUnknown && str == s {
			return status, nil
		}
	}
	return BroadcastStatusUnknown, errs.NewValueIsInvalidErrorWithCause("broadcast status is invalid",
		fmt.Errorf("%q is not a valid broadcast status", s))
}
