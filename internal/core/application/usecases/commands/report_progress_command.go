package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrReportProgressCommandIsNotConstructed = errors.New(
	"ReportProgressCommand must be created via NewReportProgressCommand constructor",
)

// ReportProgressCommand carries a delivery-progress transition reported
// by the assigned courier: picked_up, in_progress or delivered.
type ReportProgressCommand struct { //nolint:recvcheck //using for validation
	taskID    kernel.UUID
	courierID kernel.UUID
	target    task.Status

	guard guard.ConstructorGuard
}

// NewReportProgressCommand creates a progress report for taskID by courierID.
func NewReportProgressCommand(taskID, courierID kernel.UUID, target task.Status) (ReportProgressCommand, error) {
	progressCommand := ReportProgressCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		progressCommand.setTaskID(taskID),
		progressCommand.setCourierID(courierID),
		progressCommand.setTarget(target),
	); err != nil {
		return ReportProgressCommand{}, err
	}

	return progressCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportProgressCommand) Validate() error {
	return c.guard.Validate(ErrReportProgressCommandIsNotConstructed)
}

// TaskID returns the task the progress report targets.
func (c ReportProgressCommand) TaskID() kernel.UUID {
	return c.taskID
}

// CourierID returns the reporting courier's identifier.
func (c ReportProgressCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Target returns the requested delivery status.
func (c ReportProgressCommand) Target() task.Status {
	return c.target
}

func (c *ReportProgressCommand) setTaskID(taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return err
	}

	c.taskID = taskID
	return nil
}

func (c *ReportProgressCommand) setCourierID(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	c.courierID = courierID
	return nil
}

func (c *ReportProgressCommand) setTarget(target task.Status) error {
	switch target {
	case task.PickedUp, task.InProgress, task.Delivered:
		c.target = target
		return nil
	default:
		return errs.NewValueIsInvalidError("target")
	}
}
