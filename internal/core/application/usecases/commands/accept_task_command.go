package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrAcceptTaskCommandIsNotConstructed = errors.New(
	"AcceptTaskCommand must be created via NewAcceptTaskCommand constructor",
)

// AcceptTaskCommand represents a courier's claim on a broadcast task.
type AcceptTaskCommand struct { //nolint:recvcheck //using for validation
	taskID    kernel.UUID
	courierID kernel.UUID

	guard guard.ConstructorGuard
}

// NewAcceptTaskCommand creates a command claiming taskID for courierID.
func NewAcceptTaskCommand(taskID, courierID kernel.UUID) (AcceptTaskCommand, error) {
	acceptCommand := AcceptTaskCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		acceptCommand.setTaskID(taskID),
		acceptCommand.setCourierID(courierID),
	); err != nil {
		return AcceptTaskCommand{}, err
	}

	return acceptCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c AcceptTaskCommand) Validate() error {
	return c.guard.Validate(ErrAcceptTaskCommandIsNotConstructed)
}

// TaskID returns the identifier of the claimed task.
func (c AcceptTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

// CourierID returns the identifier of the claiming courier.
func (c AcceptTaskCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c *AcceptTaskCommand) setTaskID(taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return err
	}

	c.taskID = taskID
	return nil
}

func (c *AcceptTaskCommand) setCourierID(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	c.courierID = courierID
	return nil
}
