package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrForceCloseBroadcastCommandIsNotConstructed = errors.New(
	"ForceCloseBroadcastCommand must be created via NewForceCloseBroadcastCommand constructor",
)

// ForceCloseBroadcastCommand represents an operator closing an active
// acceptance window without an assignment.
type ForceCloseBroadcastCommand struct { //nolint:recvcheck //using for validation
	taskID kernel.UUID

	guard guard.ConstructorGuard
}

// NewForceCloseBroadcastCommand creates a command to close taskID's window.
func NewForceCloseBroadcastCommand(taskID kernel.UUID) (ForceCloseBroadcastCommand, error) {
	closeCommand := ForceCloseBroadcastCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := closeCommand.setTaskID(taskID); err != nil {
		return ForceCloseBroadcastCommand{}, err
	}

	return closeCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c ForceCloseBroadcastCommand) Validate() error {
	return c.guard.Validate(ErrForceCloseBroadcastCommandIsNotConstructed)
}

// TaskID returns the identifier of the task whose window closes.
func (c ForceCloseBroadcastCommand) TaskID() kernel.UUID {
	return c.taskID
}

func (c *ForceCloseBroadcastCommand) setTaskID(taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return err
	}

	c.taskID = taskID
	return nil
}
