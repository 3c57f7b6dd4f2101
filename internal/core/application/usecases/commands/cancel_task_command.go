package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCancelTaskCommandIsNotConstructed = errors.New(
	"CancelTaskCommand must be created via NewCancelTaskCommand constructor",
)

// CancelTaskCommand represents the task owner abandoning a task before
// delivery completes.
type CancelTaskCommand struct { //nolint:recvcheck //using for validation
	taskID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCancelTaskCommand creates a command to cancel taskID.
func NewCancelTaskCommand(taskID kernel.UUID) (CancelTaskCommand, error) {
	cancelCommand := CancelTaskCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cancelCommand.setTaskID(taskID); err != nil {
		return CancelTaskCommand{}, err
	}

	return cancelCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelTaskCommand) Validate() error {
	return c.guard.Validate(ErrCancelTaskCommandIsNotConstructed)
}

// TaskID returns the identifier of the task being cancelled.
func (c CancelTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

func (c *CancelTaskCommand) setTaskID(taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return err
	}

	c.taskID = taskID
	return nil
}
