package commands

import (
	"context"

	"dispatch/internal/core/domain/model/task"

	"github.com/jonboulle/clockwork"
)

// CreateTaskCommandHandler persists newly registered delivery tasks.
// Tasks start in pending status with an idle broadcast; opening an
// acceptance window is a separate operation.
type CreateTaskCommandHandler struct {
	uowFactory TaskUoWFactory
	clock      clockwork.Clock
}

// NewCreateTaskCommandHandler creates a handler for task registration.
func NewCreateTaskCommandHandler(uowFactory TaskUoWFactory, clock clockwork.Clock) CreateTaskCommandHandler {
	return CreateTaskCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// Handle processes the task creation command. Builds the task aggregate
// and persists it within a transaction.
func (h CreateTaskCommandHandler) Handle(ctx context.Context, command CreateTaskCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	newTask, err := task.NewTask(
		command.TaskID(),
		command.Pickup(),
		command.Dropoff(),
		command.Fee(),
		command.Priority(),
		h.clock.Now(),
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.TaskRepository().Add(ctx, newTask); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
