package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

// CancelTaskCommandHandler abandons a task on the owner's request. The
// cancel is one conditional write that releases any assignment and
// completes an active window, so it rides the same arbitration as the
// arbiter and the sweep: a task that reached delivered first stays
// delivered and the cancel reports a conflict.
type CancelTaskCommandHandler struct {
	uowFactory TaskUoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

// NewCancelTaskCommandHandler creates the cancel handler.
func NewCancelTaskCommandHandler(
	uowFactory TaskUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) CancelTaskCommandHandler {
	return CancelTaskCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
	}
}

// Handle cancels the task. Returns errs.ErrConflict when the task is
// already delivered or cancelled, errs.ErrObjectNotFound for an unknown
// task.
func (h CancelTaskCommandHandler) Handle(ctx context.Context, command CancelTaskCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.TaskRepository()

	// The assignee is read before the cancel clears it; the read only
	// names who to notify and takes no part in the arbitration.
	current, err := repo.Get(ctx, command.TaskID())
	if err != nil {
		return err
	}
	assignee := current.AssignedTo()

	if _, err = repo.CancelTask(ctx, command.TaskID()); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	event := ports.Event{
		Name:   ports.EventTaskUnavailable,
		TaskID: command.TaskID().String(),
	}

	if assignee != nil {
		if err = h.publisher.PublishToCouriers(ctx, event, []kernel.UUID{*assignee}); err != nil {
			h.logger.WarnContext(ctx, "cancel notification failed",
				slog.String("taskId", command.TaskID().String()),
				slog.String("courierId", assignee.String()),
				slog.Any("error", err))
		}
	}

	if err = h.publisher.PublishToAdmin(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "cancel admin notification failed",
			slog.String("taskId", command.TaskID().String()),
			slog.Any("error", err))
	}

	return nil
}
