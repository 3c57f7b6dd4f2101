package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"
)

// ForceCloseBroadcastCommandHandler closes an active window on operator
// request. The close races acceptors on the same conditional-write path
// as everything else: if a courier's accept commits first, the close
// returns errs.ErrConflict and the assignment stands.
type ForceCloseBroadcastCommandHandler struct {
	uowFactory TaskUoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

// NewForceCloseBroadcastCommandHandler creates the force-close handler.
func NewForceCloseBroadcastCommandHandler(
	uowFactory TaskUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) ForceCloseBroadcastCommandHandler {
	return ForceCloseBroadcastCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
	}
}

// Handle closes the window. Returns errs.ErrConflict when the task was
// accepted or is not broadcasting, errs.ErrObjectNotFound for an
// unknown task.
func (h ForceCloseBroadcastCommandHandler) Handle(ctx context.Context, command ForceCloseBroadcastCommand) error {
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

	if err := uow.TaskRepository().ForceCloseBroadcast(ctx, command.TaskID()); err != nil {
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	event := ports.Event{
		Name:   ports.EventTaskUnavailable,
		TaskID: command.TaskID().String(),
	}
	if err := h.publisher.PublishToAdmin(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "force-close notification failed",
			slog.String("taskId", command.TaskID().String()),
			slog.Any("error", err))
	}

	return nil
}
