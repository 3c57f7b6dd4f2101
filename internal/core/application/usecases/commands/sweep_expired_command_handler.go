package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/jonboulle/clockwork"
)

// SweepReport summarizes one sweep run.
type SweepReport struct {
	Scanned  int
	Expired  int
	Requeued int
	Skipped  int
}

// SweepExpiredCommandHandler closes acceptance windows whose deadline
// passed without an accepted claim.
//
// Scan and close are deliberately separate: the scan is a snapshot, and
// each close is its own conditional write re-checking that no courier
// accepted between scan and write. A task accepted in that gap is
// skipped, not expired; the accept stands. Tasks are processed
// independently so one failing write never aborts the rest of the batch.
type SweepExpiredCommandHandler struct {
	uowFactory TaskUoWFactory
	publisher  ports.EventPublisher
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewSweepExpiredCommandHandler creates the expiry sweep handler.
func NewSweepExpiredCommandHandler(
	uowFactory TaskUoWFactory,
	publisher ports.EventPublisher,
	clock clockwork.Clock,
	logger *slog.Logger,
) SweepExpiredCommandHandler {
	return SweepExpiredCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
	}
}

// Handle runs one sweep. Conditional writes run outside an explicit
// transaction: each is atomic on its own, and wrapping the batch in one
// transaction would tie every task's outcome to its neighbors'.
func (h SweepExpiredCommandHandler) Handle(ctx context.Context, command SweepExpiredCommand) (SweepReport, error) {
	if err := command.Validate(); err != nil {
		return SweepReport{}, err
	}

	now := h.clock.Now()
	repo := h.uowFactory.Create().TaskRepository()

	overdue, err := repo.GetExpiredBroadcasting(ctx, now, command.BatchLimit())
	if err != nil {
		return SweepReport{}, err
	}

	report := SweepReport{Scanned: len(overdue)}

	for _, overdueTask := range overdue {
		h.sweepOne(ctx, repo, overdueTask, command.Policy(), &report)
	}

	if report.Scanned > 0 {
		h.logger.InfoContext(ctx, "expiry sweep finished",
			slog.Int("scanned", report.Scanned),
			slog.Int("expired", report.Expired),
			slog.Int("requeued", report.Requeued),
			slog.Int("skipped", report.Skipped))
	}

	return report, nil
}

func (h SweepExpiredCommandHandler) sweepOne(
	ctx context.Context,
	repo ports.TaskRepository,
	overdueTask *task.Task,
	policy SweepPolicy,
	report *SweepReport,
) {
	taskID := overdueTask.ID()
	now := h.clock.Now()

	err := repo.ExpireBroadcast(ctx, taskID, now)
	switch {
	case errors.Is(err, errs.ErrConflict):
		// Accepted between scan and write; the accept wins.
		report.Skipped++
		return
	case err != nil:
		report.Skipped++
		h.logger.WarnContext(ctx, "expire failed, skipping task",
			slog.String("taskId", taskID.String()),
			slog.Any("error", err))
		return
	}

	report.Expired++

	if policy == SweepPolicyRequeue {
		if err = repo.RequeueBroadcast(ctx, taskID); err != nil {
			h.logger.WarnContext(ctx, "requeue failed, task left expired",
				slog.String("taskId", taskID.String()),
				slog.Any("error", err))
		} else {
			report.Requeued++
		}
	}

	event := ports.Event{
		Name:     ports.EventTaskExpired,
		TaskID:   taskID.String(),
		Priority: overdueTask.Priority(),
	}
	if policy == SweepPolicyEscalate {
		event.Name = ports.EventTaskEscalated
	}

	if err = h.publisher.PublishToAdmin(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "sweep admin notification failed",
			slog.String("taskId", taskID.String()),
			slog.Any("error", err))
	}
}
