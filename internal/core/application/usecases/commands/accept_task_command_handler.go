package commands

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/jonboulle/clockwork"
)

// AcceptTaskCommandHandler arbitrates competing claims on a broadcast
// task. Exactly one claim per task succeeds; arbitration happens in the
// repository's single conditional write, never in handler code, so any
// number of process replicas can run this handler concurrently.
//
// After the winning commit the handler fans out advisory events: the
// assignment to the winner and the admin channel, and a withdrawal to
// the other candidates still in range so their clients drop the task.
// Fan-out runs off the request path on a detached context; failures are
// logged and never affect the accept outcome.
type AcceptTaskCommandHandler struct {
	uowFactory     UoWFactory
	publisher      ports.EventPublisher
	notifyRadiusKm float64
	clock          clockwork.Clock
	logger         *slog.Logger
}

// NewAcceptTaskCommandHandler creates the acceptance arbiter handler.
// notifyRadiusKm bounds the post-accept withdrawal fan-out.
func NewAcceptTaskCommandHandler(
	uowFactory UoWFactory,
	publisher ports.EventPublisher,
	notifyRadiusKm float64,
	clock clockwork.Clock,
	logger *slog.Logger,
) AcceptTaskCommandHandler {
	return AcceptTaskCommandHandler{
		uowFactory:     uowFactory,
		publisher:      publisher,
		notifyRadiusKm: notifyRadiusKm,
		clock:          clock,
		logger:         logger,
	}
}

// Handle processes one claim. Returns nil when this courier won the
// task. Losing claims return the repository's classification unchanged:
// errs.ErrConflict (another courier holds it), errs.ErrExpired (the
// window had closed), or errs.ErrObjectNotFound.
func (h AcceptTaskCommandHandler) Handle(ctx context.Context, command AcceptTaskCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	now := h.clock.Now()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	accepted, err := uow.TaskRepository().Accept(ctx, command.TaskID(), command.CourierID(), now)
	if err != nil {
		return err
	}

	// Losers are looked up inside the same transaction so the withdrawal
	// list reflects the state the accept committed against.
	nearby, err := uow.CourierRepository().FindNearby(ctx, accepted.Pickup(), h.notifyRadiusKm, 0)
	if err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	// The accept decision is already final; couriers that never see the
	// push still converge through the poll contract.
	go h.fanOut(context.WithoutCancel(ctx), accepted.ID(), command.CourierID(), nearby)

	return nil
}

const fanOutTimeout = 5 * time.Second

func (h AcceptTaskCommandHandler) fanOut(
	ctx context.Context,
	taskID, winnerID kernel.UUID,
	nearby []ports.NearbyCourier,
) {
	ctx, cancel := context.WithTimeout(ctx, fanOutTimeout)
	defer cancel()

	assigned := ports.Event{
		Name:      ports.EventTaskAssigned,
		TaskID:    taskID.String(),
		CourierID: winnerID.String(),
	}

	if err := h.publisher.PublishToCouriers(ctx, assigned, []kernel.UUID{winnerID}); err != nil {
		h.logger.WarnContext(ctx, "winner notification failed",
			slog.String("taskId", taskID.String()),
			slog.Any("error", err))
	}

	if err := h.publisher.PublishToAdmin(ctx, assigned); err != nil {
		h.logger.WarnContext(ctx, "admin notification failed",
			slog.String("taskId", taskID.String()),
			slog.Any("error", err))
	}

	losers := make([]kernel.UUID, 0, len(nearby))
	for _, n := range nearby {
		if n.Courier.ID().IsEqual(winnerID) {
			continue
		}
		losers = append(losers, n.Courier.ID())
	}

	if len(losers) == 0 {
		return
	}

	withdrawn := ports.Event{
		Name:   ports.EventTaskUnavailable,
		TaskID: taskID.String(),
	}

	if err := h.publisher.PublishToCouriers(ctx, withdrawn, losers); err != nil {
		h.logger.WarnContext(ctx, "withdrawal fan-out failed",
			slog.String("taskId", taskID.String()),
			slog.Int("losers", len(losers)),
			slog.Any("error", err))
	}
}
