package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"

	"github.com/jonboulle/clockwork"
)

// OpenBroadcastCommandHandler opens an acceptance window for a pending
// task and notifies nearby candidate couriers.
//
// The window opens through a single conditional repository write, so a
// task can never carry two active windows no matter how many operators
// race on it. Candidate lookup happens in the same transaction; the
// notification fan-out runs after commit and is best-effort. A window
// that opens with zero candidates in range is still a valid window:
// couriers coming online later discover it through the poll contract.
type OpenBroadcastCommandHandler struct {
	uowFactory UoWFactory
	publisher  ports.EventPublisher
	planner    services.BroadcastPlanner
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewOpenBroadcastCommandHandler creates a handler for opening acceptance
// windows.
func NewOpenBroadcastCommandHandler(
	uowFactory UoWFactory,
	publisher ports.EventPublisher,
	planner services.BroadcastPlanner,
	clock clockwork.Clock,
	logger *slog.Logger,
) OpenBroadcastCommandHandler {
	return OpenBroadcastCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		planner:    planner,
		clock:      clock,
		logger:     logger,
	}
}

// Handle opens the acceptance window. Returns errs.ErrConflict if the
// task is already broadcasting or assigned, errs.ErrObjectNotFound for
// an unknown task.
func (h OpenBroadcastCommandHandler) Handle(ctx context.Context, command OpenBroadcastCommand) error {
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

	taskRepo := uow.TaskRepository()

	current, err := taskRepo.Get(ctx, command.TaskID())
	if err != nil {
		return err
	}

	radiusKm := h.planner.EffectiveRadiusKm(command.RadiusKm(), current.Priority())
	window := h.planner.EffectiveWindow(command.Window(), current.Priority())
	endTime := now.Add(window)

	opened, err := taskRepo.OpenBroadcast(ctx, command.TaskID(), endTime, now)
	if err != nil {
		return err
	}

	nearby, err := uow.CourierRepository().FindNearby(ctx, opened.Pickup(), radiusKm, 0)
	if err != nil {
		return err
	}

	couriers := make([]*courier.Courier, 0, len(nearby))
	for _, n := range nearby {
		couriers = append(couriers, n.Courier)
	}

	candidates, err := h.planner.RankCandidates(opened.Pickup(), couriers, radiusKm, command.CandidateLimit())
	if err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	courierIDs := make([]kernel.UUID, 0, len(candidates))
	for _, c := range candidates {
		courierIDs = append(courierIDs, c.Courier.ID())
	}

	ends := opened.BroadcastEndTime()
	event := ports.Event{
		Name:     ports.EventTaskAvailable,
		TaskID:   opened.ID().String(),
		Priority: opened.Priority(),
		FeeCents: opened.Fee(),
		EndsAt:   ends,
	}

	if err = h.publisher.PublishToCouriers(ctx, event, courierIDs); err != nil {
		h.logger.WarnContext(ctx, "broadcast fan-out failed",
			slog.String("taskId", opened.ID().String()),
			slog.Int("candidates", len(courierIDs)),
			slog.Any("error", err))
	}

	return nil
}
