package commands

import (
	"context"

	"github.com/jonboulle/clockwork"
)

// ReportLocationCommandHandler stores courier position updates. A report
// doubles as a liveness heartbeat: the courier is marked online, which
// makes it visible to the candidate search.
type ReportLocationCommandHandler struct {
	uowFactory CourierUoWFactory
	clock      clockwork.Clock
}

// NewReportLocationCommandHandler creates a handler for location reports.
func NewReportLocationCommandHandler(uowFactory CourierUoWFactory, clock clockwork.Clock) ReportLocationCommandHandler {
	return ReportLocationCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// Handle processes one location report.
func (h ReportLocationCommandHandler) Handle(ctx context.Context, command ReportLocationCommand) error {
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

	repo := uow.CourierRepository()

	reporting, err := repo.Get(ctx, command.CourierID())
	if err != nil {
		return err
	}

	if err = reporting.ReportLocation(command.Location(), h.clock.Now()); err != nil {
		return err
	}
	reporting.GoOnline()

	if err = repo.Update(ctx, reporting); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
