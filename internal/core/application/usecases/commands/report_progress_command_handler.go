package commands

import (
	"context"

	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"
)

// ReportProgressCommandHandler advances an assigned task through its
// delivery stages. Only the courier holding the assignment may report
// progress; anyone else gets a conflict. Broadcast fields are untouched
// here, so a progress report can never race the arbiter or the sweep.
type ReportProgressCommandHandler struct {
	uowFactory TaskUoWFactory
}

// NewReportProgressCommandHandler creates a handler for progress reports.
func NewReportProgressCommandHandler(uowFactory TaskUoWFactory) ReportProgressCommandHandler {
	return ReportProgressCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle applies one progress transition. Returns errs.ErrConflict when
// the reporting courier does not hold the assignment, or a validation
// error when the transition is out of order.
func (h ReportProgressCommandHandler) Handle(ctx context.Context, command ReportProgressCommand) error {
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

	reported, err := repo.Get(ctx, command.TaskID())
	if err != nil {
		return err
	}

	assignee := reported.AssignedTo()
	if assignee == nil || !assignee.IsEqual(command.CourierID()) {
		holder := "none"
		if assignee != nil {
			holder = assignee.String()
		}
		return errs.NewConflictError("task", command.TaskID().String(), holder)
	}

	priorStatus := reported.Status()

	switch command.Target() {
	case task.PickedUp:
		err = reported.PickUp()
	case task.InProgress:
		err = reported.StartDelivery()
	case task.Delivered:
		err = reported.CompleteDelivery()
	}
	if err != nil {
		return err
	}

	// Conditioned on the status we read; a duplicate or stalled report
	// that lost the race gets a conflict instead of regressing the task.
	if err = repo.Update(ctx, reported, priorStatus); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
