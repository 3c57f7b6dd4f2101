package commands_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewReportProgressCommand_RejectsNonDeliveryStatus(t *testing.T) {
	_, err := commands.NewReportProgressCommand(kernel.NewUUID(), kernel.NewUUID(), task.Pending)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestReportProgressCommandHandler_Handle_AssigneeAdvancesStatus(t *testing.T) {
	ctx := context.Background()
	taskID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	cmd, err := commands.NewReportProgressCommand(taskID, courierID, task.PickedUp)
	require.NoError(t, err)

	assigned := assignedTask(t, taskID, courierID, testNow.Add(time.Minute))

	taskRepo := new(MockTaskRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("TaskRepository").Return(taskRepo).Once(),
		taskRepo.On("Get", mock.Anything, taskID).Return(assigned, nil).Once(),
		taskRepo.On("Update", mock.Anything, mock.MatchedBy(func(saved *task.Task) bool {
			return saved.Status() == task.PickedUp
		}), task.Assigned).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewReportProgressCommandHandler(factory)
	require.NoError(t, h.Handle(ctx, cmd))

	taskRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestReportProgressCommandHandler_Handle_OvertakenReportGetsConflict(t *testing.T) {
	ctx := context.Background()
	taskID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	cmd, err := commands.NewReportProgressCommand(taskID, courierID, task.InProgress)
	require.NoError(t, err)

	// The handler reads picked_up, but by commit time a newer report has
	// already moved the task on; the conditional write must refuse rather
	// than regress the persisted status.
	assigned := assignedTask(t, taskID, courierID, testNow.Add(time.Minute))
	require.NoError(t, assigned.PickUp())

	conflict := errs.NewConflictError("task", taskID.String(), task.Delivered.String())

	taskRepo := new(MockTaskRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("TaskRepository").Return(taskRepo).Once(),
		taskRepo.On("Get", mock.Anything, taskID).Return(assigned, nil).Once(),
		taskRepo.On("Update", mock.Anything, mock.Anything, task.PickedUp).Return(conflict).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewReportProgressCommandHandler(factory)
	err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrConflict)

	taskRepo.AssertExpectations(t)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestReportProgressCommandHandler_Handle_NonAssigneeGetsConflict(t *testing.T) {
	ctx := context.Background()
	taskID := kernel.NewUUID()
	holderID := kernel.NewUUID()
	intruderID := kernel.NewUUID()
	cmd, err := commands.NewReportProgressCommand(taskID, intruderID, task.PickedUp)
	require.NoError(t, err)

	assigned := assignedTask(t, taskID, holderID, testNow.Add(time.Minute))

	taskRepo := new(MockTaskRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("TaskRepository").Return(taskRepo).Once(),
		taskRepo.On("Get", mock.Anything, taskID).Return(assigned, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewReportProgressCommandHandler(factory)
	err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrConflict)

	taskRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportProgressCommandHandler_Handle_OutOfOrderTransition(t *testing.T) {
	ctx := context.Background()
	taskID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	cmd, err := commands.NewReportProgressCommand(taskID, courierID, task.Delivered)
	require.NoError(t, err)

	assigned := assignedTask(t, taskID, courierID, testNow.Add(time.Minute))

	taskRepo := new(MockTaskRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("TaskRepository").Return(taskRepo).Once(),
		taskRepo.On("Get", mock.Anything, taskID).Return(assigned, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewReportProgressCommandHandler(factory)
	require.Error(t, h.Handle(ctx, cmd))

	taskRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
