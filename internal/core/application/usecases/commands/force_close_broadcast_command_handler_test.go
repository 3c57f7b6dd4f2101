package commands_test

import (
	"context"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestForceCloseBroadcastCommandHandler_Handle_Success(t *testing.T) {
	ctx := context.Background()
	taskID := kernel.NewUUID()
	cmd, err := commands.NewForceCloseBroadcastCommand(taskID)
	require.NoError(t, err)

	repo := new(MockTaskRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("TaskRepository").Return(repo).Once(),
		repo.On("ForceCloseBroadcast", mock.Anything, taskID).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	publisher := new(MockEventPublisher)
	publisher.On("PublishToAdmin", mock.Anything,
		mock.MatchedBy(func(e ports.Event) bool {
			return e.Name == ports.EventTaskUnavailable && e.TaskID == taskID.String()
		})).Return(nil).Once()

	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewForceCloseBroadcastCommandHandler(factory, publisher, discardLogger())
	require.NoError(t, h.Handle(ctx, cmd))
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestForceCloseBroadcastCommandHandler_Handle_AcceptWinsRace(t *testing.T) {
	ctx := context.Background()
	taskID := kernel.NewUUID()
	cmd, err := commands.NewForceCloseBroadcastCommand(taskID)
	require.NoError(t, err)

	conflict := errs.NewConflictError("task", taskID.String(), kernel.NewUUID().String())

	repo := new(MockTaskRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("TaskRepository").Return(repo).Once(),
		repo.On("ForceCloseBroadcast", mock.Anything, taskID).Return(conflict).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	publisher := new(MockEventPublisher)
	h := commands.NewForceCloseBroadcastCommandHandler(factory, publisher, discardLogger())
	require.ErrorIs(t, h.Handle(ctx, cmd), errs.ErrConflict)
	publisher.AssertNotCalled(t, "PublishToAdmin", mock.Anything, mock.Anything)
}
