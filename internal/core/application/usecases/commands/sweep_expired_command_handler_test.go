package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSweepHandler(
	factory commands.TaskUoWFactory,
	publisher ports.EventPublisher,
) commands.SweepExpiredCommandHandler {
	return commands.NewSweepExpiredCommandHandler(
		factory, publisher, clockwork.NewFakeClockAt(testNow), discardLogger())
}

func TestSweepExpiredCommandHandler_Handle_EscalatesOverdueTasks(t *testing.T) {
	ctx := context.Background()
	cmd, err := commands.NewSweepExpiredCommand(commands.SweepPolicyEscalate, 0)
	require.NoError(t, err)

	overdue := broadcastingTask(t, kernel.NewUUID(), testNow.Add(-time.Second))

	taskRepo := new(MockTaskRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("TaskRepository").Return(taskRepo).Once(),
		taskRepo.On("GetExpiredBroadcasting", mock.Anything, testNow, 0).
			Return([]*task.Task{overdue}, nil).Once(),
		taskRepo.On("ExpireBroadcast", mock.Anything, overdue.ID(), testNow).Return(nil).Once(),
	)

	publisher := new(MockEventPublisher)
	publisher.On("PublishToAdmin", mock.Anything,
		mock.MatchedBy(func(e ports.Event) bool {
			return e.Name == ports.EventTaskEscalated && e.TaskID == overdue.ID().String()
		})).Return(nil).Once()

	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	report, err := newSweepHandler(factory, publisher).Handle(ctx, cmd)
	require.NoError(t, err)
	require.Equal(t, commands.SweepReport{Scanned: 1, Expired: 1}, report)

	taskRepo.AssertNotCalled(t, "RequeueBroadcast", mock.Anything, mock.Anything)
	taskRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSweepExpiredCommandHandler_Handle_RequeuePolicy(t *testing.T) {
	ctx := context.Background()
	cmd, err := commands.NewSweepExpiredCommand(commands.SweepPolicyRequeue, 10)
	require.NoError(t, err)

	overdue := broadcastingTask(t, kernel.NewUUID(), testNow.Add(-time.Second))

	taskRepo := new(MockTaskRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("TaskRepository").Return(taskRepo).Once(),
		taskRepo.On("GetExpiredBroadcasting", mock.Anything, testNow, 10).
			Return([]*task.Task{overdue}, nil).Once(),
		taskRepo.On("ExpireBroadcast", mock.Anything, overdue.ID(), testNow).Return(nil).Once(),
		taskRepo.On("RequeueBroadcast", mock.Anything, overdue.ID()).Return(nil).Once(),
	)

	publisher := new(MockEventPublisher)
	publisher.On("PublishToAdmin", mock.Anything,
		mock.MatchedBy(func(e ports.Event) bool { return e.Name == ports.EventTaskExpired }),
	).Return(nil).Once()

	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	report, err := newSweepHandler(factory, publisher).Handle(ctx, cmd)
	require.NoError(t, err)
	require.Equal(t, commands.SweepReport{Scanned: 1, Expired: 1, Requeued: 1}, report)
	taskRepo.AssertExpectations(t)
}

func TestSweepExpiredCommandHandler_Handle_AcceptedBetweenScanAndWriteIsSkipped(t *testing.T) {
	ctx := context.Background()
	cmd, err := commands.NewSweepExpiredCommand(commands.SweepPolicyEscalate, 0)
	require.NoError(t, err)

	contested := broadcastingTask(t, kernel.NewUUID(), testNow.Add(-time.Second))
	conflict := errs.NewConflictError("task", contested.ID().String(), kernel.NewUUID().String())

	taskRepo := new(MockTaskRepository)
	uow := new(MockUoW)
	mock.InOrder(
		uow.On("TaskRepository").Return(taskRepo).Once(),
		taskRepo.On("GetExpiredBroadcasting", mock.Anything, testNow, 0).
			Return([]*task.Task{contested}, nil).Once(),
		taskRepo.On("ExpireBroadcast", mock.Anything, contested.ID(), testNow).Return(conflict).Once(),
	)

	publisher := new(MockEventPublisher)
	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	report, err := newSweepHandler(factory, publisher).Handle(ctx, cmd)
	require.NoError(t, err)
	require.Equal(t, commands.SweepReport{Scanned: 1, Skipped: 1}, report)

	publisher.AssertNotCalled(t, "PublishToAdmin", mock.Anything, mock.Anything)
}

func TestSweepExpiredCommandHandler_Handle_OneFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	cmd, err := commands.NewSweepExpiredCommand(commands.SweepPolicyEscalate, 0)
	require.NoError(t, err)

	broken := broadcastingTask(t, kernel.NewUUID(), testNow.Add(-time.Second))
	healthy := broadcastingTask(t, kernel.NewUUID(), testNow.Add(-2*time.Second))

	taskRepo := new(MockTaskRepository)
	uow := new(MockUoW)
	uow.On("TaskRepository").Return(taskRepo).Once()
	taskRepo.On("GetExpiredBroadcasting", mock.Anything, testNow, 0).
		Return([]*task.Task{broken, healthy}, nil).Once()
	taskRepo.On("ExpireBroadcast", mock.Anything, broken.ID(), testNow).
		Return(errors.New("connection reset")).Once()
	taskRepo.On("ExpireBroadcast", mock.Anything, healthy.ID(), testNow).Return(nil).Once()

	publisher := new(MockEventPublisher)
	publisher.On("PublishToAdmin", mock.Anything,
		mock.MatchedBy(func(e ports.Event) bool { return e.TaskID == healthy.ID().String() }),
	).Return(nil).Once()

	factory := new(MockTaskUoWFactory)
	factory.On("Create").Return(uow).Once()

	report, err := newSweepHandler(factory, publisher).Handle(ctx, cmd)
	require.NoError(t, err)
	require.Equal(t, commands.SweepReport{Scanned: 2, Expired: 1, Skipped: 1}, report)
	taskRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
