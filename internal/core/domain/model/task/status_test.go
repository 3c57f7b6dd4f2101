package task_test

import (
	"testing"

	"dispatch/internal/core/domain/model/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Validate(t *testing.T) {
	valid := []task.Status{
		task.Pending, task.Broadcasting, task.Assigned,
		task.PickedUp, task.InProgress, task.Delivered, task.Cancelled,
	}
	for _, s := range valid {
		require.NoError(t, s.Validate(), "status %s", s)
	}

	require.Error(t, task.StatusUnknown.Validate())
	require.Error(t, task.Status(42).Validate())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "pending", task.Pending.String())
	assert.Equal(t, "picked_up", task.PickedUp.String())
	assert.Equal(t, "in_progress", task.InProgress.String())
	assert.Equal(t, "unknown", task.Status(42).String())
}

func TestStatus_HasCourier(t *testing.T) {
	withCourier := []task.Status{task.Assigned, task.PickedUp, task.InProgress, task.Delivered}
	for _, s := range withCourier {
		assert.True(t, s.HasCourier(), "status %s", s)
	}

	without := []task.Status{task.Pending, task.Broadcasting, task.Cancelled, task.StatusUnknown}
	for _, s := range without {
		assert.False(t, s.HasCourier(), "status %s", s)
	}
}

func TestStatus_Transitions(t *testing.T) {
	t.Run("assign", func(t *testing.T) {
		next, err := task.Pending.Assign()
		require.NoError(t, err)
		assert.Equal(t, task.Assigned, next)

		_, err = task.Delivered.Assign()
		require.Error(t, err)
	})

	t.Run("pickup only from assigned", func(t *testing.T) {
		next, err := task.Assigned.PickUp()
		require.NoError(t, err)
		assert.Equal(t, task.PickedUp, next)

		_, err = task.Pending.PickUp()
		require.Error(t, err)
	})

	t.Run("delivery chain", func(t *testing.T) {
		next, err := task.PickedUp.Start()
		require.NoError(t, err)
		assert.Equal(t, task.InProgress, next)

		next, err = task.InProgress.Deliver()
		require.NoError(t, err)
		assert.Equal(t, task.Delivered, next)
	})

	t.Run("cancel", func(t *testing.T) {
		next, err := task.Pending.Cancel()
		require.NoError(t, err)
		assert.Equal(t, task.Cancelled, next)

		_, err = task.Delivered.Cancel()
		require.Error(t, err)
		_, err = task.Cancelled.Cancel()
		require.Error(t, err)
	})
}

func TestBroadcastStatus(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		valid := []task.BroadcastStatus{
			task.BroadcastIdle, task.BroadcastActive,
			task.BroadcastExpired, task.BroadcastCompleted,
		}
		for _, s := range valid {
			require.NoError(t, s.Validate(), "broadcast status %s", s)
		}

		require.Error(t, task.BroadcastStatusUnknown.Validate())
		require.Error(t, task.BroadcastStatus(42).Validate())
	})

	t.Run("wire names", func(t *testing.T) {
		assert.Equal(t, "idle", task.BroadcastIdle.String())
		assert.Equal(t, "broadcasting", task.BroadcastActive.String())
		assert.Equal(t, "expired", task.BroadcastExpired.String())
		assert.Equal(t, "completed", task.BroadcastCompleted.String())
	})
}
