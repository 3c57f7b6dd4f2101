package commands_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/require"
)

func TestNewAcceptTaskCommand(t *testing.T) {
	taskID := kernel.NewUUID()
	courierID := kernel.NewUUID()

	cmd, err := commands.NewAcceptTaskCommand(taskID, courierID)
	require.NoError(t, err)
	require.NoError(t, cmd.Validate())
	require.True(t, cmd.TaskID().IsEqual(taskID))
	require.True(t, cmd.CourierID().IsEqual(courierID))
}

func TestNewAcceptTaskCommand_InvalidIDs(t *testing.T) {
	_, err := commands.NewAcceptTaskCommand(kernel.UUID{}, kernel.NewUUID())
	require.Error(t, err)

	_, err = commands.NewAcceptTaskCommand(kernel.NewUUID(), kernel.UUID{})
	require.Error(t, err)
}

func TestAcceptTaskCommand_ZeroValueFailsValidation(t *testing.T) {
	var cmd commands.AcceptTaskCommand
	require.Error(t, cmd.Validate())
}
