package commands_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPoint(t *testing.T, lat, lng float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lng)
	require.NoError(t, err)
	return p
}

func pendingTask(t *testing.T, id kernel.UUID) *task.Task {
	t.Helper()
	created, err := task.NewTask(
		id,
		testPoint(t, 24.86, 67.0),
		testPoint(t, 24.90, 67.1),
		1500,
		0,
		testNow.Add(-time.Minute),
	)
	require.NoError(t, err)
	return created
}

func priorityTask(t *testing.T, id kernel.UUID, priority int) *task.Task {
	t.Helper()
	created, err := task.NewTask(
		id,
		testPoint(t, 24.86, 67.0),
		testPoint(t, 24.90, 67.1),
		1500,
		priority,
		testNow.Add(-time.Minute),
	)
	require.NoError(t, err)
	return created
}

func broadcastingTask(t *testing.T, id kernel.UUID, ends time.Time) *task.Task {
	t.Helper()
	created := pendingTask(t, id)
	require.NoError(t, created.OpenBroadcast(ends, testNow.Add(-time.Minute)))
	return created
}

func assignedTask(t *testing.T, id, courierID kernel.UUID, ends time.Time) *task.Task {
	t.Helper()
	created := broadcastingTask(t, id, ends)
	require.NoError(t, created.Accept(courierID, testNow))
	return created
}

func onlineCourier(t *testing.T, name string, lat, lng float64) *courier.Courier {
	t.Helper()
	c, err := courier.NewCourier(kernel.NewUUID(), name)
	require.NoError(t, err)
	require.NoError(t, c.ReportLocation(testPoint(t, lat, lng), testNow))
	c.GoOnline()
	return c
}
