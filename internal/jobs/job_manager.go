package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	expirySweepJob *ExpirySweepJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	sweepHandler commands.SweepExpiredCommandHandler,
	sweepPolicy commands.SweepPolicy,
	sweepBatch int,
	sweepInterval time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		expirySweepJob: NewExpirySweepJob(sweepHandler, sweepPolicy, sweepBatch, sweepInterval, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.expirySweepJob.Start(); err != nil {
		return fmt.Errorf("failed to start expiry sweep job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.expirySweepJob.Stop()
}
