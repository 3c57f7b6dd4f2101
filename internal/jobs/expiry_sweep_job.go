package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// ExpirySweepJob runs the expiry sweep on a fixed interval. The
// SkipIfStillRunning wrapper guarantees at most one sweep in flight per
// process: a tick that arrives while a sweep is running is dropped, not
// queued, so slow sweeps never pile up.
type ExpirySweepJob struct {
	handler  commands.SweepExpiredCommandHandler
	policy   commands.SweepPolicy
	batch    int
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewExpirySweepJob creates the sweep job. interval is rounded down to
// whole seconds; the minimum is one second.
func NewExpirySweepJob(
	handler commands.SweepExpiredCommandHandler,
	policy commands.SweepPolicy,
	batch int,
	interval time.Duration,
	logger *slog.Logger,
) *ExpirySweepJob {
	jobLogger := logger.With("component", "expiry_sweep_job")
	return &ExpirySweepJob{
		handler:  handler,
		policy:   policy,
		batch:    batch,
		interval: interval,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: jobLogger,
	}
}

// Start schedules the sweep and begins ticking.
func (j *ExpirySweepJob) Start() error {
	seconds := int(j.interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	schedule := cron.Every(time.Duration(seconds) * time.Second)
	j.cron.Schedule(schedule, cron.FuncJob(j.run))

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "expiry sweep job started",
		slog.Int("intervalSeconds", seconds),
		slog.String("policy", string(j.policy)))
	return nil
}

func (j *ExpirySweepJob) run() {
	ctx := context.Background()

	cmd, err := commands.NewSweepExpiredCommand(j.policy, j.batch)
	if err != nil {
		j.logger.ErrorContext(ctx, "sweep command rejected", "error", err)
		return
	}

	if _, err = j.handler.Handle(ctx, cmd); err != nil {
		j.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
	}
}

// Stop stops the sweep job, waiting for an in-flight run to finish.
func (j *ExpirySweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "expiry sweep job stopped")
}
