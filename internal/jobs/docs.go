// Package jobs provides scheduled background tasks for the dispatch system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
//
// # Available Jobs
//
// 1. ExpirySweepJob - periodically closes acceptance windows whose deadline
// passed without an accepted claim, applying the configured sweep policy.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(sweepHandler, policy, batch, interval, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Scheduling
//
// The sweep interval is configuration-driven. Within one process the
// SkipIfStillRunning chain keeps sweep runs from overlapping; across
// processes overlap is harmless because each expiry is an independent
// conditional write and the loser of any race simply affects zero rows.
package jobs
