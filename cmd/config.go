package cmd

import "time"

// Config carries everything the process needs, populated from the
// environment by main.
type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string

	// SweepPolicy is "escalate" or "requeue"; SweepInterval is how often
	// the background sweep runs.
	SweepPolicy    string
	SweepInterval  time.Duration
	SweepBatchSize int

	// Base broadcast parameters; priority boosts apply on top.
	BroadcastRadiusKm      float64
	BroadcastWindow        time.Duration
	BroadcastCandidateCap  int
	AcceptNotifyRadiusKm   float64
	RadiusBoostKmPerPrio   float64
	WindowBoostPerPriority time.Duration
	MaxPriorityBoostSteps  int

	// Rate budgets: general per-IP, accept per-courier.
	GeneralRateRPS   float64
	GeneralRateBurst int
	AcceptRateRPS    float64
	AcceptRateBurst  int
}
