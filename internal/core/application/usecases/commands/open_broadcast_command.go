package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrOpenBroadcastCommandIsNotConstructed = errors.New(
		"OpenBroadcastCommand must be created via NewOpenBroadcastCommand constructor",
	)
	ErrRadiusIsInvalid         = errors.New("radius must be greater than 0")
	ErrWindowIsInvalid         = errors.New("window must be greater than 0")
	ErrCandidateLimitIsInvalid = errors.New("candidate limit must not be negative")
)

// OpenBroadcastCommand represents a request to open an acceptance window
// for a pending task. Radius and window are base values; the handler
// boosts both by task priority before use.
type OpenBroadcastCommand struct { //nolint:recvcheck //using for validation
	taskID         kernel.UUID
	radiusKm       float64
	window         time.Duration
	candidateLimit int

	guard guard.ConstructorGuard
}

// NewOpenBroadcastCommand creates a command to open an acceptance window.
// A candidateLimit of 0 means no cap on notified couriers.
func NewOpenBroadcastCommand(
	taskID kernel.UUID,
	radiusKm float64,
	window time.Duration,
	candidateLimit int,
) (OpenBroadcastCommand, error) {
	broadcastCommand := OpenBroadcastCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		broadcastCommand.setTaskID(taskID),
		broadcastCommand.setRadiusKm(radiusKm),
		broadcastCommand.setWindow(window),
		broadcastCommand.setCandidateLimit(candidateLimit),
	); err != nil {
		return OpenBroadcastCommand{}, err
	}

	return broadcastCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c OpenBroadcastCommand) Validate() error {
	return c.guard.Validate(ErrOpenBroadcastCommandIsNotConstructed)
}

// TaskID returns the identifier of the task to broadcast.
func (c OpenBroadcastCommand) TaskID() kernel.UUID {
	return c.taskID
}

// RadiusKm returns the base candidate search radius in kilometers.
func (c OpenBroadcastCommand) RadiusKm() float64 {
	return c.radiusKm
}

// Window returns the base acceptance window duration.
func (c OpenBroadcastCommand) Window() time.Duration {
	return c.window
}

// CandidateLimit returns the maximum number of couriers to notify.
func (c OpenBroadcastCommand) CandidateLimit() int {
	return c.candidateLimit
}

func (c *OpenBroadcastCommand) setTaskID(taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return err
	}

	c.taskID = taskID
	return nil
}

func (c *OpenBroadcastCommand) setRadiusKm(radiusKm float64) error {
	if radiusKm <= 0 {
		return ErrRadiusIsInvalid
	}

	c.radiusKm = radiusKm
	return nil
}

func (c *OpenBroadcastCommand) setWindow(window time.Duration) error {
	if window <= 0 {
		return ErrWindowIsInvalid
	}

	c.window = window
	return nil
}

func (c *OpenBroadcastCommand) setCandidateLimit(limit int) error {
	if limit < 0 {
		return ErrCandidateLimitIsInvalid
	}

	c.candidateLimit = limit
	return nil
}
