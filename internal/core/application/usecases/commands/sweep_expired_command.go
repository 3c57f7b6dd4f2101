package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

// SweepPolicy decides what happens to a window the sweep closes.
type SweepPolicy string

const (
	// SweepPolicyEscalate leaves the task expired for manual handling and
	// reports it on the admin channel.
	SweepPolicyEscalate SweepPolicy = "escalate"

	// SweepPolicyRequeue returns the task to idle so it can be
	// re-broadcast.
	SweepPolicyRequeue SweepPolicy = "requeue"
)

var (
	ErrSweepExpiredCommandIsNotConstructed = errors.New(
		"SweepExpiredCommand must be created via NewSweepExpiredCommand constructor",
	)
	ErrSweepPolicyIsInvalid = errors.New("sweep policy must be escalate or requeue")
	ErrBatchLimitIsInvalid  = errors.New("batch limit must not be negative")
)

// Validate checks the policy is a known value.
func (p SweepPolicy) Validate() error {
	switch p {
	case SweepPolicyEscalate, SweepPolicyRequeue:
		return nil
	default:
		return ErrSweepPolicyIsInvalid
	}
}

// SweepExpiredCommand represents one run of the expiry sweep over
// broadcasting tasks whose deadline has passed.
type SweepExpiredCommand struct { //nolint:recvcheck //using for validation
	policy     SweepPolicy
	batchLimit int

	guard guard.ConstructorGuard
}

// NewSweepExpiredCommand creates a sweep command. A batchLimit of 0
// sweeps every overdue task in one run.
func NewSweepExpiredCommand(policy SweepPolicy, batchLimit int) (SweepExpiredCommand, error) {
	sweepCommand := SweepExpiredCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		sweepCommand.setPolicy(policy),
		sweepCommand.setBatchLimit(batchLimit),
	); err != nil {
		return SweepExpiredCommand{}, err
	}

	return sweepCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c SweepExpiredCommand) Validate() error {
	return c.guard.Validate(ErrSweepExpiredCommandIsNotConstructed)
}

// Policy returns the outcome applied to each swept window.
func (c SweepExpiredCommand) Policy() SweepPolicy {
	return c.policy
}

// BatchLimit returns the maximum number of tasks swept in one run.
func (c SweepExpiredCommand) BatchLimit() int {
	return c.batchLimit
}

func (c *SweepExpiredCommand) setPolicy(policy SweepPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	c.policy = policy
	return nil
}

func (c *SweepExpiredCommand) setBatchLimit(limit int) error {
	if limit < 0 {
		return ErrBatchLimitIsInvalid
	}

	c.batchLimit = limit
	return nil
}
