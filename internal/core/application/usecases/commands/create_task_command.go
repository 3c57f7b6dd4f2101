package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateTaskCommandIsNotConstructed = errors.New(
		"CreateTaskCommand must be created via NewCreateTaskCommand constructor",
	)
	ErrFeeIsInvalid      = errors.New("fee must be greater than 0")
	ErrPriorityIsInvalid = errors.New("priority must not be negative")
)

// CreateTaskCommand represents a request to register a new delivery task.
// Pickup and dropoff accept either coordinates or a map link; the caller
// resolves links via kernel.ParseMapLink before constructing the command.
type CreateTaskCommand struct { //nolint:recvcheck //using for validation
	taskID   kernel.UUID
	pickup   kernel.GeoPoint
	dropoff  kernel.GeoPoint
	fee      int64
	priority int

	guard guard.ConstructorGuard
}

// NewCreateTaskCommand creates a command to register a new delivery task.
// Validates the task ID, both geo points, a positive fee, and a
// non-negative priority. Returns an error if any validation fails.
func NewCreateTaskCommand(
	taskID kernel.UUID,
	pickup, dropoff kernel.GeoPoint,
	fee int64,
	priority int,
) (CreateTaskCommand, error) {
	taskCommand := CreateTaskCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		taskCommand.setTaskID(taskID),
		taskCommand.setPickup(pickup),
		taskCommand.setDropoff(dropoff),
		taskCommand.setFee(fee),
		taskCommand.setPriority(priority),
	); err != nil {
		return CreateTaskCommand{}, err
	}

	return taskCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateTaskCommand) Validate() error {
	return c.guard.Validate(ErrCreateTaskCommandIsNotConstructed)
}

// TaskID returns the unique identifier for the task.
func (c CreateTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

// Pickup returns the pickup location.
func (c CreateTaskCommand) Pickup() kernel.GeoPoint {
	return c.pickup
}

// Dropoff returns the dropoff location.
func (c CreateTaskCommand) Dropoff() kernel.GeoPoint {
	return c.dropoff
}

// Fee returns the courier fee in cents.
func (c CreateTaskCommand) Fee() int64 {
	return c.fee
}

// Priority returns the dispatch priority, zero being normal.
func (c CreateTaskCommand) Priority() int {
	return c.priority
}

func (c *CreateTaskCommand) setTaskID(taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return err
	}

	c.taskID = taskID
	return nil
}

func (c *CreateTaskCommand) setPickup(pickup kernel.GeoPoint) error {
	if err := pickup.Validate(); err != nil {
		return err
	}

	c.pickup = pickup
	return nil
}

func (c *CreateTaskCommand) setDropoff(dropoff kernel.GeoPoint) error {
	if err := dropoff.Validate(); err != nil {
		return err
	}

	c.dropoff = dropoff
	return nil
}

func (c *CreateTaskCommand) setFee(fee int64) error {
	if fee <= 0 {
		return ErrFeeIsInvalid
	}

	c.fee = fee
	return nil
}

func (c *CreateTaskCommand) setPriority(priority int) error {
	if priority < 0 {
		return ErrPriorityIsInvalid
	}

	c.priority = priority
	return nil
}
