package courier

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for courier operations.
var (
	// ErrNameIsRequired is returned when attempting to create a courier without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrCourierIsNotConstructed is returned when using an improperly initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier or RestoreCourier constructor")
)

// Courier represents a mobile worker eligible to receive task broadcasts.
// The aggregate tracks the two eligibility flags the candidate locator
// filters on (online, active) and the last reported location with its
// report timestamp.
//
// Business rules:
//   - a courier must have a valid UUID and a non-empty name
//   - only online AND active couriers are broadcast candidates
//   - a courier without a reported location is never a candidate
//
// Example:
//
//	c, err := courier.NewCourier(kernel.NewUUID(), "Alice")
//	if err != nil {
//	    // handle construction error
//	}
//	c.GoOnline()
//	_ = c.ReportLocation(point, time.Now())
type Courier struct {
	id   kernel.UUID
	name string

	// online is toggled by the courier's client session.
	online bool

	// active is the account-level flag; inactive couriers never receive
	// broadcasts regardless of their online state.
	active bool

	// location is the last reported position, nil until first report.
	location *kernel.GeoPoint

	// locationAt is when location was reported.
	locationAt *time.Time

	guard guard.ConstructorGuard
}

// NewCourier creates a Courier with the given identity. New couriers start
// active and offline with no reported location.
func NewCourier(id kernel.UUID, name string) (*Courier, error) {
	c := &Courier{
		active: true,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setName(name),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RestoreCourier reconstructs a Courier from persistent storage, preserving
// its flags and last known location.
func RestoreCourier(
	id kernel.UUID,
	name string,
	online, active bool,
	location *kernel.GeoPoint,
	locationAt *time.Time,
) (*Courier, error) {
	c := &Courier{
		online: online,
		active: active,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setName(name),
	); err != nil {
		return nil, err
	}

	if location != nil {
		if err := location.Validate(); err != nil {
			return nil, err
		}
		c.location = location
		c.locationAt = locationAt
	}

	return c, nil
}

// Validate ensures the Courier was created through a constructor.
func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

// IsEqual compares couriers by identifier.
func (c *Courier) IsEqual(other *Courier) bool {
	return other != nil && c.id.IsEqual(other.id)
}

// ID returns the courier's unique identifier.
func (c *Courier) ID() kernel.UUID {
	return c.id
}

// Name returns the courier's display name.
func (c *Courier) Name() string {
	return c.name
}

// Online reports whether the courier's client session is connected.
func (c *Courier) Online() bool {
	return c.online
}

// Active reports whether the courier account may receive broadcasts.
func (c *Courier) Active() bool {
	return c.active
}

// Location returns the last reported position, nil until first report.
func (c *Courier) Location() *kernel.GeoPoint {
	return c.location
}

// LocationAt returns when the location was last reported.
func (c *Courier) LocationAt() *time.Time {
	return c.locationAt
}

// IsCandidate reports whether the courier is eligible to receive a
// broadcast: online, active, and with a known location.
func (c *Courier) IsCandidate() bool {
	return c.online && c.active && c.location != nil
}

// GoOnline marks the courier's session as connected.
func (c *Courier) GoOnline() {
	c.online = true
}

// GoOffline marks the courier's session as disconnected.
func (c *Courier) GoOffline() {
	c.online = false
}

// Deactivate removes the courier from broadcast eligibility at the account
// level.
func (c *Courier) Deactivate() {
	c.active = false
}

// Activate restores account-level broadcast eligibility.
func (c *Courier) Activate() {
	c.active = true
}

// ReportLocation records the courier's position at the given instant.
func (c *Courier) ReportLocation(p kernel.GeoPoint, at time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.location = &p
	c.locationAt = &at
	return nil
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	c.name = name
	return nil
}
