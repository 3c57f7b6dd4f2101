package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// NearbyCourier pairs a courier with its distance from a query point.
type NearbyCourier struct {
	Courier    *courier.Courier
	DistanceKm float64
}

// CourierRepository defines the persistence contract for courier aggregates.
type CourierRepository interface {
	// Add persists a new courier aggregate.
	Add(ctx context.Context, aggregate *courier.Courier) error

	// Update persists changes to an existing courier aggregate (flags,
	// reported location).
	Update(ctx context.Context, aggregate *courier.Courier) error

	// Get retrieves a courier aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// FindNearby returns online, active couriers with a known location
	// within radiusKm of point, nearest first. An empty slice (not an
	// error) means no candidates are in range; the caller decides whether
	// to widen the radius or escalate. Limit 0 means no limit.
	FindNearby(ctx context.Context, point kernel.GeoPoint, radiusKm float64, limit int) ([]NearbyCourier, error)
}
