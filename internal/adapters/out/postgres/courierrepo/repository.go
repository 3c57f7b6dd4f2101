package courierrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCourierRepository implements CourierRepository using GORM.
type GormCourierRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormCourierRepository creates a new GORM courier repository.
func NewGormCourierRepository(db *gorm.DB, tracker aggregateTracker) *GormCourierRepository {
	return &GormCourierRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new courier to the database.
func (r *GormCourierRepository) Add(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing courier to the database. A full-row save, not
// Updates: zero values like going offline must overwrite.
func (r *GormCourierRepository) Update(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&CourierDTO{}).
		Where("id = ?", dto.ID).
		Select("name", "online", "active", "location_lat", "location_lng", "location_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("courier", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a courier by ID.
func (r *GormCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto CourierDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("courier", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// FindNearby returns online, active couriers with a reported location
// within radiusKm of point, nearest first, courier ID as tie-break. The
// great-circle distance is computed in SQL so the database does the
// filtering; least() clamps rounding noise before acos.
func (r *GormCourierRepository) FindNearby(
	ctx context.Context,
	point kernel.GeoPoint,
	radiusKm float64,
	limit int,
) ([]ports.NearbyCourier, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return nil, errs.NewValueIsInvalidError("radiusKm")
	}

	sql := `
		SELECT id, name, online, active, location_lat, location_lng, location_at, distance_km
		FROM (
			SELECT *,
				6371 * acos(least(1.0,
					cos(radians(@lat)) * cos(radians(location_lat)) *
					cos(radians(location_lng) - radians(@lng)) +
					sin(radians(@lat)) * sin(radians(location_lat))
				)) AS distance_km
			FROM couriers
			WHERE online AND active AND location_lat IS NOT NULL
		) AS candidates
		WHERE distance_km <= @radius
		ORDER BY distance_km ASC, id ASC
	`
	if limit > 0 {
		sql += " LIMIT @limit"
	}

	rows, err := r.db.WithContext(ctx).Raw(sql, map[string]any{
		"lat":    point.Lat(),
		"lng":    point.Lng(),
		"radius": radiusKm,
		"limit":  limit,
	}).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nearby := make([]ports.NearbyCourier, 0)

	for rows.Next() {
		var dto CourierDTO
		var id uuid.UUID
		var locationAt *time.Time
		var distanceKm float64

		if err = rows.Scan(
			&id,
			&dto.Name,
			&dto.Online,
			&dto.Active,
			&dto.LocationLat,
			&dto.LocationLng,
			&locationAt,
			&distanceKm,
		); err != nil {
			return nil, err
		}
		dto.ID = id
		dto.LocationAt = locationAt

		candidate, domainErr := toDomain(dto)
		if domainErr != nil {
			return nil, domainErr
		}

		nearby = append(nearby, ports.NearbyCourier{
			Courier:    candidate,
			DistanceKm: distanceKm,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return nearby, nil
}
