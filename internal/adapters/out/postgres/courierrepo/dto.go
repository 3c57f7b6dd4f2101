// Package courierrepo provides data transfer objects and mapping functions
// for courier persistence, including the geospatial candidate search used
// when an acceptance window opens.
package courierrepo

import (
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO represents the database structure for persisting couriers.
// Location columns are nullable: a courier that never reported a position
// has no coordinates and is invisible to the candidate search.
type CourierDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Online      bool      `gorm:"index:idx_couriers_candidate"`
	Active      bool      `gorm:"index:idx_couriers_candidate"`
	LocationLat *float64  `gorm:"type:double precision"`
	LocationLng *float64  `gorm:"type:double precision"`
	LocationAt  *time.Time
}

// TableName specifies the database table name for courier entities.
func (CourierDTO) TableName() string {
	return "couriers"
}

// fromDomain converts a courier aggregate to its database representation.
func fromDomain(aggregate *courier.Courier) CourierDTO {
	dto := CourierDTO{
		ID:     aggregate.ID().Bytes(),
		Name:   aggregate.Name(),
		Online: aggregate.Online(),
		Active: aggregate.Active(),
	}

	if location := aggregate.Location(); location != nil {
		lat := location.Lat()
		lng := location.Lng()
		dto.LocationLat = &lat
		dto.LocationLng = &lng
		dto.LocationAt = aggregate.LocationAt()
	}

	return dto
}

// toDomain converts a database DTO back into a courier aggregate.
func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var location *kernel.GeoPoint
	if dto.LocationLat != nil && dto.LocationLng != nil {
		point, pointErr := kernel.NewGeoPoint(*dto.LocationLat, *dto.LocationLng)
		if pointErr != nil {
			return nil, pointErr
		}
		location = &point
	}

	return courier.RestoreCourier(id, dto.Name, dto.Online, dto.Active, location, dto.LocationAt)
}
