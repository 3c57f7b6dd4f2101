// Package taskrepo provides data transfer objects and mapping functions for
// task persistence. This package implements the repository pattern for the
// task aggregate, handling conversion between domain entities and database
// representations, and owns the conditional-update statements that arbitrate
// the broadcast lifecycle.
package taskrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/google/uuid"
)

// TaskDTO represents the database structure for persisting task aggregates.
// The composite index over broadcast_status and broadcast_end_time backs the
// sweep scan and the open-broadcast poll.
type TaskDTO struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Status           string      `gorm:"type:varchar(16);index"`
	BroadcastStatus  string      `gorm:"type:varchar(16);index:idx_tasks_broadcast_scan"`
	BroadcastEndTime *time.Time  `gorm:"index:idx_tasks_broadcast_scan"`
	AssignedTo       *uuid.UUID  `gorm:"type:uuid;index"`
	Priority         int         `gorm:"not null"`
	Fee              int64       `gorm:"not null"`
	Pickup           GeoPointDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff          GeoPointDTO `gorm:"embedded;embeddedPrefix:dropoff_"`
	CreatedAt        time.Time   `gorm:"not null"`
	AcceptedAt       *time.Time
}

// TableName specifies the database table name for task entities.
func (TaskDTO) TableName() string {
	return "tasks"
}

// GeoPointDTO represents embedded WGS84 coordinates within the task table.
type GeoPointDTO struct {
	Lat float64 `gorm:"type:double precision;not null"`
	Lng float64 `gorm:"type:double precision;not null"`
}

// fromDomain converts a task aggregate to its database representation.
func fromDomain(aggregate *task.Task) TaskDTO {
	var assignedTo *uuid.UUID
	if id := aggregate.AssignedTo(); id != nil {
		raw := id.Bytes()
		assignedTo = &raw
	}

	return TaskDTO{
		ID:               aggregate.ID().Bytes(),
		Status:           aggregate.Status().String(),
		BroadcastStatus:  aggregate.BroadcastStatus().String(),
		BroadcastEndTime: aggregate.BroadcastEndTime(),
		AssignedTo:       assignedTo,
		Priority:         aggregate.Priority(),
		Fee:              aggregate.Fee(),
		Pickup: GeoPointDTO{
			Lat: aggregate.Pickup().Lat(),
			Lng: aggregate.Pickup().Lng(),
		},
		Dropoff: GeoPointDTO{
			Lat: aggregate.Dropoff().Lat(),
			Lng: aggregate.Dropoff().Lng(),
		},
		CreatedAt:  aggregate.CreatedAt(),
		AcceptedAt: aggregate.AcceptedAt(),
	}
}

// toDomain converts a database DTO back into a task aggregate using
// RestoreTask, which re-validates the stored state.
func toDomain(dto TaskDTO) (*task.Task, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var assignedTo *kernel.UUID
	if dto.AssignedTo != nil {
		courierID, courierErr := kernel.UUIDFromBytes((*dto.AssignedTo)[:])
		if courierErr != nil {
			return nil, courierErr
		}
		assignedTo = &courierID
	}

	pickup, err := kernel.NewGeoPoint(dto.Pickup.Lat, dto.Pickup.Lng)
	if err != nil {
		return nil, err
	}

	dropoff, err := kernel.NewGeoPoint(dto.Dropoff.Lat, dto.Dropoff.Lng)
	if err != nil {
		return nil, err
	}

	status, err := task.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	broadcastStatus, err := task.BroadcastStatusFromString(dto.BroadcastStatus)
	if err != nil {
		return nil, err
	}

	return task.RestoreTask(
		id,
		pickup,
		dropoff,
		dto.Fee,
		dto.Priority,
		status,
		broadcastStatus,
		dto.BroadcastEndTime,
		assignedTo,
		dto.CreatedAt,
		dto.AcceptedAt,
	)
}
