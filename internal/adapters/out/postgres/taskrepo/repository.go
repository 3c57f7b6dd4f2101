package taskrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormTaskRepository implements TaskRepository using GORM.
//
// Broadcast-affecting writes are single conditional UPDATE statements whose
// WHERE clause carries the precondition. The row either matches and mutates
// or does not match at all, so concurrent claimants are serialized by the
// database row lock and at most one conditional write per precondition
// succeeds. When a write matches nothing, a follow-up read only names the
// reason; it takes no part in the arbitration.
type GormTaskRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormTaskRepository creates a new GORM task repository.
func NewGormTaskRepository(db *gorm.DB, tracker aggregateTracker) *GormTaskRepository {
	return &GormTaskRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new task to the database.
func (r *GormTaskRepository) Add(ctx context.Context, aggregate *task.Task) error {
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

// Update saves a delivery-progress transition. The WHERE clause pins the
// status the caller read, so a stale writer whose transition has been
// overtaken matches nothing instead of regressing a newer status. The
// broadcast columns are deliberately excluded; they change only through
// the conditional operations below.
func (r *GormTaskRepository) Update(ctx context.Context, aggregate *task.Task, expectedStatus task.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Where("id = ? AND status = ?", dto.ID, expectedStatus.String()).
		Updates(map[string]any{
			"status": dto.Status,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var current TaskDTO
		if err := r.db.WithContext(ctx).First(&current, "id = ?", dto.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewObjectNotFoundError("task", aggregate.ID().String())
			}
			return err
		}
		return errs.NewConflictError("task", aggregate.ID().String(), current.Status)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a task by ID.
func (r *GormTaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.Task, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto TaskDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("task", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// Accept atomically claims the task for courierID. The WHERE clause is the
// whole arbitration: broadcasting, unassigned, deadline in the future. One
// row affected means this courier won; zero rows means someone or something
// else got there first, and the follow-up read classifies which.
func (r *GormTaskRepository) Accept(
	ctx context.Context,
	taskID, courierID kernel.UUID,
	now time.Time,
) (*task.Task, error) {
	if err := errors.Join(taskID.Validate(), courierID.Validate()); err != nil {
		return nil, err
	}

	assignee := courierID.Bytes()
	result := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Where(
			"id = ? AND broadcast_status = ? AND assigned_to IS NULL AND broadcast_end_time > ?",
			taskID.Bytes(), task.BroadcastActive.String(), now,
		).
		Updates(map[string]any{
			"status":           task.Assigned.String(),
			"broadcast_status": task.BroadcastCompleted.String(),
			"assigned_to":      assignee,
			"accepted_at":      now,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, r.classifyAcceptFailure(ctx, taskID, now)
	}

	accepted, err := r.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	r.tracker.TrackAggregate(taskID, accepted)
	return accepted, nil
}

func (r *GormTaskRepository) classifyAcceptFailure(
	ctx context.Context,
	taskID kernel.UUID,
	now time.Time,
) error {
	var dto TaskDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", taskID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError("task", taskID.String())
		}
		return err
	}

	if dto.AssignedTo != nil {
		return errs.NewConflictError("task", taskID.String(), (*dto.AssignedTo).String())
	}

	if dto.BroadcastStatus == task.BroadcastExpired.String() ||
		(dto.BroadcastEndTime != nil && !dto.BroadcastEndTime.After(now)) {
		return errs.NewExpiredError("task", taskID.String())
	}

	// Unassigned, not expired: there is no open window to accept.
	return errs.NewConflictError("task", taskID.String(), dto.BroadcastStatus)
}

// OpenBroadcast atomically opens an acceptance window ending at endTime.
// The precondition admits idle tasks and expired ones being re-broadcast,
// never an already-active window or an assigned task.
func (r *GormTaskRepository) OpenBroadcast(
	ctx context.Context,
	taskID kernel.UUID,
	endTime, now time.Time,
) (*task.Task, error) {
	if err := taskID.Validate(); err != nil {
		return nil, err
	}
	if !endTime.After(now) {
		return nil, errs.NewValueIsInvalidError("broadcastEndTime")
	}

	result := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Where(
			"id = ? AND status = ? AND assigned_to IS NULL AND broadcast_status IN ?",
			taskID.Bytes(), task.Pending.String(),
			[]string{task.BroadcastIdle.String(), task.BroadcastExpired.String()},
		).
		Updates(map[string]any{
			"broadcast_status":   task.BroadcastActive.String(),
			"broadcast_end_time": endTime,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		var dto TaskDTO
		if err := r.db.WithContext(ctx).First(&dto, "id = ?", taskID.Bytes()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.NewObjectNotFoundError("task", taskID.String())
			}
			return nil, err
		}
		return nil, errs.NewConflictError("task", taskID.String(), dto.BroadcastStatus)
	}

	opened, err := r.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	r.tracker.TrackAggregate(taskID, opened)
	return opened, nil
}

// ExpireBroadcast atomically closes an overdue window. The assigned_to
// check in the WHERE clause is what keeps a sweep from clobbering an accept
// that landed between scan and write.
func (r *GormTaskRepository) ExpireBroadcast(ctx context.Context, taskID kernel.UUID, now time.Time) error {
	if err := taskID.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Where(
			"id = ? AND broadcast_status = ? AND assigned_to IS NULL AND broadcast_end_time <= ?",
			taskID.Bytes(), task.BroadcastActive.String(), now,
		).
		Update("broadcast_status", task.BroadcastExpired.String())
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var dto TaskDTO
		if err := r.db.WithContext(ctx).First(&dto, "id = ?", taskID.Bytes()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewObjectNotFoundError("task", taskID.String())
			}
			return err
		}

		holder := dto.BroadcastStatus
		if dto.AssignedTo != nil {
			holder = (*dto.AssignedTo).String()
		}
		return errs.NewConflictError("task", taskID.String(), holder)
	}

	return nil
}

// RequeueBroadcast atomically returns an expired, unassigned task to idle.
func (r *GormTaskRepository) RequeueBroadcast(ctx context.Context, taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Where(
			"id = ? AND broadcast_status = ? AND assigned_to IS NULL",
			taskID.Bytes(), task.BroadcastExpired.String(),
		).
		Updates(map[string]any{
			"broadcast_status":   task.BroadcastIdle.String(),
			"broadcast_end_time": nil,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewConflictError("task", taskID.String(), "not expired")
	}

	return nil
}

// CancelTask atomically cancels a task that has not reached a terminal
// state. The one statement releases the assignment and completes an
// active window along with the status change, so a cancel can never
// leave a live window behind or lose a race against a progress report.
func (r *GormTaskRepository) CancelTask(ctx context.Context, taskID kernel.UUID) (*task.Task, error) {
	if err := taskID.Validate(); err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Where(
			"id = ? AND status NOT IN ?",
			taskID.Bytes(),
			[]string{task.Delivered.String(), task.Cancelled.String()},
		).
		Updates(map[string]any{
			"status":      task.Cancelled.String(),
			"assigned_to": nil,
			"broadcast_status": gorm.Expr(
				"CASE WHEN broadcast_status = ? THEN ? ELSE broadcast_status END",
				task.BroadcastActive.String(), task.BroadcastCompleted.String(),
			),
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		var dto TaskDTO
		if err := r.db.WithContext(ctx).First(&dto, "id = ?", taskID.Bytes()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.NewObjectNotFoundError("task", taskID.String())
			}
			return nil, err
		}
		return nil, errs.NewConflictError("task", taskID.String(), dto.Status)
	}

	cancelled, err := r.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	r.tracker.TrackAggregate(taskID, cancelled)
	return cancelled, nil
}

// ForceCloseBroadcast atomically closes an active, unassigned window.
func (r *GormTaskRepository) ForceCloseBroadcast(ctx context.Context, taskID kernel.UUID) error {
	if err := taskID.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Where(
			"id = ? AND broadcast_status = ? AND assigned_to IS NULL",
			taskID.Bytes(), task.BroadcastActive.String(),
		).
		Update("broadcast_status", task.BroadcastCompleted.String())
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var dto TaskDTO
		if err := r.db.WithContext(ctx).First(&dto, "id = ?", taskID.Bytes()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewObjectNotFoundError("task", taskID.String())
			}
			return err
		}

		holder := dto.BroadcastStatus
		if dto.AssignedTo != nil {
			holder = (*dto.AssignedTo).String()
		}
		return errs.NewConflictError("task", taskID.String(), holder)
	}

	return nil
}

// GetExpiredBroadcasting returns broadcasting tasks whose deadline is at or
// before now, oldest deadline first.
func (r *GormTaskRepository) GetExpiredBroadcasting(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*task.Task, error) {
	query := r.db.WithContext(ctx).
		Where(
			"broadcast_status = ? AND assigned_to IS NULL AND broadcast_end_time <= ?",
			task.BroadcastActive.String(), now,
		).
		Order("broadcast_end_time ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []TaskDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(dtos))
	for _, dto := range dtos {
		overdueTask, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, overdueTask)
	}

	return tasks, nil
}
