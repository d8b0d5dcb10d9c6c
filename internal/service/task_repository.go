package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
)

// StatusFilter narrows a task listing by completion state.
type StatusFilter string

// Supported status filters
const (
	StatusAll        StatusFilter = "all"
	StatusCompleted  StatusFilter = "completed"
	StatusIncomplete StatusFilter = "incomplete"
)

// ErrInvalidStatusFilter is returned for an unknown status filter value.
var ErrInvalidStatusFilter = errors.New("invalid status filter")

// ParseStatusFilter converts a query value into a StatusFilter. Callers
// pass StatusAll when the parameter is absent; an empty value is rejected.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case StatusAll:
		return StatusAll, nil
	case StatusCompleted, StatusIncomplete:
		return StatusFilter(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatusFilter, s)
	}
}

// TaskRepository translates ownership-scoped task queries into store filters.
type TaskRepository interface {
	// FindByOwner returns the person's active tasks narrowed by status.
	FindByOwner(ctx context.Context, personID string, status StatusFilter) ([]*domain.Task, error)

	// FindOneByOwner returns the person's active task with the given ID,
	// or store.ErrTaskNotFound.
	FindOneByOwner(ctx context.Context, taskID, personID string) (*domain.Task, error)

	// Save inserts or updates the task.
	Save(ctx context.Context, task *domain.Task) (*domain.Task, error)
}

type taskRepository struct {
	store store.TaskStore
}

// NewTaskRepository creates a TaskRepository over taskStore.
func NewTaskRepository(taskStore store.TaskStore) TaskRepository {
	return &taskRepository{store: taskStore}
}

func (r *taskRepository) FindByOwner(
	ctx context.Context,
	personID string,
	status StatusFilter,
) ([]*domain.Task, error) {
	filter := store.TaskFilter{}.WithPersonID(personID).WithActive(true)
	switch status {
	case StatusCompleted:
		filter = filter.WithCompleted(true)
	case StatusIncomplete:
		filter = filter.WithCompleted(false)
	}
	return r.store.GetMany(ctx, filter)
}

func (r *taskRepository) FindOneByOwner(
	ctx context.Context,
	taskID, personID string,
) (*domain.Task, error) {
	filter := store.TaskFilter{}.
		WithEntityID(taskID).
		WithPersonID(personID).
		WithActive(true)
	return r.store.GetOne(ctx, filter)
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return r.store.Save(ctx, task)
}
