package store

import (
	"context"

	"github.com/phrazzld/tasks-api/internal/domain"
)

// TaskFilter is an exact-match condition set over task columns.
// A nil field leaves that column unconstrained.
type TaskFilter struct {
	EntityID    *string
	PersonID    *string
	Active      *bool
	IsCompleted *bool
}

// WithEntityID returns a copy of f constrained to the given task ID.
func (f TaskFilter) WithEntityID(id string) TaskFilter {
	f.EntityID = &id
	return f
}

// WithPersonID returns a copy of f constrained to the given owner.
func (f TaskFilter) WithPersonID(personID string) TaskFilter {
	f.PersonID = &personID
	return f
}

// WithActive returns a copy of f constrained on the soft-delete flag.
func (f TaskFilter) WithActive(active bool) TaskFilter {
	f.Active = &active
	return f
}

// WithCompleted returns a copy of f constrained on completion state.
func (f TaskFilter) WithCompleted(completed bool) TaskFilter {
	f.IsCompleted = &completed
	return f
}

// TaskStore defines the interface for task persistence.
// Version: 1.0
type TaskStore interface {
	// Save inserts the task when no record with its entity ID exists and
	// updates it otherwise. Updates only succeed when the task's version
	// matches the stored one. The returned task carries the entity ID,
	// version and changed-on timestamp assigned by the store.
	// Returns ErrVersionConflict on a stale version.
	Save(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// GetOne returns the single task matching filter.
	// Returns ErrTaskNotFound if nothing matches.
	GetOne(ctx context.Context, filter TaskFilter) (*domain.Task, error)

	// GetMany returns every task matching filter.
	// Returns an empty slice if nothing matches.
	GetMany(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
}
