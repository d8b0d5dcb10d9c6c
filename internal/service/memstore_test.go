package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
)

// memTaskStore is an in-memory store.TaskStore with the same version and
// filter semantics as the SQL store.
type memTaskStore struct {
	mu    sync.Mutex
	rows  map[string]domain.Task
	order []string
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{rows: make(map[string]domain.Task)}
}

func (s *memTaskStore) Save(_ context.Context, task *domain.Task) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *task
	saved.Version = uuid.NewString()
	if saved.EntityID == "" {
		saved.EntityID = uuid.NewString()
	}

	if existing, ok := s.rows[saved.EntityID]; ok {
		if existing.Version != task.Version {
			return nil, fmt.Errorf("%w: task %s", store.ErrVersionConflict, saved.EntityID)
		}
	} else {
		s.order = append(s.order, saved.EntityID)
	}

	s.rows[saved.EntityID] = saved
	out := saved
	return &out, nil
}

func (s *memTaskStore) GetOne(ctx context.Context, filter store.TaskFilter) (*domain.Task, error) {
	tasks, _ := s.GetMany(ctx, filter)
	if len(tasks) == 0 {
		return nil, store.ErrTaskNotFound
	}
	return tasks[0], nil
}

func (s *memTaskStore) GetMany(_ context.Context, f store.TaskFilter) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Task, 0)
	for _, id := range s.order {
		t := s.rows[id]
		if f.EntityID != nil && t.EntityID != *f.EntityID {
			continue
		}
		if f.PersonID != nil && t.PersonID != *f.PersonID {
			continue
		}
		if f.Active != nil && t.Active != *f.Active {
			continue
		}
		if f.IsCompleted != nil && t.IsCompleted != *f.IsCompleted {
			continue
		}
		task := t
		out = append(out, &task)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// raw returns the stored row regardless of filters.
func (s *memTaskStore) raw(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[id]
	return t, ok
}
