package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

// CreateTaskParams carries the fields of a new task.
// An empty Priority means domain.DefaultPriority.
type CreateTaskParams struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    domain.Priority
}

// TaskUpdate is a partial update. Only fields holding a value are applied;
// absent fields and explicit nulls leave the task unchanged.
type TaskUpdate struct {
	Title       domain.Optional[string]
	Description domain.Optional[string]
	DueDate     domain.Optional[time.Time]
	Priority    domain.Optional[domain.Priority]
	IsCompleted domain.Optional[bool]
}

// fields lists the supplied fields that carry a value and those supplied
// as an explicit null.
func (u TaskUpdate) fields() (applied, ignored []string) {
	add := func(name string, set, null bool) {
		switch {
		case !set:
		case null:
			ignored = append(ignored, name)
		default:
			applied = append(applied, name)
		}
	}

	add("title", u.Title.IsSet(), u.Title.IsNull())
	add("description", u.Description.IsSet(), u.Description.IsNull())
	add("due_date", u.DueDate.IsSet(), u.DueDate.IsNull())
	add("priority", u.Priority.IsSet(), u.Priority.IsNull())
	add("is_completed", u.IsCompleted.IsSet(), u.IsCompleted.IsNull())
	return applied, ignored
}

// TaskService provides the task use cases. Every operation is scoped to
// personID.
type TaskService interface {
	// CreateTask validates and stores a new incomplete task.
	CreateTask(ctx context.Context, personID string, params CreateTaskParams) (*domain.Task, error)

	// ListTasks returns the person's active tasks narrowed by status.
	ListTasks(ctx context.Context, personID string, status StatusFilter) ([]*domain.Task, error)

	// GetTask returns the person's active task, or ErrTaskNotFound.
	GetTask(ctx context.Context, taskID, personID string) (*domain.Task, error)

	// UpdateTask applies a partial update, validates and saves.
	UpdateTask(ctx context.Context, taskID, personID string, update TaskUpdate) (*domain.Task, error)

	// MarkComplete marks the task done and stamps completed_on.
	MarkComplete(ctx context.Context, taskID, personID string) (*domain.Task, error)

	// DeleteTask soft-deletes the task.
	DeleteTask(ctx context.Context, taskID, personID string) (bool, error)
}

// TaskServiceOption customises a TaskService.
type TaskServiceOption func(*taskServiceImpl)

// WithClock sets the clock used to stamp completion times.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.now = now
	}
}

type taskServiceImpl struct {
	repo         TaskRepository
	eventEmitter events.EventEmitter
	logger       *slog.Logger
	now          func() time.Time
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	repo TaskRepository,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if repo == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "repo cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		repo:         repo,
		eventEmitter: eventEmitter,
		logger:       logger.With(slog.String("component", "task_service")),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	personID string,
	params CreateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task := domain.NewTask(personID, params.Title, domain.NewTaskOptions{
		Description: params.Description,
		DueDate:     utcPtr(params.DueDate),
		Priority:    params.Priority,
	})

	if err := task.Validate(); err != nil {
		log.Debug("task validation failed on create",
			slog.String("person_id", personID),
			slog.String("error", err.Error()))
		return nil, err
	}

	saved, err := s.repo.Save(ctx, task)
	if err != nil {
		log.Error("failed to save new task",
			slog.String("person_id", personID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", saved.EntityID),
		slog.String("person_id", personID),
		slog.String("priority", string(saved.Priority)))

	s.emit(ctx, events.TaskCreated, saved)
	return saved, nil
}

func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	personID string,
	status StatusFilter,
) ([]*domain.Task, error) {
	tasks, err := s.repo.FindByOwner(ctx, personID, status)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("person_id", personID),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("list_tasks", "failed to retrieve tasks", err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, taskID, personID string) (*domain.Task, error) {
	task, err := s.repo.FindOneByOwner(ctx, taskID, personID)
	if err != nil {
		mapped := NewTaskServiceError("get_task", "failed to retrieve task", err)
		if !errors.Is(mapped, ErrTaskNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
				slog.String("task_id", taskID),
				slog.String("person_id", personID),
				slog.String("error", err.Error()))
		}
		return nil, mapped
	}
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID, personID string,
	update TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.GetTask(ctx, taskID, personID)
	if err != nil {
		return nil, err
	}

	applied, ignored := update.fields()
	log.Debug("applying task update",
		slog.String("task_id", taskID),
		slog.Any("fields", applied),
		slog.Any("ignored_null_fields", ignored))

	if title, ok := update.Title.Get(); ok {
		task.Title = title
	}
	if desc, ok := update.Description.Get(); ok {
		task.Description = &desc
	}
	if due, ok := update.DueDate.Get(); ok {
		task.DueDate = utcPtr(&due)
	}
	if priority, ok := update.Priority.Get(); ok {
		task.Priority = priority
	}
	completed, completionSet := update.IsCompleted.Get()
	if completionSet {
		// Stamped on every submission, not only on a change of state.
		if completed {
			task.Complete(s.now())
		} else {
			task.Reopen()
		}
	}

	if err := task.Validate(); err != nil {
		log.Debug("task validation failed on update",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return nil, err
	}

	saved, err := s.repo.Save(ctx, task)
	if err != nil {
		log.Error("failed to save updated task",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("update_task", "failed to save task", err)
	}

	log.Info("task updated", slog.String("task_id", saved.EntityID))

	eventType := events.TaskUpdated
	if completionSet && completed {
		eventType = events.TaskCompleted
	}
	s.emit(ctx, eventType, saved)
	return saved, nil
}

func (s *taskServiceImpl) MarkComplete(ctx context.Context, taskID, personID string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.GetTask(ctx, taskID, personID)
	if err != nil {
		return nil, err
	}

	task.Complete(s.now())

	saved, err := s.repo.Save(ctx, task)
	if err != nil {
		log.Error("failed to save completed task",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("mark_complete", "failed to save task", err)
	}

	log.Info("task marked complete", slog.String("task_id", saved.EntityID))
	s.emit(ctx, events.TaskCompleted, saved)
	return saved, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID, personID string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.GetTask(ctx, taskID, personID)
	if err != nil {
		return false, err
	}

	task.SoftDelete()

	saved, err := s.repo.Save(ctx, task)
	if err != nil {
		log.Error("failed to save deleted task",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return false, NewTaskServiceError("delete_task", "failed to save task", err)
	}

	log.Info("task deleted", slog.String("task_id", saved.EntityID))
	s.emit(ctx, events.TaskDeleted, saved)
	return true, nil
}

// emit publishes a task event. The write has already succeeded, so
// failures are logged and never returned.
func (s *taskServiceImpl) emit(ctx context.Context, eventType string, task *domain.Task) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewTaskEvent(eventType, task.EntityID, task.PersonID, task.ResponseModel())
	if err != nil {
		log.Error("failed to build task event",
			slog.String("event_type", eventType),
			slog.String("task_id", task.EntityID),
			slog.String("error", err.Error()))
		return
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit task event",
			slog.String("event_type", eventType),
			slog.String("event_id", event.ID.String()),
			slog.String("task_id", task.EntityID),
			slog.String("error", err.Error()))
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
