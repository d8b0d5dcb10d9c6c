package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/store"
)

const taskColumns = `entity_id, version, person_id, title, description, due_date,
	priority, is_completed, completed_on, changed_on, active`

// TaskStore implements store.TaskStore on top of database/sql.
type TaskStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
	now     func() time.Time
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a TaskStore. It panics if db is nil.
// If logger is nil, the default logger is used.
func NewTaskStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "task_store")),
		now:     time.Now,
	}
}

// WithClock returns a copy of the store that stamps changed_on using now.
func (s *TaskStore) WithClock(now func() time.Time) *TaskStore {
	c := *s
	c.now = now
	return &c
}

// Save implements store.TaskStore.Save.
// A task without an entity ID is inserted under a fresh UUID. Otherwise the
// stored row is updated when its version matches the task's, and the task is
// inserted under its own ID when no row exists yet.
func (s *TaskStore) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if task == nil {
		return nil, fmt.Errorf("%w: task cannot be nil", store.ErrInvalidEntity)
	}

	saved := *task
	saved.ChangedOn = s.now().UTC()
	saved.Version = uuid.NewString()

	if saved.EntityID == "" {
		saved.EntityID = uuid.NewString()
		if err := s.insert(ctx, &saved); err != nil {
			return nil, err
		}
		log.Debug("task inserted",
			slog.String("task_id", saved.EntityID),
			slog.String("person_id", saved.PersonID))
		return &saved, nil
	}

	updated, err := s.update(ctx, &saved, task.Version)
	if err != nil {
		return nil, err
	}
	if updated {
		log.Debug("task updated",
			slog.String("task_id", saved.EntityID),
			slog.String("version", saved.Version))
		return &saved, nil
	}

	var current string
	err = s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT version FROM tasks WHERE entity_id = ?`),
		saved.EntityID,
	).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := s.insert(ctx, &saved); err != nil {
			return nil, err
		}
		return &saved, nil
	case err != nil:
		log.Error("failed to read task version",
			slog.String("error", err.Error()),
			slog.String("task_id", saved.EntityID))
		return nil, store.NewStoreError("task", "save", "failed to read task version", MapError(err))
	}

	log.Warn("stale task version rejected",
		slog.String("task_id", saved.EntityID),
		slog.String("given_version", task.Version),
		slog.String("stored_version", current))
	return nil, store.NewStoreError("task", "save",
		fmt.Sprintf("version %s of task %s is stale", task.Version, saved.EntityID),
		store.ErrVersionConflict)
}

func (s *TaskStore) insert(ctx context.Context, t *domain.Task) error {
	query := s.dialect.Rebind(`
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		t.EntityID,
		t.Version,
		t.PersonID,
		t.Title,
		nullString(t.Description),
		nullTime(t.DueDate),
		string(t.Priority),
		t.IsCompleted,
		nullTime(t.CompletedOn),
		t.ChangedOn,
		t.Active,
	)
	if err != nil {
		log := logger.FromContextOrDefault(ctx, s.logger)
		// Another writer inserted the same ID first.
		if IsUniqueViolation(err) {
			log.Warn("task already exists",
				slog.String("task_id", t.EntityID))
			return store.NewStoreError("task", "insert", "task already exists",
				fmt.Errorf("%w: %v", store.ErrVersionConflict, err))
		}
		log.Error("failed to insert task",
			slog.String("error", err.Error()),
			slog.String("task_id", t.EntityID))
		return store.NewStoreError("task", "insert", "failed to insert task", MapError(err))
	}
	return nil
}

func (s *TaskStore) update(ctx context.Context, t *domain.Task, expectedVersion string) (bool, error) {
	query := s.dialect.Rebind(`
		UPDATE tasks
		SET version = ?, person_id = ?, title = ?, description = ?, due_date = ?,
			priority = ?, is_completed = ?, completed_on = ?, changed_on = ?, active = ?
		WHERE entity_id = ? AND version = ?
	`)

	result, err := s.db.ExecContext(ctx, query,
		t.Version,
		t.PersonID,
		t.Title,
		nullString(t.Description),
		nullTime(t.DueDate),
		string(t.Priority),
		t.IsCompleted,
		nullTime(t.CompletedOn),
		t.ChangedOn,
		t.Active,
		t.EntityID,
		expectedVersion,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", t.EntityID))
		return false, store.NewStoreError("task", "update", "failed to update task", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, store.NewStoreError("task", "update", "failed to get rows affected", err)
	}
	return rows > 0, nil
}

// GetOne implements store.TaskStore.GetOne.
// Returns store.ErrTaskNotFound when no row matches the filter.
func (s *TaskStore) GetOne(ctx context.Context, filter store.TaskFilter) (*domain.Task, error) {
	where, args := buildWhere(filter)
	query := s.dialect.Rebind(`SELECT ` + taskColumns + ` FROM tasks` + where + ` LIMIT 1`)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get_one", "failed to get task", MapError(err))
	}
	return task, nil
}

// GetMany implements store.TaskStore.GetMany.
// Tasks are returned most recently changed first.
func (s *TaskStore) GetMany(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildWhere(filter)
	query := s.dialect.Rebind(`SELECT ` + taskColumns + ` FROM tasks` + where +
		` ORDER BY changed_on DESC, entity_id`)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get_many", "failed to query tasks", MapError(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Error("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("task", "get_many", "failed to scan task row", MapError(err))
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get_many", "failed to iterate task rows", MapError(err))
	}

	log.Debug("tasks retrieved", slog.Int("count", len(tasks)))
	return tasks, nil
}

func buildWhere(f store.TaskFilter) (string, []any) {
	var conds []string
	var args []any

	if f.EntityID != nil {
		conds = append(conds, "entity_id = ?")
		args = append(args, *f.EntityID)
	}
	if f.PersonID != nil {
		conds = append(conds, "person_id = ?")
		args = append(args, *f.PersonID)
	}
	if f.Active != nil {
		conds = append(conds, "active = ?")
		args = append(args, *f.Active)
	}
	if f.IsCompleted != nil {
		conds = append(conds, "is_completed = ?")
		args = append(args, *f.IsCompleted)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t           domain.Task
		priority    string
		description sql.NullString
		dueDate     timestamp
		completedOn timestamp
		changedOn   timestamp
	)

	err := row.Scan(
		&t.EntityID,
		&t.Version,
		&t.PersonID,
		&t.Title,
		&description,
		&dueDate,
		&priority,
		&t.IsCompleted,
		&completedOn,
		&changedOn,
		&t.Active,
	)
	if err != nil {
		return nil, err
	}

	t.Priority = domain.Priority(priority)
	if description.Valid {
		t.Description = &description.String
	}
	t.DueDate = dueDate.ptr()
	t.CompletedOn = completedOn.ptr()
	if changedOn.valid {
		t.ChangedOn = changedOn.time
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
