package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tickingClock advances one minute per call so successive stamps differ.
type tickingClock struct {
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

type serviceFixture struct {
	svc     TaskService
	store   *memTaskStore
	emitter *recordingEmitter
	clock   *tickingClock
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		store:   newMemTaskStore(),
		emitter: &recordingEmitter{},
		clock:   &tickingClock{now: time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)},
	}

	svc, err := NewTaskService(NewTaskRepository(f.store), f.emitter, discardLogger(), WithClock(f.clock.Now))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *serviceFixture) create(t *testing.T, personID, title string) *domain.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), personID, CreateTaskParams{Title: title})
	require.NoError(t, err)
	return task
}

func TestNewTaskService_NilDependencies(t *testing.T) {
	_, err := NewTaskService(nil, &recordingEmitter{}, nil)
	assert.Error(t, err)

	_, err = NewTaskService(NewTaskRepository(newMemTaskStore()), nil, nil)
	assert.Error(t, err)

	svc, err := NewTaskService(NewTaskRepository(newMemTaskStore()), &recordingEmitter{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestCreateTask(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	desc := "water and power"
	due := time.Date(2025, time.February, 1, 10, 0, 0, 0, time.FixedZone("PST", -8*3600))

	task, err := f.svc.CreateTask(ctx, "person-1", CreateTaskParams{
		Title:       "Pay bills",
		Description: &desc,
		DueDate:     &due,
		Priority:    domain.PriorityHigh,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.EntityID)
	assert.NotEmpty(t, task.Version)
	assert.Equal(t, "person-1", task.PersonID)
	assert.Equal(t, "Pay bills", task.Title)
	assert.Equal(t, "water and power", *task.Description)
	assert.True(t, task.DueDate.Equal(due))
	assert.Equal(t, time.UTC, task.DueDate.Location())
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.CompletedOn)
	assert.True(t, task.Active)

	assert.Equal(t, []string{events.TaskCreated}, f.emitter.types())
	assert.Equal(t, task.EntityID, f.emitter.events[0].TaskID)
}

func TestCreateTask_DefaultPriority(t *testing.T) {
	f := newServiceFixture(t)
	task := f.create(t, "person-1", "Pay bills")
	assert.Equal(t, domain.PriorityMedium, task.Priority)
}

func TestCreateTask_TitleLengthBoundary(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTask(ctx, "person-1", CreateTaskParams{Title: strings.Repeat("a", 255)})
	assert.NoError(t, err)

	_, err = f.svc.CreateTask(ctx, "person-1", CreateTaskParams{Title: strings.Repeat("a", 256)})
	require.Error(t, err)
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []string{"Title cannot exceed 255 characters"}, vErr.Violations)
}

func TestCreateTask_PriorityMembership(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for _, p := range domain.Priorities {
		_, err := f.svc.CreateTask(ctx, "person-1", CreateTaskParams{Title: "t", Priority: p})
		assert.NoError(t, err, "priority %q", p)
	}

	for _, p := range []domain.Priority{"critical", "HIGH", "none"} {
		_, err := f.svc.CreateTask(ctx, "person-1", CreateTaskParams{Title: "t", Priority: p})
		assert.ErrorIs(t, err, domain.ErrValidation, "priority %q", p)
	}
}

func TestCreateTask_ValidationRunsBeforeWrite(t *testing.T) {
	repo := new(MockTaskRepository)
	svc, err := NewTaskService(repo, &recordingEmitter{}, discardLogger())
	require.NoError(t, err)

	_, err = svc.CreateTask(context.Background(), "person-1", CreateTaskParams{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateTask_SaveFailure(t *testing.T) {
	repo := new(MockTaskRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
	emitter := &recordingEmitter{}

	svc, err := NewTaskService(repo, emitter, discardLogger())
	require.NoError(t, err)

	_, err = svc.CreateTask(context.Background(), "person-1", CreateTaskParams{Title: "Pay bills"})
	var svcErr *TaskServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "create_task", svcErr.Operation)
	assert.Empty(t, emitter.types(), "no event for a failed write")
}

func TestCreateTask_EmitFailureDoesNotFailRequest(t *testing.T) {
	f := newServiceFixture(t)
	f.emitter.err = errors.New("broker down")

	task, err := f.svc.CreateTask(context.Background(), "person-1", CreateTaskParams{Title: "Pay bills"})
	require.NoError(t, err)
	assert.NotEmpty(t, task.EntityID)
}

func TestListTasks_StatusPartition(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := f.create(t, "person-1", "a")
	f.create(t, "person-1", "b")
	c := f.create(t, "person-1", "c")
	gone := f.create(t, "person-1", "d")
	f.create(t, "person-2", "other")

	_, err := f.svc.MarkComplete(ctx, a.EntityID, "person-1")
	require.NoError(t, err)
	_, err = f.svc.MarkComplete(ctx, c.EntityID, "person-1")
	require.NoError(t, err)
	_, err = f.svc.DeleteTask(ctx, gone.EntityID, "person-1")
	require.NoError(t, err)

	all, err := f.svc.ListTasks(ctx, "person-1", StatusAll)
	require.NoError(t, err)
	completed, err := f.svc.ListTasks(ctx, "person-1", StatusCompleted)
	require.NoError(t, err)
	incomplete, err := f.svc.ListTasks(ctx, "person-1", StatusIncomplete)
	require.NoError(t, err)

	assert.Len(t, all, 3)
	assert.Len(t, all, len(completed)+len(incomplete))
	for _, task := range completed {
		assert.True(t, task.IsCompleted)
	}
	for _, task := range incomplete {
		assert.False(t, task.IsCompleted)
	}
	for _, task := range all {
		assert.True(t, task.Active)
		assert.Equal(t, "person-1", task.PersonID)
		assert.NotEqual(t, gone.EntityID, task.EntityID)
	}
}

func TestListTasks_StoreFailure(t *testing.T) {
	repo := new(MockTaskRepository)
	repo.On("FindByOwner", mock.Anything, "person-1", StatusAll).Return(nil, errors.New("timeout"))

	svc, err := NewTaskService(repo, &recordingEmitter{}, discardLogger())
	require.NoError(t, err)

	_, err = svc.ListTasks(context.Background(), "person-1", StatusAll)
	var svcErr *TaskServiceError
	assert.True(t, errors.As(err, &svcErr))
}

func TestGetTask(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	created := f.create(t, "person-1", "Pay bills")

	got, err := f.svc.GetTask(ctx, created.EntityID, "person-1")
	require.NoError(t, err)
	assert.Equal(t, created.EntityID, got.EntityID)

	_, err = f.svc.GetTask(ctx, "missing", "person-1")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestForeignOwnerIsNotFound(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	created := f.create(t, "owner", "Private")

	_, err := f.svc.GetTask(ctx, created.EntityID, "intruder")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.svc.UpdateTask(ctx, created.EntityID, "intruder", TaskUpdate{Title: domain.Some("hijacked")})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.svc.MarkComplete(ctx, created.EntityID, "intruder")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	ok, err := f.svc.DeleteTask(ctx, created.EntityID, "intruder")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.False(t, ok)

	stored, _ := f.store.raw(created.EntityID)
	assert.Equal(t, "Private", stored.Title)
	assert.False(t, stored.IsCompleted)
	assert.True(t, stored.Active)
}

func TestTaskUpdate_Fields(t *testing.T) {
	var update TaskUpdate
	require.NoError(t, json.Unmarshal([]byte(`null`), &update.Description))
	update.Title = domain.Some("Pay bills")
	update.IsCompleted = domain.Some(false)

	applied, ignored := update.fields()
	assert.Equal(t, []string{"title", "is_completed"}, applied)
	assert.Equal(t, []string{"description"}, ignored)

	applied, ignored = TaskUpdate{}.fields()
	assert.Empty(t, applied)
	assert.Empty(t, ignored)
}

func TestUpdateTask_PartialFields(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	desc := "original"
	created, err := f.svc.CreateTask(ctx, "person-1", CreateTaskParams{
		Title:       "Pay bills",
		Description: &desc,
		Priority:    domain.PriorityLow,
	})
	require.NoError(t, err)

	var nullTitle domain.Optional[string]
	require.NoError(t, json.Unmarshal([]byte("null"), &nullTitle))

	due := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	updated, err := f.svc.UpdateTask(ctx, created.EntityID, "person-1", TaskUpdate{
		Priority: domain.Some(domain.PriorityUrgent),
		DueDate:  domain.Some(due),
		// Explicit null leaves the field alone.
		Title: nullTitle,
	})
	require.NoError(t, err)

	assert.Equal(t, "Pay bills", updated.Title)
	assert.Equal(t, "original", *updated.Description)
	assert.Equal(t, domain.PriorityUrgent, updated.Priority)
	assert.True(t, updated.DueDate.Equal(due))
	assert.NotEqual(t, created.Version, updated.Version)

	updated, err = f.svc.UpdateTask(ctx, created.EntityID, "person-1", TaskUpdate{
		Description: domain.Some(""),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "", *updated.Description)

	assert.Equal(t, []string{events.TaskCreated, events.TaskUpdated, events.TaskUpdated}, f.emitter.types())
}

func TestUpdateTask_ValidationFailureDoesNotSave(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	created := f.create(t, "person-1", "Pay bills")

	tests := []struct {
		name   string
		update TaskUpdate
	}{
		{name: "empty title", update: TaskUpdate{Title: domain.Some("")}},
		{name: "blank title", update: TaskUpdate{Title: domain.Some("   ")}},
		{name: "long title", update: TaskUpdate{Title: domain.Some(strings.Repeat("x", 256))}},
		{name: "bad priority", update: TaskUpdate{Priority: domain.Some(domain.Priority("asap"))}},
		{name: "empty priority", update: TaskUpdate{Priority: domain.Some(domain.Priority(""))}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UpdateTask(ctx, created.EntityID, "person-1", tc.update)
			assert.ErrorIs(t, err, domain.ErrValidation)

			stored, _ := f.store.raw(created.EntityID)
			assert.Equal(t, created.Version, stored.Version, "nothing may be written")
		})
	}
}

func TestUpdateTask_CompletionTimestamps(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	created := f.create(t, "person-1", "Pay bills")

	completed, err := f.svc.MarkComplete(ctx, created.EntityID, "person-1")
	require.NoError(t, err)
	assert.True(t, completed.IsCompleted)
	require.NotNil(t, completed.CompletedOn)

	reopened, err := f.svc.UpdateTask(ctx, created.EntityID, "person-1", TaskUpdate{
		IsCompleted: domain.Some(false),
	})
	require.NoError(t, err)
	assert.False(t, reopened.IsCompleted)
	assert.Nil(t, reopened.CompletedOn)

	first, err := f.svc.UpdateTask(ctx, created.EntityID, "person-1", TaskUpdate{
		IsCompleted: domain.Some(true),
	})
	require.NoError(t, err)
	require.NotNil(t, first.CompletedOn)

	second, err := f.svc.UpdateTask(ctx, created.EntityID, "person-1", TaskUpdate{
		IsCompleted: domain.Some(true),
	})
	require.NoError(t, err)
	require.NotNil(t, second.CompletedOn)
	assert.True(t, second.CompletedOn.After(*first.CompletedOn),
		"resubmitting is_completed=true re-stamps completed_on")

	assert.Equal(t, []string{
		events.TaskCreated,
		events.TaskCompleted,
		events.TaskUpdated,
		events.TaskCompleted,
		events.TaskCompleted,
	}, f.emitter.types())
}

func TestMarkComplete_SkipsValidation(t *testing.T) {
	legacy := &domain.Task{
		EntityID: "task-1",
		Version:  "v1",
		PersonID: "person-1",
		Title:    strings.Repeat("x", 300),
		Priority: domain.PriorityMedium,
		Active:   true,
	}

	repo := new(MockTaskRepository)
	repo.On("FindOneByOwner", mock.Anything, "task-1", "person-1").Return(legacy, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
		return task.IsCompleted && task.CompletedOn != nil
	})).Return(legacy, nil)

	svc, err := NewTaskService(repo, &recordingEmitter{}, discardLogger())
	require.NoError(t, err)

	_, err = svc.MarkComplete(context.Background(), "task-1", "person-1")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDeleteTask_SoftDeletes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	created := f.create(t, "person-1", "Pay bills")

	ok, err := f.svc.DeleteTask(ctx, created.EntityID, "person-1")
	require.NoError(t, err)
	assert.True(t, ok)

	stored, found := f.store.raw(created.EntityID)
	require.True(t, found, "record is retained")
	assert.False(t, stored.Active)

	_, err = f.svc.GetTask(ctx, created.EntityID, "person-1")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	for _, status := range []StatusFilter{StatusAll, StatusCompleted, StatusIncomplete} {
		tasks, err := f.svc.ListTasks(ctx, "person-1", status)
		require.NoError(t, err)
		assert.Empty(t, tasks, "status %s", status)
	}

	_, err = f.svc.DeleteTask(ctx, created.EntityID, "person-1")
	assert.ErrorIs(t, err, ErrTaskNotFound, "deleting twice reports not found")
}

func TestMutations_VersionConflictSurfaces(t *testing.T) {
	task := &domain.Task{
		EntityID: "task-1",
		Version:  "v1",
		PersonID: "person-1",
		Title:    "Pay bills",
		Priority: domain.PriorityMedium,
		Active:   true,
	}
	conflict := fmt.Errorf("%w: task task-1", store.ErrVersionConflict)

	repo := new(MockTaskRepository)
	repo.On("FindOneByOwner", mock.Anything, "task-1", "person-1").
		Return(task, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil, conflict)

	svc, err := NewTaskService(repo, &recordingEmitter{}, discardLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.UpdateTask(ctx, "task-1", "person-1", TaskUpdate{Title: domain.Some("New")})
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	_, err = svc.MarkComplete(ctx, "task-1", "person-1")
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	_, err = svc.DeleteTask(ctx, "task-1", "person-1")
	assert.ErrorIs(t, err, store.ErrVersionConflict)
}
