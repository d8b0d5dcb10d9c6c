package api

import (
	"context"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockTaskService struct {
	mock.Mock
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) CreateTask(
	ctx context.Context,
	personID string,
	params service.CreateTaskParams,
) (*domain.Task, error) {
	args := m.Called(ctx, personID, params)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) ListTasks(
	ctx context.Context,
	personID string,
	status service.StatusFilter,
) ([]*domain.Task, error) {
	args := m.Called(ctx, personID, status)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskService) GetTask(ctx context.Context, taskID, personID string) (*domain.Task, error) {
	args := m.Called(ctx, taskID, personID)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	taskID, personID string,
	update service.TaskUpdate,
) (*domain.Task, error) {
	args := m.Called(ctx, taskID, personID, update)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) MarkComplete(ctx context.Context, taskID, personID string) (*domain.Task, error) {
	args := m.Called(ctx, taskID, personID)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, taskID, personID string) (bool, error) {
	args := m.Called(ctx, taskID, personID)
	return args.Bool(0), args.Error(1)
}
