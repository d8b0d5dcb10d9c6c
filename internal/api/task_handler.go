package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/service"
)

// TaskIDParam is the chi URL parameter holding the task ID.
const TaskIDParam = "id"

// CreateTaskRequest is the body of POST /task/.
type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Priority    *string `json:"priority"`
}

// UpdateTaskRequest is the body of PUT /task/{id}. Absent and null fields
// leave the task unchanged.
type UpdateTaskRequest struct {
	Title       domain.Optional[string] `json:"title"`
	Description domain.Optional[string] `json:"description"`
	DueDate     domain.Optional[string] `json:"due_date"`
	Priority    domain.Optional[string] `json:"priority"`
	IsCompleted domain.Optional[bool]   `json:"is_completed"`
}

// TaskHandler serves the /task resource.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// ListTasks handles GET /task/?status=all|completed|incomplete.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	person, ok := h.person(w, r)
	if !ok {
		return
	}

	raw := string(service.StatusAll)
	if values, present := r.URL.Query()["status"]; present {
		raw = values[0]
	}

	status, err := service.ParseStatusFilter(raw)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), person.EntityID, status)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	models := make([]domain.TaskResponseModel, 0, len(tasks))
	for _, t := range tasks {
		models = append(models, t.ResponseModel())
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "", map[string]any{
		"tasks": models,
		"count": len(models),
	})
}

// CreateTask handles POST /task/.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	person, ok := h.person(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "'title' is required and cannot be empty")
		return
	}

	params := service.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Priority != nil {
		params.Priority = domain.Priority(*req.Priority)
	}
	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}
		params.DueDate = &due
	}

	task, err := h.taskService.CreateTask(r.Context(), person.EntityID, params)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Debug("task created",
		"task_id", task.EntityID,
		"person_id", person.EntityID)

	shared.RespondWithSuccess(w, r, http.StatusCreated, "Task created successfully", map[string]any{
		"task": task.ResponseModel(),
	})
}

// GetTask handles GET /task/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	person, ok := h.person(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), chi.URLParam(r, TaskIDParam), person.EntityID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "", map[string]any{
		"task": task.ResponseModel(),
	})
}

// UpdateTask handles PUT /task/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	person, ok := h.person(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), chi.URLParam(r, TaskIDParam), person.EntityID, update)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Task updated successfully", map[string]any{
		"task": task.ResponseModel(),
	})
}

// DeleteTask handles DELETE /task/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	person, ok := h.person(w, r)
	if !ok {
		return
	}

	if _, err := h.taskService.DeleteTask(r.Context(), chi.URLParam(r, TaskIDParam), person.EntityID); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Task deleted successfully", nil)
}

// CompleteTask handles PATCH /task/{id}/complete.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	person, ok := h.person(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.MarkComplete(r.Context(), chi.URLParam(r, TaskIDParam), person.EntityID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Task marked as complete", map[string]any{
		"task": task.ResponseModel(),
	})
}

// person returns the authenticated caller, writing a 401 when the auth
// middleware did not run.
func (h *TaskHandler) person(w http.ResponseWriter, r *http.Request) (shared.Person, bool) {
	p, ok := shared.PersonFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return shared.Person{}, false
	}
	return p, true
}

func (req UpdateTaskRequest) toUpdate() (service.TaskUpdate, error) {
	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	}

	if p, ok := req.Priority.Get(); ok {
		update.Priority = domain.Some(domain.Priority(p))
	}

	if raw, ok := req.DueDate.Get(); ok && strings.TrimSpace(raw) != "" {
		due, err := parseDueDate(raw)
		if err != nil {
			return service.TaskUpdate{}, err
		}
		update.DueDate = domain.Some[time.Time](due)
	}

	return update, nil
}
