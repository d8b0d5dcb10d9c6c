package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTaskTitleLength is the longest title, in characters, a task may carry.
const MaxTaskTitleLength = 255

// Priority ranks how urgent a task is.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DefaultPriority is assigned when a task is created without one.
const DefaultPriority = PriorityMedium

// Priorities lists the valid priorities in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Task is a versioned to-do item owned by a single person.
//
// EntityID, Version and ChangedOn belong to the persistence layer: they are
// assigned on save and are opaque to the rest of the application. Inactive
// tasks are soft-deleted and never surface through reads.
type Task struct {
	EntityID    string
	Version     string
	PersonID    string
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    Priority
	IsCompleted bool
	CompletedOn *time.Time
	ChangedOn   time.Time
	Active      bool
}

// NewTaskOptions carries the optional fields of a new task.
type NewTaskOptions struct {
	Description *string
	DueDate     *time.Time
	Priority    Priority
}

// NewTask builds an active, incomplete task for personID.
// It does not validate; callers run Validate before persisting.
func NewTask(personID, title string, opts NewTaskOptions) *Task {
	priority := opts.Priority
	if priority == "" {
		priority = DefaultPriority
	}

	return &Task{
		PersonID:    personID,
		Title:       title,
		Description: opts.Description,
		DueDate:     opts.DueDate,
		Priority:    priority,
		IsCompleted: false,
		CompletedOn: nil,
		Active:      true,
	}
}

// Validate checks title, priority and owner and returns a *ValidationError
// listing every violation found.
func (t *Task) Validate() error {
	var violations []string

	trimmed := strings.TrimSpace(t.Title)
	switch {
	case t.Title == "":
		violations = append(violations, "Title is required")
	case trimmed == "":
		violations = append(violations, "Title cannot be empty")
	case utf8.RuneCountInString(trimmed) > MaxTaskTitleLength:
		violations = append(violations,
			fmt.Sprintf("Title cannot exceed %d characters", MaxTaskTitleLength))
	}

	if !t.Priority.IsValid() {
		violations = append(violations, "Priority must be one of: "+priorityList())
	}

	if strings.TrimSpace(t.PersonID) == "" {
		violations = append(violations, "Person ID is required")
	}

	if len(violations) > 0 {
		return NewValidationError(violations...)
	}
	return nil
}

// Complete marks the task done and stamps the completion time.
func (t *Task) Complete(at time.Time) {
	at = at.UTC()
	t.IsCompleted = true
	t.CompletedOn = &at
}

// Reopen marks the task not done and clears the completion time.
func (t *Task) Reopen() {
	t.IsCompleted = false
	t.CompletedOn = nil
}

// SoftDelete hides the task from every read without removing the record.
func (t *Task) SoftDelete() {
	t.Active = false
}

func priorityList() string {
	names := make([]string, len(Priorities))
	for i, p := range Priorities {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
