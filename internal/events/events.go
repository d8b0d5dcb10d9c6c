package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task event types. They double as AMQP routing keys.
const (
	TaskCreated   = "task.created"
	TaskUpdated   = "task.updated"
	TaskCompleted = "task.completed"
	TaskDeleted   = "task.deleted"
)

// TaskEvent records something that happened to a task.
type TaskEvent struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	TaskID     string          `json:"task_id"`
	PersonID   string          `json:"person_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewTaskEvent creates a TaskEvent with payload serialized as JSON.
// A nil payload is omitted.
func NewTaskEvent(eventType, taskID, personID string, payload any) (*TaskEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &TaskEvent{
		ID:         uuid.New(),
		Type:       eventType,
		TaskID:     taskID,
		PersonID:   personID,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler processes emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter publishes events to every registered handler.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
