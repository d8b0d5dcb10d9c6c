package domain

import "time"

// TaskResponseModel is the API representation of a Task. Timestamps are
// RFC 3339 strings in UTC, or null when unset.
type TaskResponseModel struct {
	EntityID    string  `json:"entity_id"`
	Version     string  `json:"version"`
	PersonID    string  `json:"person_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Priority    string  `json:"priority"`
	IsCompleted bool    `json:"is_completed"`
	CompletedOn *string `json:"completed_on"`
	ChangedOn   *string `json:"changed_on"`
	Active      bool    `json:"active"`
}

// ResponseModel converts the task into its API representation.
func (t *Task) ResponseModel() TaskResponseModel {
	var changedOn *string
	if !t.ChangedOn.IsZero() {
		changedOn = formatTimestamp(&t.ChangedOn)
	}

	return TaskResponseModel{
		EntityID:    t.EntityID,
		Version:     t.Version,
		PersonID:    t.PersonID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     formatTimestamp(t.DueDate),
		Priority:    string(t.Priority),
		IsCompleted: t.IsCompleted,
		CompletedOn: formatTimestamp(t.CompletedOn),
		ChangedOn:   changedOn,
		Active:      t.Active,
	}
}

func formatTimestamp(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	s := ts.UTC().Format(time.RFC3339Nano)
	return &s
}
