package models

import (
	"strings"
	"time"
)

// TaskInput carries the client-controlled fields of a task for create and
// full-replace update. Constraints are declared once here and checked by the
// task service.
type TaskInput struct {
	Title       string     `json:"title" validate:"min=1,max=100,nonul"`
	Description string     `json:"description" validate:"max=500,nonul"`
	Priority    Priority   `json:"priority" validate:"oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   bool       `json:"completed"`
}

// Normalize trims text fields and fills defaults for absent optional fields.
func (in *TaskInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
}

// TaskFilter narrows a task listing. Nil / empty fields are ignored and the
// remaining ones are combined with AND.
type TaskFilter struct {
	// Search is a case-insensitive substring matched against title or description.
	Search string
	// Completed restricts to tasks with this completion state.
	Completed *bool
	// Priority restricts to tasks with this priority.
	Priority *Priority
	// DueDate restricts to tasks due on this UTC calendar day.
	DueDate *time.Time
}
