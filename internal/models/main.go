// Package models defines the core data structures for users and tasks.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id" db:"id"`
	// Email is the normalized (trimmed, lowercased) login address.
	Email string `json:"email" db:"email"`
	// PasswordHash is the bcrypt hash of the user's password. It is never serialized.
	PasswordHash []byte `json:"-" db:"password_hash"`
	// CreatedAt is the time the user signed up.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	// UpdatedAt is the time the record was last written.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// SignupInput is the registration payload.
type SignupInput struct {
	Email           string `json:"email" validate:"required,emailaddr,nonul"`
	Password        string `json:"password" validate:"min=6,max=72,maxbytes=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// Task is a single to-do item owned by exactly one user.
type Task struct {
	// ID is the unique identifier for the task.
	ID string `json:"id" db:"id"`
	// Title is the required short summary.
	Title string `json:"title" db:"title"`
	// Description holds optional free-form notes; empty when absent.
	Description string `json:"description" db:"description"`
	// Completed reports whether the task is done.
	Completed bool `json:"completed" db:"completed"`
	// Priority is one of low, medium or high.
	Priority Priority `json:"priority" db:"priority"`
	// DueDate is the optional deadline.
	DueDate *time.Time `json:"dueDate,omitempty" db:"due_date"`
	// UserID references the owning user.
	UserID string `json:"userId" db:"user_id"`
	// CreatedAt is the time the task was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	// UpdatedAt is the time the task was last replaced.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Priority defines the set of valid task priority identifiers.
type Priority string

const (
	// PriorityLow marks a task that can wait.
	PriorityLow Priority = "low"
	// PriorityMedium is the default priority.
	PriorityMedium Priority = "medium"
	// PriorityHigh marks an urgent task.
	PriorityHigh Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
