package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/atinyakov/taskkeeper/internal/repository"
	"github.com/google/uuid"
)

// TaskRepository defines the persistence operations needed by the TaskService.
// Every method is scoped to the owner it receives.
type TaskRepository interface {
	// ListTasks returns the owner's tasks matching f, newest first.
	ListTasks(ctx context.Context, ownerID string, f models.TaskFilter) ([]models.Task, error)
	// GetTask fetches one of the owner's tasks or repository.ErrNotFound.
	GetTask(ctx context.Context, ownerID, id string) (*models.Task, error)
	// CreateTask inserts a fully populated task.
	CreateTask(ctx context.Context, t *models.Task) error
	// UpdateTask replaces the mutable fields of t.ID owned by t.UserID.
	UpdateTask(ctx context.Context, t *models.Task) (*models.Task, error)
	// DeleteTask removes one of the owner's tasks or returns repository.ErrNotFound.
	DeleteTask(ctx context.Context, ownerID, id string) error
}

// TaskService implements owner-scoped task management.
type TaskService struct {
	repo TaskRepository
	now  func() time.Time
}

// NewTaskService constructs a TaskService with the provided TaskRepository.
func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

func (s *TaskService) timestamp() time.Time {
	// Postgres keeps microseconds; trimming here keeps the returned record
	// equal to what a later read yields.
	return s.now().UTC().Truncate(time.Microsecond)
}

// List returns the owner's tasks matching f, newest first. No match is an
// empty slice, not an error.
func (s *TaskService) List(ctx context.Context, ownerID string, f models.TaskFilter) ([]models.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if f.Priority != nil && !f.Priority.Valid() {
		return nil, NewValidationError("priority", "priority must be one of: low, medium, high")
	}

	tasks, err := s.repo.ListTasks(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// Create validates in and stores a new task owned by ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID string, in models.TaskInput) (*models.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	in.Normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	t := &models.Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		Priority:    in.Priority,
		DueDate:     utcPtr(in.DueDate),
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// Get returns the owner's task with taskID. A missing task and one owned by
// another user both yield ErrNotFound.
func (s *TaskService) Get(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	id, ok := canonicalID(taskID)
	if !ok {
		return nil, ErrNotFound
	}

	t, err := s.repo.GetTask(ctx, ownerID, id)
	if err != nil {
		return nil, translateNotFound(err, "get task")
	}
	return t, nil
}

// Update replaces every mutable field of the owner's task with in. Fields
// absent from in fall back to their defaults.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, in models.TaskInput) (*models.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	id, ok := canonicalID(taskID)
	if !ok {
		return nil, ErrNotFound
	}
	in.Normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	t, err := s.repo.UpdateTask(ctx, &models.Task{
		ID:          id,
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		Priority:    in.Priority,
		DueDate:     utcPtr(in.DueDate),
		UpdatedAt:   s.timestamp(),
	})
	if err != nil {
		return nil, translateNotFound(err, "update task")
	}
	return t, nil
}

// Delete removes the owner's task. Deleting twice reports ErrNotFound.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}
	id, ok := canonicalID(taskID)
	if !ok {
		return ErrNotFound
	}

	if err := s.repo.DeleteTask(ctx, ownerID, id); err != nil {
		return translateNotFound(err, "delete task")
	}
	return nil
}

func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func translateNotFound(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Microsecond)
	return &u
}
