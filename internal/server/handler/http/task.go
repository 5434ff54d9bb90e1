package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/atinyakov/taskkeeper/internal/middleware"
	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/atinyakov/taskkeeper/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TaskService defines the task operations required by the TaskHandler.
// ownerID is always the authenticated caller.
type TaskService interface {
	List(ctx context.Context, ownerID string, f models.TaskFilter) ([]models.Task, error)
	Create(ctx context.Context, ownerID string, in models.TaskInput) (*models.Task, error)
	Get(ctx context.Context, ownerID, taskID string) (*models.Task, error)
	Update(ctx context.Context, ownerID, taskID string, in models.TaskInput) (*models.Task, error)
	Delete(ctx context.Context, ownerID, taskID string) error
}

// TaskHandler handles HTTP requests for the caller's tasks.
type TaskHandler struct {
	TaskService TaskService
	Logger      *zap.Logger
}

// TaskRequest is the JSON body of create and update requests. Any owner field
// sent by the client is ignored.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
	Completed   bool   `json:"completed"`
}

func (req TaskRequest) input() (models.TaskInput, error) {
	in := models.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(strings.TrimSpace(req.Priority)),
		Completed:   req.Completed,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			return in, service.NewValidationError("dueDate", "dueDate must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		in.DueDate = &due
	}
	return in, nil
}

type taskResponse struct {
	Task *models.Task `json:"task"`
}

type tasksResponse struct {
	Tasks []models.Task `json:"tasks"`
}

// List handles GET /tasks?search=&completed=&priority=&dueDate=.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, h.Logger, "list tasks", err)
		return
	}

	tasks, err := h.TaskService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()), f)
	if err != nil {
		respondError(w, h.Logger, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasksResponse{Tasks: tasks})
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	task, err := h.TaskService.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), in)
	if err != nil {
		respondError(w, h.Logger, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, taskResponse{Task: task})
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.TaskService.Get(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.Logger, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: task})
}

// Update handles PUT /tasks/{id}; the body replaces every mutable field.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	task, err := h.TaskService.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, h.Logger, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: task})
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.Logger, "delete task", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (h *TaskHandler) readInput(w http.ResponseWriter, r *http.Request) (models.TaskInput, bool) {
	var req TaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return models.TaskInput{}, false
	}
	in, err := req.input()
	if err != nil {
		respondError(w, h.Logger, "task input", err)
		return models.TaskInput{}, false
	}
	return in, true
}

func parseFilter(r *http.Request) (models.TaskFilter, error) {
	q := r.URL.Query()
	f := models.TaskFilter{Search: strings.TrimSpace(q.Get("search"))}
	if strings.ContainsRune(f.Search, 0) {
		return f, service.NewValidationError("search", "search must not contain NUL characters")
	}

	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return f, service.NewValidationError("completed", "completed must be true or false")
		}
		f.Completed = &completed
	}
	if v := q.Get("priority"); v != "" {
		p := models.Priority(v)
		f.Priority = &p
	}
	if v := q.Get("dueDate"); v != "" {
		due, err := parseDate(v)
		if err != nil {
			return f, service.NewValidationError("dueDate", "dueDate must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		f.DueDate = &due
	}
	return f, nil
}
