package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/jmoiron/sqlx"
)

var taskColumns = []string{
	"id", "title", "description", "completed", "priority",
	"due_date", "user_id", "created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// likeEscaper neutralizes LIKE metacharacters so search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresTaskRepository implements owner-scoped task persistence against PostgreSQL.
// Every statement filters on user_id, so a task owned by someone else behaves
// exactly like a missing one.
type PostgresTaskRepository struct {
	// DB is the database handle for executing queries.
	DB *sqlx.DB
}

// NewPostgresTaskRepository creates a new PostgresTaskRepository using the provided *sql.DB.
func NewPostgresTaskRepository(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{DB: sqlx.NewDb(db, "postgres")}
}

// ListTasks returns the owner's tasks matching every set field of f, newest first.
// The result is never nil.
func (r *PostgresTaskRepository) ListTasks(ctx context.Context, ownerID string, f models.TaskFilter) ([]models.Task, error) {
	where := sq.And{sq.Eq{"user_id": ownerID}}

	if f.Search != "" {
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}
	if f.Completed != nil {
		where = append(where, sq.Eq{"completed": *f.Completed})
	}
	if f.Priority != nil {
		where = append(where, sq.Eq{"priority": string(*f.Priority)})
	}
	if f.DueDate != nil {
		day := f.DueDate.UTC().Truncate(24 * time.Hour)
		where = append(where,
			sq.GtOrEq{"due_date": day},
			sq.Lt{"due_date": day.Add(24 * time.Hour)},
		)
	}

	query, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	tasks := []models.Task{}
	if err := r.DB.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("ListTasks: %w", err)
	}
	return tasks, nil
}

// GetTask fetches a single task by id for the given owner.
func (r *PostgresTaskRepository) GetTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	query, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var t models.Task
	if err := r.DB.GetContext(ctx, &t, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetTask: %w", err)
	}
	return &t, nil
}

// CreateTask inserts t as is; the caller fills id, owner and timestamps.
func (r *PostgresTaskRepository) CreateTask(ctx context.Context, t *models.Task) error {
	query, args, err := psql.Insert("tasks").
		Columns(taskColumns...).
		Values(t.ID, t.Title, t.Description, t.Completed, string(t.Priority),
			t.DueDate, t.UserID, t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("CreateTask: %w", err)
	}
	return nil
}

// UpdateTask replaces the mutable fields of the task identified by t.ID and
// t.UserID and returns the stored row. ErrNotFound covers both a missing task
// and one owned by another user.
func (r *PostgresTaskRepository) UpdateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	query, args, err := psql.Update("tasks").
		SetMap(map[string]any{
			"title":       t.Title,
			"description": t.Description,
			"completed":   t.Completed,
			"priority":    string(t.Priority),
			"due_date":    t.DueDate,
			"updated_at":  t.UpdatedAt,
		}).
		Where(sq.Eq{"id": t.ID, "user_id": t.UserID}).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	var updated models.Task
	if err := r.DB.QueryRowxContext(ctx, query, args...).StructScan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("UpdateTask: %w", err)
	}
	return &updated, nil
}

// DeleteTask removes the owner's task with the given id.
func (r *PostgresTaskRepository) DeleteTask(ctx context.Context, ownerID, id string) error {
	query, args, err := psql.Delete("tasks").
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("DeleteTask: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteTask rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
