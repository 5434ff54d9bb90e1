package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/taskkeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTaskMock(t *testing.T) (*PostgresTaskRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresTaskRepository(db), mock
}

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows(taskColumns)
}

func TestListTasks_OwnerOnly(t *testing.T) {
	repo, mock := setupTaskMock(t)

	older := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, description, completed, priority, due_date, user_id, created_at, updated_at FROM tasks WHERE (user_id = $1) ORDER BY created_at DESC`)).
		WithArgs("owner").
		WillReturnRows(taskRows().
			AddRow("t2", "Second", "", false, "high", nil, "owner", newer, newer).
			AddRow("t1", "First", "notes", true, "low", older, "owner", older, older))

	tasks, err := repo.ListTasks(context.Background(), "owner", models.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].ID)
	assert.Nil(t, tasks[0].DueDate)
	assert.Equal(t, models.PriorityLow, tasks[1].Priority)
	require.NotNil(t, tasks[1].DueDate)
	assert.True(t, tasks[1].DueDate.Equal(older))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTasks_EmptyIsNotNil(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE`)).
		WithArgs("owner").
		WillReturnRows(taskRows())

	tasks, err := repo.ListTasks(context.Background(), "owner", models.TaskFilter{})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestListTasks_AllFilters(t *testing.T) {
	repo, mock := setupTaskMock(t)

	completed := true
	priority := models.PriorityHigh
	due := time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC)
	dayStart := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(
		regexp.QuoteMeta(`FROM tasks WHERE (user_id = $1 AND (title ILIKE $2 OR description ILIKE $3) AND completed = $4 AND priority = $5 AND due_date >= $6 AND due_date < $7) ORDER BY created_at DESC`),
	).
		WithArgs("owner", `%50\% off%`, `%50\% off%`, true, "high", dayStart, dayStart.Add(24*time.Hour)).
		WillReturnRows(taskRows())

	_, err := repo.ListTasks(context.Background(), "owner", models.TaskFilter{
		Search:    "50% off",
		Completed: &completed,
		Priority:  &priority,
		DueDate:   &due,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTasks_QueryError(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks`)).WillReturnError(errors.New("boom"))

	_, err := repo.ListTasks(context.Background(), "owner", models.TaskFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ListTasks")
}

func TestGetTask(t *testing.T) {
	repo, mock := setupTaskMock(t)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1 AND user_id = $2`)).
		WithArgs("t1", "owner").
		WillReturnRows(taskRows().AddRow("t1", "Buy milk", "", false, "high", nil, "owner", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1 AND user_id = $2`)).
		WithArgs("t1", "intruder").
		WillReturnRows(taskRows())

	task, err := repo.GetTask(context.Background(), "owner", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, models.PriorityHigh, task.Priority)

	_, err = repo.GetTask(context.Background(), "intruder", "t1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTask(t *testing.T) {
	repo, mock := setupTaskMock(t)

	now := time.Now().UTC()
	task := &models.Task{
		ID: "t1", Title: "Buy milk", Priority: models.PriorityMedium,
		UserID: "owner", CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks (id,title,description,completed,priority,due_date,user_id,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`)).
		WithArgs("t1", "Buy milk", "", false, "medium", nil, "owner", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateTask(context.Background(), task))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTask(t *testing.T) {
	repo, mock := setupTaskMock(t)

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	in := &models.Task{
		ID: "t1", UserID: "owner", Title: "Renamed", Description: "d",
		Completed: true, Priority: models.PriorityLow, UpdatedAt: now,
	}
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks SET completed = $1, description = $2, due_date = $3, priority = $4, title = $5, updated_at = $6 WHERE id = $7 AND user_id = $8 RETURNING id, title`)).
		WithArgs(true, "d", nil, "low", "Renamed", now, "t1", "owner").
		WillReturnRows(taskRows().AddRow("t1", "Renamed", "d", true, "low", nil, "owner", created, now))

	got, err := repo.UpdateTask(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTask_ForeignIsNotFound(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks SET`)).
		WillReturnRows(taskRows())

	_, err := repo.UpdateTask(context.Background(), &models.Task{ID: "t1", UserID: "intruder", Title: "x", Priority: models.PriorityLow})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1 AND user_id = $2`)).
		WithArgs("t1", "owner").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1 AND user_id = $2`)).
		WithArgs("t1", "owner").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteTask(context.Background(), "owner", "t1"))
	assert.ErrorIs(t, repo.DeleteTask(context.Background(), "owner", "t1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTask_Error(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks`)).WillReturnError(errors.New("boom"))

	err := repo.DeleteTask(context.Background(), "owner", "t1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
