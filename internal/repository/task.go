package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskpad/taskpad-go/internal/model"
)

var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, user_id, text, status, dueDate, createdAt, updatedAt`

// TaskRepository handles task persistence operations. Every statement is
// scoped by user_id.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new open task and fills in its generated fields.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task, now time.Time) error {
	ts := formatTime(now)
	task.Status = model.StatusOpen

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, text, status, dueDate, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?)`,
		task.UserID, task.Text, string(task.Status), nullString(task.DueDate), ts, ts,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	task.ID = id
	task.CreatedAt, _ = parseTime(ts)
	task.UpdatedAt = task.CreatedAt
	return nil
}

// GetByID retrieves a task by ID if it belongs to userID.
func (r *TaskRepository) GetByID(ctx context.Context, id, userID int64) (*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrTaskNotFound
	}
	return &tasks[0], nil
}

// ListByUser retrieves all tasks for a user, newest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]model.Task, error) {
	return r.query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ?
		ORDER BY createdAt DESC, id DESC`, userID)
}

// UpdateStatus sets a task's status.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id, userID int64, status model.TaskStatus, now time.Time) error {
	return r.update(ctx, `UPDATE tasks SET status = ?, updatedAt = ? WHERE id = ? AND user_id = ?`,
		string(status), formatTime(now), id, userID)
}

// UpdateText replaces a task's text.
func (r *TaskRepository) UpdateText(ctx context.Context, id, userID int64, text string, now time.Time) error {
	return r.update(ctx, `UPDATE tasks SET text = ?, updatedAt = ? WHERE id = ? AND user_id = ?`,
		text, formatTime(now), id, userID)
}

// UpdateDueDate sets or, when dueDate is nil, clears a task's due date.
func (r *TaskRepository) UpdateDueDate(ctx context.Context, id, userID int64, dueDate *string, now time.Time) error {
	return r.update(ctx, `UPDATE tasks SET dueDate = ?, updatedAt = ? WHERE id = ? AND user_id = ?`,
		nullString(dueDate), formatTime(now), id, userID)
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id, userID int64) error {
	return r.update(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
}

// DeleteCompleted removes all completed tasks of a user and returns how
// many rows were deleted.
func (r *TaskRepository) DeleteCompleted(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = ? AND status = ?`, userID, string(model.StatusCompleted))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DueBetween returns tasks whose due date falls in [start, end], both
// YYYY-MM-DD, ordered by due date.
func (r *TaskRepository) DueBetween(ctx context.Context, userID int64, start, end string) ([]model.Task, error) {
	return r.query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND dueDate IS NOT NULL AND dueDate >= ? AND dueDate <= ?
		ORDER BY dueDate ASC, createdAt ASC, id ASC`, userID, start, end)
}

// OverdueOn returns open tasks due strictly before day.
func (r *TaskRepository) OverdueOn(ctx context.Context, userID int64, day string) ([]model.Task, error) {
	return r.query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND dueDate IS NOT NULL AND dueDate < ? AND status = ?
		ORDER BY dueDate ASC, createdAt ASC, id ASC`, userID, day, string(model.StatusOpen))
}

// DueOn returns tasks due exactly on day.
func (r *TaskRepository) DueOn(ctx context.Context, userID int64, day string) ([]model.Task, error) {
	return r.query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND dueDate = ?
		ORDER BY createdAt ASC, id ASC`, userID, day)
}

func (r *TaskRepository) query(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

func (r *TaskRepository) update(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireOneRow(result, ErrTaskNotFound)
}

// scanTasks drains and closes rows.
func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var (
			t                  model.Task
			status             string
			due                sql.NullString
			createdAt, updated string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Text, &status, &due, &createdAt, &updated); err != nil {
			return nil, err
		}
		t.Status = model.TaskStatus(status)
		if due.Valid {
			d := due.String
			t.DueDate = &d
		}
		var err error
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if t.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}
