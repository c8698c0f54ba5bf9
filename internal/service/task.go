package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskpad/taskpad-go/internal/model"
	"github.com/taskpad/taskpad-go/internal/repository"
)

const maxTaskTextLen = 500

// TaskService handles task business logic. Every operation is scoped to the
// calling user; tasks of other users behave as if they did not exist.
type TaskService struct {
	repo *repository.TaskRepository
	now  func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

// ListTasks returns all of a user's tasks, newest first.
func (s *TaskService) ListTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	return tasks, nil
}

// CreateTask adds an open task. An empty dueDate is treated as absent.
func (s *TaskService) CreateTask(ctx context.Context, userID int64, text string, dueDate *string) (model.Task, error) {
	text, err := validateText(text)
	if err != nil {
		return model.Task{}, err
	}
	due, err := normalizeDueDate(dueDate)
	if err != nil {
		return model.Task{}, err
	}

	task := model.Task{
		UserID:  userID,
		Text:    text,
		DueDate: due,
	}
	if err := s.repo.Create(ctx, &task, s.now()); err != nil {
		return model.Task{}, storageErr("create task", err)
	}
	return task, nil
}

// ToggleStatus flips a task between open and completed.
func (s *TaskService) ToggleStatus(ctx context.Context, taskID, userID int64) (model.Task, error) {
	task, err := s.owned(ctx, taskID, userID)
	if err != nil {
		return model.Task{}, err
	}

	now := s.now()
	next := task.Status.Toggled()
	if err := s.repo.UpdateStatus(ctx, taskID, userID, next, now); err != nil {
		return model.Task{}, s.mutationErr("toggle status", err)
	}
	task.Status = next
	task.UpdatedAt = stamp(now)
	return *task, nil
}

// UpdateText replaces a task's text.
func (s *TaskService) UpdateText(ctx context.Context, taskID, userID int64, text string) (model.Task, error) {
	text, err := validateText(text)
	if err != nil {
		return model.Task{}, err
	}
	task, err := s.owned(ctx, taskID, userID)
	if err != nil {
		return model.Task{}, err
	}

	now := s.now()
	if err := s.repo.UpdateText(ctx, taskID, userID, text, now); err != nil {
		return model.Task{}, s.mutationErr("update text", err)
	}
	task.Text = text
	task.UpdatedAt = stamp(now)
	return *task, nil
}

// UpdateDueDate sets a task's due date; nil or "" clears it.
func (s *TaskService) UpdateDueDate(ctx context.Context, taskID, userID int64, dueDate *string) (model.Task, error) {
	due, err := normalizeDueDate(dueDate)
	if err != nil {
		return model.Task{}, err
	}
	task, err := s.owned(ctx, taskID, userID)
	if err != nil {
		return model.Task{}, err
	}

	now := s.now()
	if err := s.repo.UpdateDueDate(ctx, taskID, userID, due, now); err != nil {
		return model.Task{}, s.mutationErr("update due date", err)
	}
	task.DueDate = due
	task.UpdatedAt = stamp(now)
	return *task, nil
}

// DeleteTask removes a single task.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, userID int64) error {
	if _, err := s.owned(ctx, taskID, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, taskID, userID); err != nil {
		return s.mutationErr("delete task", err)
	}
	return nil
}

// DeleteCompleted removes every completed task of a user and returns the
// number removed.
func (s *TaskService) DeleteCompleted(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.DeleteCompleted(ctx, userID)
	if err != nil {
		return 0, storageErr("delete completed", err)
	}
	return n, nil
}

// TasksDueBetween returns tasks due in the inclusive range [start, end].
func (s *TaskService) TasksDueBetween(ctx context.Context, userID int64, start, end string) ([]model.Task, error) {
	if !model.IsCalendarDate(start) || !model.IsCalendarDate(end) {
		return nil, ErrInvalidDueDate
	}
	if start > end {
		return nil, ErrInvalidRange
	}
	tasks, err := s.repo.DueBetween(ctx, userID, start, end)
	if err != nil {
		return nil, storageErr("tasks due between", err)
	}
	return tasks, nil
}

// OverdueTasks returns open tasks whose due date is before today.
func (s *TaskService) OverdueTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	tasks, err := s.repo.OverdueOn(ctx, userID, s.today())
	if err != nil {
		return nil, storageErr("overdue tasks", err)
	}
	return tasks, nil
}

// TodayTasks returns tasks due today, whatever their status.
func (s *TaskService) TodayTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	tasks, err := s.repo.DueOn(ctx, userID, s.today())
	if err != nil {
		return nil, storageErr("today tasks", err)
	}
	return tasks, nil
}

// owned loads a task and confirms userID owns it. Missing and foreign tasks
// produce the same error.
func (s *TaskService) owned(ctx context.Context, taskID, userID int64) (*model.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrNotFoundOrForbidden
		}
		return nil, storageErr("get task", err)
	}
	if task.UserID != userID {
		return nil, ErrNotFoundOrForbidden
	}
	return task, nil
}

// mutationErr maps a task that vanished between the ownership check and the
// write (a concurrent delete) to the same not-found error.
func (s *TaskService) mutationErr(op string, err error) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return ErrNotFoundOrForbidden
	}
	return storageErr(op, err)
}

func (s *TaskService) today() string {
	return s.now().Format(model.DateLayout)
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrTextRequired
	}
	if utf8.RuneCountInString(text) > maxTaskTextLen {
		return "", ErrTextTooLong
	}
	return text, nil
}

func normalizeDueDate(dueDate *string) (*string, error) {
	if dueDate == nil {
		return nil, nil
	}
	d := strings.TrimSpace(*dueDate)
	if d == "" {
		return nil, nil
	}
	if !model.IsCalendarDate(d) {
		return nil, ErrInvalidDueDate
	}
	return &d, nil
}

// stamp matches the millisecond precision timestamps are stored with.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
