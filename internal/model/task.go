package model

import "time"

// TaskStatus is either open or completed.
type TaskStatus string

const (
	StatusOpen      TaskStatus = "open"
	StatusCompleted TaskStatus = "completed"
)

// Toggled returns the opposite status.
func (s TaskStatus) Toggled() TaskStatus {
	if s == StatusCompleted {
		return StatusOpen
	}
	return StatusCompleted
}

// Task is a single to-do item owned by one user.
type Task struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Text      string     `json:"text"`
	Status    TaskStatus `json:"status"`
	DueDate   *string    `json:"dueDate"` // YYYY-MM-DD
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Text    string  `json:"text"`
	DueDate *string `json:"dueDate"`
}

// UpdateTaskTextRequest replaces a task's text.
type UpdateTaskTextRequest struct {
	Text string `json:"text"`
}

// UpdateDueDateRequest sets or clears (null or "") a task's due date.
type UpdateDueDateRequest struct {
	DueDate *string `json:"dueDate"`
}

// DeleteCompletedResponse reports how many tasks were removed.
type DeleteCompletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// DateLayout is the calendar-date format used for due dates.
const DateLayout = "2006-01-02"

// IsCalendarDate reports whether s is a YYYY-MM-DD string naming a real
// date. The parse round-trip rejects shapes like 2024-02-30 that a pattern
// alone would accept.
func IsCalendarDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return false
	}
	return t.Format(DateLayout) == s
}
