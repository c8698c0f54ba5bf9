package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/taskpad/taskpad-go/internal/model"
)

// legacyTask is one element of the flat-file task list written by the
// pre-database backend.
type legacyTask struct {
	Text      string  `json:"text"`
	Status    string  `json:"status"`
	Completed *bool   `json:"completed"`
	DueDate   *string `json:"dueDate"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// importLegacyFile copies the JSON task list into tasks owned by userID.
// It reports whether the file was consumed so the caller can rename it
// once the transaction has committed. A missing file is not an error; an
// unreadable one is skipped with a warning and left in place.
func (m *Migrator) importLegacyFile(ctx context.Context, tx *sql.Tx, userID int64) (int64, bool, error) {
	path := m.opts.LegacyTasksFile
	if path == "" {
		return 0, false, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		slog.Warn("legacy tasks file unreadable, skipping import", "path", path, "error", err)
		return 0, false, nil
	}

	var items []legacyTask
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("legacy tasks file is not a JSON task list, skipping import", "path", path, "error", err)
		return 0, false, nil
	}

	now := m.now()
	var n int64
	for _, it := range items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}

		status := model.StatusOpen
		if it.Status == string(model.StatusCompleted) || (it.Completed != nil && *it.Completed) {
			status = model.StatusCompleted
		}

		var due any
		if it.DueDate != nil && model.IsCalendarDate(*it.DueDate) {
			due = *it.DueDate
		}

		created := legacyTimestamp(it.CreatedAt, now)
		updated := legacyTimestamp(it.UpdatedAt, now)
		if it.UpdatedAt == "" {
			updated = created
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (user_id, text, status, dueDate, createdAt, updatedAt) VALUES (?, ?, ?, ?, ?, ?)`,
			userID, text, string(status), due, created, updated,
		); err != nil {
			return 0, false, err
		}
		n++
	}

	slog.Info("imported legacy tasks", "path", path, "count", n)
	return n, true, nil
}

// legacyTimestamp normalises a timestamp from the JSON file, falling back
// to fallback when it is absent or unparseable.
func legacyTimestamp(s string, fallback time.Time) string {
	return legacyTime(s, fallback)
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds;
// 1e11 seconds lies in the year 5138.
const epochMillisThreshold = 100_000_000_000

// legacyTime renders a timestamp of any historical representation (stored
// text layouts, epoch seconds or epoch milliseconds) in the current stored
// layout. Values that cannot be interpreted become fallback.
func legacyTime(v any, fallback time.Time) string {
	switch t := v.(type) {
	case int64:
		return formatTime(fromEpoch(t))
	case float64:
		return formatTime(fromEpoch(int64(t)))
	case []byte:
		return legacyTime(string(t), fallback)
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return formatTime(fromEpoch(n))
		}
		if parsed, err := parseTime(s); err == nil {
			return formatTime(parsed)
		}
	case time.Time:
		return formatTime(t)
	}
	return formatTime(fallback)
}

func fromEpoch(n int64) time.Time {
	if n >= epochMillisThreshold || n <= -epochMillisThreshold {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}
