package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/taskpad/taskpad-go/internal/model"
)

// Migration branches reported by EnsureSchema.
const (
	BranchLegacyRebuild = "legacy-rebuild"
	BranchAddDueDate    = "add-due-date"
	BranchFresh         = "fresh"
	BranchCurrent       = "current"
)

// MigrationResult describes what EnsureSchema did.
type MigrationResult struct {
	Branch        string
	MigratedTasks int64 // rows copied out of a legacy single-user table
	ImportedTasks int64 // rows read from the legacy JSON file
}

// MigratorOptions configures a Migrator.
type MigratorOptions struct {
	// HashPassword is used when the demo account has to be created.
	HashPassword func(password string) (string, error)
	DemoPassword string
	// LegacyTasksFile is imported once when the tasks table is first created.
	LegacyTasksFile string
}

// Migrator brings a database of any known historical shape up to the
// current schema.
type Migrator struct {
	db   *sql.DB
	opts MigratorOptions
	now  func() time.Time
}

// NewMigrator creates a new Migrator.
func NewMigrator(db *sql.DB, opts MigratorOptions) *Migrator {
	return &Migrator{db: db, opts: opts, now: time.Now}
}

// EnsureSchema is idempotent and safe to call on every start. All changes
// run in one transaction; on error nothing is applied.
func (m *Migrator) EnsureSchema(ctx context.Context) (MigrationResult, error) {
	var res MigrationResult

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createUsers); err != nil {
		return res, fmt.Errorf("create users table: %w", err)
	}
	if err := ensureUserColumns(ctx, tx); err != nil {
		return res, err
	}

	exists, err := tableExists(ctx, tx, "tasks")
	if err != nil {
		return res, err
	}
	var cols map[string]bool
	if exists {
		if cols, err = tableColumns(ctx, tx, "tasks"); err != nil {
			return res, err
		}
	}

	var imported bool
	switch {
	case exists && !cols["user_id"]:
		res.Branch = BranchLegacyRebuild
		if res.MigratedTasks, err = m.rebuildLegacyTasks(ctx, tx, cols); err != nil {
			return res, fmt.Errorf("rebuild legacy tasks table: %w", err)
		}
	case exists && !cols["dueDate"]:
		res.Branch = BranchAddDueDate
		if _, err := tx.ExecContext(ctx, addTasksDueDate); err != nil {
			return res, fmt.Errorf("add dueDate column: %w", err)
		}
		if _, err := m.ensureDemoUser(ctx, tx); err != nil {
			return res, err
		}
	case !exists:
		res.Branch = BranchFresh
		if _, err := tx.ExecContext(ctx, createTasksTable("tasks")); err != nil {
			return res, fmt.Errorf("create tasks table: %w", err)
		}
		demoID, err := m.ensureDemoUser(ctx, tx)
		if err != nil {
			return res, err
		}
		if res.ImportedTasks, imported, err = m.importLegacyFile(ctx, tx, demoID); err != nil {
			return res, fmt.Errorf("import %s: %w", m.opts.LegacyTasksFile, err)
		}
	default:
		res.Branch = BranchCurrent
		if _, err := m.ensureDemoUser(ctx, tx); err != nil {
			return res, err
		}
	}

	for _, ddl := range indexDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return res, fmt.Errorf("create index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return res, err
	}

	if imported {
		backup := m.opts.LegacyTasksFile + ".backup"
		if err := os.Rename(m.opts.LegacyTasksFile, backup); err != nil {
			slog.Warn("legacy tasks imported but file could not be renamed", "path", m.opts.LegacyTasksFile, "error", err)
		}
	}

	slog.Info("schema ensured", "branch", res.Branch, "migrated_tasks", res.MigratedTasks, "imported_tasks", res.ImportedTasks)
	return res, nil
}

func ensureUserColumns(ctx context.Context, tx *sql.Tx) error {
	cols, err := tableColumns(ctx, tx, "users")
	if err != nil {
		return err
	}
	for _, c := range userColumnAdds {
		if cols[c.name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, c.ddl); err != nil {
			return fmt.Errorf("add users.%s: %w", c.name, err)
		}
		slog.Info("added missing column", "table", "users", "column", c.name)
	}
	return nil
}

// rebuildLegacyTasks replaces a tasks table that predates user ownership,
// attributing every row to the demo account.
func (m *Migrator) rebuildLegacyTasks(ctx context.Context, tx *sql.Tx, cols map[string]bool) (int64, error) {
	if !cols["text"] {
		return 0, errors.New("legacy tasks table has no text column")
	}

	demoID, err := m.ensureDemoUser(ctx, tx)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, createTasksTable("tasks_new")); err != nil {
		return 0, err
	}

	rows, err := readLegacyRows(ctx, tx, cols)
	if err != nil {
		return 0, fmt.Errorf("read rows: %w", err)
	}

	now := m.now()
	for _, row := range rows {
		var due any
		if row.dueDate.Valid && model.IsCalendarDate(row.dueDate.String) {
			due = row.dueDate.String
		}
		var id any
		if row.id.Valid {
			id = row.id.Int64
		}

		created := legacyTime(row.createdAt, now)
		updated := created
		if row.updatedAt != nil {
			updated = legacyTime(row.updatedAt, now)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks_new (id, user_id, text, status, dueDate, createdAt, updatedAt)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, demoID, row.text, row.status, due, created, updated,
		); err != nil {
			return 0, fmt.Errorf("copy row: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE tasks`); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE tasks_new RENAME TO tasks`); err != nil {
		return 0, err
	}

	return int64(len(rows)), nil
}

// legacyRow is one row of a tasks table that predates user ownership.
// Timestamps are kept untyped since old builds stored both text and epoch
// values.
type legacyRow struct {
	id        sql.NullInt64
	text      string
	status    string
	dueDate   sql.NullString
	createdAt any
	updatedAt any
}

// readLegacyRows loads the whole legacy table, mapping whatever status
// representation it has onto open/completed.
func readLegacyRows(ctx context.Context, tx *sql.Tx, cols map[string]bool) ([]legacyRow, error) {
	expr := func(col, fallback string) string {
		if cols[col] {
			return col
		}
		return fallback
	}
	statusExpr := "'open'"
	switch {
	case cols["status"]:
		statusExpr = "CASE WHEN status = 'completed' THEN 'completed' ELSE 'open' END"
	case cols["completed"]:
		statusExpr = "CASE WHEN completed THEN 'completed' ELSE 'open' END"
	}

	query := fmt.Sprintf(`SELECT %s, COALESCE(text, ''), %s, %s, %s, %s FROM tasks`,
		expr("id", "NULL"), statusExpr, expr("dueDate", "NULL"),
		expr("createdAt", "NULL"), expr("updatedAt", "NULL"))

	rs, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []legacyRow
	for rs.Next() {
		var r legacyRow
		if err := rs.Scan(&r.id, &r.text, &r.status, &r.dueDate, &r.createdAt, &r.updatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

// ensureDemoUser returns the demo account's id, creating it or correcting
// drifted fields as needed.
func (m *Migrator) ensureDemoUser(ctx context.Context, tx *sql.Tx) (int64, error) {
	var (
		id       int64
		email    string
		verified bool
		token    sql.NullString
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, email, emailVerified, verificationToken FROM users WHERE username = ?`,
		DemoUsername,
	).Scan(&id, &email, &verified, &token)

	now := formatTime(m.now())

	if errors.Is(err, sql.ErrNoRows) {
		if m.opts.HashPassword == nil {
			return 0, errors.New("demo user missing and no password hasher configured")
		}
		hash, err := m.opts.HashPassword(m.opts.DemoPassword)
		if err != nil {
			return 0, err
		}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, email, password_hash, emailVerified, createdAt, updatedAt)
			VALUES (?, ?, ?, 1, ?, ?)`,
			DemoUsername, DemoEmail, hash, now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("seed demo user: %w", err)
		}
		slog.Info("seeded demo user", "username", DemoUsername)
		return result.LastInsertId()
	}
	if err != nil {
		return 0, err
	}

	if email != DemoEmail || !verified || token.Valid {
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET email = ?, emailVerified = 1, verificationToken = NULL,
			verificationTokenExpires = NULL, updatedAt = ? WHERE id = ?`,
			DemoEmail, now, id,
		)
		if err != nil {
			return 0, fmt.Errorf("correct demo user: %w", err)
		}
		slog.Info("corrected demo user", "id", id)
	}

	return id, nil
}

func tableExists(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&n)
	return n > 0, err
}

// tableColumns returns the set of column names of table via PRAGMA table_info.
func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
