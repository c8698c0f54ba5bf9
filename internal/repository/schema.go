package repository

import "fmt"

// DemoUsername and DemoEmail identify the seeded account that owns legacy
// tasks and serves guest mode.
const (
	DemoUsername = "demo"
	DemoEmail    = "demo@example.com"
)

const createUsers = `CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    emailVerified INTEGER NOT NULL DEFAULT 0,
    verificationToken TEXT,
    verificationTokenExpires INTEGER,
    createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// tasksTableDDL is formatted with the table name so the same definition
// serves both fresh creation and the legacy rebuild.
const tasksTableDDL = `CREATE TABLE %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'completed')),
    dueDate TEXT,
    createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);`

func createTasksTable(name string) string {
	return fmt.Sprintf(tasksTableDDL, name)
}

// userColumnAdds are the columns added to users tables that predate
// email verification.
var userColumnAdds = []struct {
	name string
	ddl  string
}{
	{"emailVerified", `ALTER TABLE users ADD COLUMN emailVerified INTEGER NOT NULL DEFAULT 0`},
	{"verificationToken", `ALTER TABLE users ADD COLUMN verificationToken TEXT`},
	{"verificationTokenExpires", `ALTER TABLE users ADD COLUMN verificationTokenExpires INTEGER`},
}

const addTasksDueDate = `ALTER TABLE tasks ADD COLUMN dueDate TEXT`

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
	`CREATE INDEX IF NOT EXISTS idx_users_verification_token ON users(verificationToken)`,
	`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(dueDate)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
}
