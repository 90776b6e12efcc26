// Package database owns the SQLite store shared with the task management
// service. This process only reads the employee and task tables; it writes
// assignments, learned productivity and workload fields, and bandit model
// snapshots.
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
}

// NewDB opens the database with WAL and pooling configured
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "miles_brain.db")

	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &DB{DB: db}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized", "path", dbPath)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			experience_months INTEGER NOT NULL DEFAULT 0,
			tenure_months INTEGER NOT NULL DEFAULT 0,
			hours_per_day REAL NOT NULL DEFAULT 8,
			productivity_score REAL NOT NULL DEFAULT 0.5,
			workload_percent INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Proficiency is stored on the shared 1-10 scale and normalized
		// to [0, 1] when loaded into the pipeline.
		`CREATE TABLE IF NOT EXISTS employee_skills (
			employee_id TEXT NOT NULL,
			skill TEXT NOT NULL,
			proficiency INTEGER NOT NULL,
			PRIMARY KEY (employee_id, skill),
			FOREIGN KEY (employee_id) REFERENCES employees(id)
		)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'todo',
			priority INTEGER NOT NULL DEFAULT 3,
			difficulty INTEGER NOT NULL DEFAULT 5,
			assignee_id TEXT,
			due_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS task_skills (
			task_id TEXT NOT NULL,
			skill TEXT NOT NULL,
			required_level INTEGER NOT NULL,
			PRIMARY KEY (task_id, skill),
			FOREIGN KEY (task_id) REFERENCES tasks(id)
		)`,

		`CREATE TABLE IF NOT EXISTS assignments (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			employee_id TEXT NOT NULL,
			context TEXT NOT NULL,
			score REAL NOT NULL,
			exploratory BOOLEAN NOT NULL DEFAULT FALSE,
			cold_start BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL DEFAULT 'active',
			raw_reward REAL,
			clipped_reward REAL,
			assigned_at DATETIME NOT NULL,
			completed_at DATETIME,
			FOREIGN KEY (task_id) REFERENCES tasks(id),
			FOREIGN KEY (employee_id) REFERENCES employees(id)
		)`,

		`CREATE TABLE IF NOT EXISTS bandit_models (
			id TEXT PRIMARY KEY,
			snapshot BLOB NOT NULL,
			saved_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_employee_skills_employee ON employee_skills(employee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_task_skills_task ON task_skills(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_employee ON assignments(employee_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_task ON assignments(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_completed ON assignments(employee_id, completed_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	stats := db.Stats()

	return map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration_ms": stats.WaitDuration.Milliseconds(),
	}
}
