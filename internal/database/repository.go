package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// ListEmployees returns every employee
func (r *Repository) ListEmployees(ctx context.Context) ([]*Employee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, experience_months, tenure_months, hours_per_day,
			productivity_score, workload_percent, created_at, updated_at
		FROM employees
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.ExperienceMonths, &e.TenureMonths,
			&e.HoursPerDay, &e.ProductivityScore, &e.WorkloadPercent,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, &e)
	}
	return employees, rows.Err()
}

// GetEmployee returns one employee by ID
func (r *Repository) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, experience_months, tenure_months, hours_per_day,
			productivity_score, workload_percent, created_at, updated_at
		FROM employees
		WHERE id = ?
	`, id).Scan(&e.ID, &e.Name, &e.ExperienceMonths, &e.TenureMonths,
		&e.HoursPerDay, &e.ProductivityScore, &e.WorkloadPercent,
		&e.CreatedAt, &e.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

// GetEmployeeSkills returns an employee's skills on the raw 1-10 scale
func (r *Repository) GetEmployeeSkills(ctx context.Context, employeeID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT skill, proficiency FROM employee_skills WHERE employee_id = ?
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee skills: %w", err)
	}
	defer rows.Close()

	skills := make(map[string]int)
	for rows.Next() {
		var skill string
		var proficiency int
		if err := rows.Scan(&skill, &proficiency); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills[skill] = proficiency
	}
	return skills, rows.Err()
}

// GetTask returns one task by ID
func (r *Repository) GetTask(ctx context.Context, id string) (*Task, error) {
	var t Task
	var assignee sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, priority, difficulty,
			assignee_id, due_at, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.Difficulty, &assignee, &t.DueAt, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	t.AssigneeID = assignee.String
	return &t, nil
}

// GetTaskSkills returns a task's required skills on the raw 1-10 scale
func (r *Repository) GetTaskSkills(ctx context.Context, taskID string) ([]SkillRequirement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT skill, required_level FROM task_skills WHERE task_id = ? ORDER BY skill
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task skills: %w", err)
	}
	defer rows.Close()

	var skills []SkillRequirement
	for rows.Next() {
		var s SkillRequirement
		if err := rows.Scan(&s.Skill, &s.RequiredLevel); err != nil {
			return nil, fmt.Errorf("failed to scan task skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// GetActiveTasks returns an employee's tasks that still demand effort,
// meaning every status except done and review
func (r *Repository) GetActiveTasks(ctx context.Context, employeeID string) ([]*Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, status, priority, difficulty,
			assignee_id, due_at, created_at, updated_at
		FROM tasks
		WHERE assignee_id = ? AND status NOT IN ('done', 'review')
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		var t Task
		var assignee sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.Difficulty, &assignee, &t.DueAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.AssigneeID = assignee.String
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// GetRecentOutcomes returns the most recent clipped rewards observed for an
// employee, newest first
func (r *Repository) GetRecentOutcomes(ctx context.Context, employeeID string, limit int) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT clipped_reward FROM assignments
		WHERE employee_id = ? AND clipped_reward IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT ?
	`, employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []float64
	for rows.Next() {
		var reward float64
		if err := rows.Scan(&reward); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcomes = append(outcomes, reward)
	}
	return outcomes, rows.Err()
}

// CreateAssignment persists a new assignment decision
func (r *Repository) CreateAssignment(ctx context.Context, a *Assignment) error {
	contextJSON, err := json.Marshal(a.Context)
	if err != nil {
		return fmt.Errorf("failed to encode assignment context: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO assignments (id, task_id, employee_id, context, score,
			exploratory, cold_start, status, assigned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.TaskID, a.EmployeeID, string(contextJSON), a.Score,
		a.Exploratory, a.ColdStart, a.Status, a.AssignedAt)

	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// GetAssignment returns one assignment by ID
func (r *Repository) GetAssignment(ctx context.Context, id string) (*Assignment, error) {
	var a Assignment
	var contextJSON string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, task_id, employee_id, context, score, exploratory,
			cold_start, status, raw_reward, clipped_reward, assigned_at, completed_at
		FROM assignments
		WHERE id = ?
	`, id).Scan(&a.ID, &a.TaskID, &a.EmployeeID, &contextJSON, &a.Score,
		&a.Exploratory, &a.ColdStart, &a.Status, &a.RawReward, &a.ClippedReward,
		&a.AssignedAt, &a.CompletedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if err := json.Unmarshal([]byte(contextJSON), &a.Context); err != nil {
		return nil, fmt.Errorf("failed to decode assignment context: %w", err)
	}
	return &a, nil
}

// CompleteAssignment records the outcome and reward for an assignment
func (r *Repository) CompleteAssignment(ctx context.Context, id, status string, completedAt time.Time, rawReward, clippedReward float64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE assignments
		SET status = ?, completed_at = ?, raw_reward = ?, clipped_reward = ?
		WHERE id = ?
	`, status, completedAt, rawReward, clippedReward, id)
	if err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check completed assignment: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProductivity stores the latest productivity score for an employee
func (r *Repository) UpdateProductivity(ctx context.Context, employeeID string, score float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE employees SET productivity_score = ?, updated_at = ? WHERE id = ?
	`, score, time.Now().UTC(), employeeID)
	if err != nil {
		return fmt.Errorf("failed to update productivity: %w", err)
	}
	return nil
}

// UpdateWorkload stores the latest workload percentage for an employee
func (r *Repository) UpdateWorkload(ctx context.Context, employeeID string, percent int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE employees SET workload_percent = ?, updated_at = ? WHERE id = ?
	`, percent, time.Now().UTC(), employeeID)
	if err != nil {
		return fmt.Errorf("failed to update workload: %w", err)
	}
	return nil
}

const banditSnapshotID = "default"

// SaveBanditSnapshot upserts the serialized bandit state
func (r *Repository) SaveBanditSnapshot(ctx context.Context, snapshot []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bandit_models (id, snapshot, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			snapshot = excluded.snapshot,
			saved_at = excluded.saved_at
	`, banditSnapshotID, snapshot, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save bandit snapshot: %w", err)
	}
	return nil
}

// LoadBanditSnapshot returns the stored bandit state, or ErrNotFound when
// no snapshot has been saved yet
func (r *Repository) LoadBanditSnapshot(ctx context.Context) ([]byte, error) {
	var snapshot []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT snapshot FROM bandit_models WHERE id = ?
	`, banditSnapshotID).Scan(&snapshot)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bandit snapshot: %w", err)
	}
	return snapshot, nil
}

// DeleteBanditSnapshot removes the stored bandit state
func (r *Repository) DeleteBanditSnapshot(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM bandit_models WHERE id = ?
	`, banditSnapshotID)
	if err != nil {
		return fmt.Errorf("failed to delete bandit snapshot: %w", err)
	}
	return nil
}
