package database

import (
	"time"

	"github.com/google/uuid"
)

// Employee mirrors the shared employees table
type Employee struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	ExperienceMonths  int       `json:"experience_months" db:"experience_months"`
	TenureMonths      int       `json:"tenure_months" db:"tenure_months"`
	HoursPerDay       float64   `json:"hours_per_day" db:"hours_per_day"`
	ProductivityScore float64   `json:"productivity_score" db:"productivity_score"`
	WorkloadPercent   int       `json:"workload_percent" db:"workload_percent"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Task mirrors the shared tasks table
type Task struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	Priority    int        `json:"priority" db:"priority"`
	Difficulty  int        `json:"difficulty" db:"difficulty"`
	AssigneeID  string     `json:"assignee_id,omitempty" db:"assignee_id"`
	DueAt       *time.Time `json:"due_at,omitempty" db:"due_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// SkillRequirement is one row of task_skills, on the raw 1-10 scale
type SkillRequirement struct {
	Skill         string `json:"skill" db:"skill"`
	RequiredLevel int    `json:"required_level" db:"required_level"`
}

// Assignment records one selection decision and, once feedback arrives,
// its reward
type Assignment struct {
	ID            string     `json:"id" db:"id"`
	TaskID        string     `json:"task_id" db:"task_id"`
	EmployeeID    string     `json:"employee_id" db:"employee_id"`
	Context       []float64  `json:"context" db:"context"`
	Score         float64    `json:"score" db:"score"`
	Exploratory   bool       `json:"exploratory" db:"exploratory"`
	ColdStart     bool       `json:"cold_start" db:"cold_start"`
	Status        string     `json:"status" db:"status"`
	RawReward     *float64   `json:"raw_reward,omitempty" db:"raw_reward"`
	ClippedReward *float64   `json:"clipped_reward,omitempty" db:"clipped_reward"`
	AssignedAt    time.Time  `json:"assigned_at" db:"assigned_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Assignment statuses
const (
	AssignmentActive    = "active"
	AssignmentCompleted = "completed"
	AssignmentFailed    = "failed"
)

// NewAssignment creates an active assignment with a generated ID
func NewAssignment(taskID, employeeID string, context []float64, score float64, exploratory, coldStart bool) *Assignment {
	return &Assignment{
		ID:          uuid.New().String(),
		TaskID:      taskID,
		EmployeeID:  employeeID,
		Context:     context,
		Score:       score,
		Exploratory: exploratory,
		ColdStart:   coldStart,
		Status:      AssignmentActive,
		AssignedAt:  time.Now().UTC(),
	}
}
