package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func seedEmployee(t *testing.T, r *Repository, id string) {
	t.Helper()
	now := time.Now().UTC()
	_, err := r.db.Exec(`
		INSERT INTO employees (id, name, experience_months, tenure_months,
			hours_per_day, productivity_score, workload_percent, created_at, updated_at)
		VALUES (?, ?, 24, 12, 8, 0.5, 0, ?, ?)
	`, id, "Employee "+id, now, now)
	require.NoError(t, err)
}

func seedTask(t *testing.T, r *Repository, id, status, assignee string) {
	t.Helper()
	now := time.Now().UTC()
	_, err := r.db.Exec(`
		INSERT INTO tasks (id, title, status, priority, difficulty, assignee_id, created_at, updated_at)
		VALUES (?, ?, ?, 3, 5, ?, ?, ?)
	`, id, "Task "+id, status, assignee, now, now)
	require.NoError(t, err)
}

func TestEmployeeRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	seedEmployee(t, r, "e1")
	seedEmployee(t, r, "e2")

	employees, err := r.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 2)

	e, err := r.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 24, e.ExperienceMonths)
	assert.Equal(t, 0.5, e.ProductivityScore)

	_, err = r.GetEmployee(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmployeeSkills(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedEmployee(t, r, "e1")

	_, err := r.db.Exec(`INSERT INTO employee_skills (employee_id, skill, proficiency) VALUES ('e1', 'go', 8), ('e1', 'sql', 5)`)
	require.NoError(t, err)

	skills, err := r.GetEmployeeSkills(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"go": 8, "sql": 5}, skills)

	empty, err := r.GetEmployeeSkills(ctx, "e2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetActiveTasksExcludesDoneAndReview(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedEmployee(t, r, "e1")

	seedTask(t, r, "t1", "in_progress", "e1")
	seedTask(t, r, "t2", "done", "e1")
	seedTask(t, r, "t3", "review", "e1")
	seedTask(t, r, "t4", "todo", "e1")
	seedTask(t, r, "t5", "todo", "e2")

	tasks, err := r.GetActiveTasks(ctx, "e1")
	require.NoError(t, err)

	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.ElementsMatch(t, []string{"t1", "t4"}, ids)
}

func TestAssignmentLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedEmployee(t, r, "e1")
	seedTask(t, r, "t1", "todo", "")

	a := NewAssignment("t1", "e1", []float64{0.5, 0.3, 0.75, 0.5, 1, 0.25, 1.5, 0.4}, 0.82, false, false)
	require.NoError(t, r.CreateAssignment(ctx, a))

	got, err := r.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Context, got.Context)
	assert.Equal(t, AssignmentActive, got.Status)
	assert.Nil(t, got.ClippedReward)

	completedAt := time.Now().UTC()
	require.NoError(t, r.CompleteAssignment(ctx, a.ID, AssignmentCompleted, completedAt, 1.9, 1.9))

	got, err = r.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, AssignmentCompleted, got.Status)
	require.NotNil(t, got.ClippedReward)
	assert.Equal(t, 1.9, *got.ClippedReward)

	err = r.CompleteAssignment(ctx, "missing", AssignmentFailed, completedAt, -2, -2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRecentOutcomes(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedEmployee(t, r, "e1")
	seedTask(t, r, "t1", "todo", "")

	base := time.Now().UTC()
	rewards := []float64{0.5, -1.0, 1.5}
	for i, reward := range rewards {
		a := NewAssignment("t1", "e1", []float64{0}, 0.5, false, false)
		require.NoError(t, r.CreateAssignment(ctx, a))
		require.NoError(t, r.CompleteAssignment(ctx, a.ID, AssignmentCompleted,
			base.Add(time.Duration(i)*time.Minute), reward, reward))
	}

	outcomes, err := r.GetRecentOutcomes(ctx, "e1", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -1.0}, outcomes, "newest first, capped at limit")
}

func TestProductivityAndWorkloadUpdates(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedEmployee(t, r, "e1")

	require.NoError(t, r.UpdateProductivity(ctx, "e1", 0.46))
	require.NoError(t, r.UpdateWorkload(ctx, "e1", 63))

	e, err := r.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 0.46, e.ProductivityScore)
	assert.Equal(t, 63, e.WorkloadPercent)
}

func TestBanditSnapshotRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.LoadBanditSnapshot(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.SaveBanditSnapshot(ctx, []byte(`{"arms":{}}`)))
	got, err := r.LoadBanditSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"arms":{}}`), got)

	// Upsert replaces the previous snapshot
	require.NoError(t, r.SaveBanditSnapshot(ctx, []byte(`{"arms":{"e1":{}}}`)))
	got, err = r.LoadBanditSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"arms":{"e1":{}}}`), got)

	require.NoError(t, r.DeleteBanditSnapshot(ctx))
	_, err = r.LoadBanditSnapshot(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
