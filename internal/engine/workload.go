package engine

// WorkloadScorer converts a candidate's active task load into a bounded
// pressure score combining volume, complexity, and urgency stress.
type WorkloadScorer struct {
	maxReasonableTasks   float64
	difficultyTaskWeight float64
	priorityStressWeight float64
	priorityWeights      map[int]float64
}

// NewWorkloadScorer creates a scorer with the default pressure parameters.
func NewWorkloadScorer() *WorkloadScorer {
	return &WorkloadScorer{
		maxReasonableTasks:   5,
		difficultyTaskWeight: 0.1,
		priorityStressWeight: 0.15,
		priorityWeights: map[int]float64{
			1: 0.1,
			2: 0.2,
			3: 0.4,
			4: 0.8,
			5: 1.0,
		},
	}
}

// terminal statuses are excluded from workload pressure
func isActive(t ActiveTask) bool {
	return t.Status != "done" && t.Status != "review"
}

func activeOnly(tasks []ActiveTask) []ActiveTask {
	active := make([]ActiveTask, 0, len(tasks))
	for _, t := range tasks {
		if isActive(t) {
			active = append(active, t)
		}
	}
	return active
}

// Score returns the workload pressure in [0,1]: task count relative to a
// reasonable maximum, plus a difficulty contribution per task, plus a
// priority stress term, capped at 1.
func (w *WorkloadScorer) Score(tasks []ActiveTask) float64 {
	if len(tasks) == 0 {
		return 0
	}
	active := activeOnly(tasks)

	countScore := float64(len(active)) / w.maxReasonableTasks
	if countScore > 1 {
		countScore = 1
	}

	difficultyFactor := 0.0
	for _, t := range active {
		difficulty := float64(clampInt(t.Difficulty, minDifficulty, maxDifficulty)) / 10.0
		difficultyFactor += difficulty * w.difficultyTaskWeight
	}

	stress := w.PriorityStress(tasks) * w.priorityStressWeight

	score := countScore + difficultyFactor + stress
	if score > 1 {
		score = 1
	}
	return score
}

// PriorityStress is the weighted average priority of the active tasks,
// 0 when everything is low priority and 1 when everything is critical.
func (w *WorkloadScorer) PriorityStress(tasks []ActiveTask) float64 {
	active := activeOnly(tasks)
	if len(active) == 0 {
		return 0
	}
	weighted := 0.0
	for _, t := range active {
		weight, ok := w.priorityWeights[t.Priority]
		if !ok {
			weight = 0.2
		}
		weighted += weight
	}
	return weighted / float64(len(active))
}

// ScorePercent returns the workload as a 0-100 integer for persistence.
func (w *WorkloadScorer) ScorePercent(tasks []ActiveTask) int {
	percent := int(w.Score(tasks) * 100)
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent
}

// BurnoutIncrease is a proxy for the burnout added by a long stretch of
// work: each hour beyond eight contributes 0.05.
func BurnoutIncrease(hoursOnTask float64) float64 {
	if hoursOnTask <= 8 {
		return 0
	}
	return (hoursOnTask - 8) * 0.05
}
