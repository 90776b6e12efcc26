package engine

import "time"

// Candidate is the engine's view of an assignable worker. All numeric fields
// are normalized to [0,1]; RecentOutcomes is ordered most-recent-first and
// bounded to the last ten scored assignments.
type Candidate struct {
	ID                string      `json:"id"`
	SkillProficiency  map[string]float64 `json:"skill_proficiency"`
	SkillEmbeddings   [][]float64 `json:"skill_embeddings,omitempty"`
	ProductivityScore float64     `json:"productivity_score"`
	WorkloadScore     float64     `json:"workload_score"`
	RecentOutcomes    []float64   `json:"recent_outcomes,omitempty"`
}

// RequiredSkill is one skill a task demands, with its minimum level.
type RequiredSkill struct {
	Name          string  `json:"name"`
	RequiredLevel float64 `json:"required_level"`
}

// TaskRequirement describes the task side of a scoring pair.
type TaskRequirement struct {
	ID              string          `json:"id"`
	RequiredSkills  []RequiredSkill `json:"required_skills"`
	SkillEmbeddings [][]float64     `json:"skill_embeddings,omitempty"`
	Priority        int             `json:"priority"`   // 1-5
	Difficulty      int             `json:"difficulty"` // 1-10
	DueAt           *time.Time      `json:"due_at,omitempty"`
}

// WorkloadTier buckets a workload score for display.
type WorkloadTier string

const (
	WorkloadLow    WorkloadTier = "low"
	WorkloadMedium WorkloadTier = "medium"
	WorkloadHigh   WorkloadTier = "high"
)

// ScoreBreakdown exposes the individual terms behind a candidate score.
type ScoreBreakdown struct {
	SkillFit     float64 `json:"skill_fit"`
	HistoryBonus float64 `json:"history_bonus"`
	Momentum     float64 `json:"momentum"`
	HealthCost   float64 `json:"health_cost"`
}

// CandidateScore is the deterministic fitness of one (candidate, task) pair.
type CandidateScore struct {
	CandidateID  string         `json:"candidate_id"`
	Total        float64        `json:"total_score"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	WorkloadTier WorkloadTier   `json:"workload_tier"`
}

// ActiveTask is a currently assigned task, as seen by the workload scorer.
type ActiveTask struct {
	Status     string `json:"status"`
	Priority   int    `json:"priority"`
	Difficulty int    `json:"difficulty"`
}

// CompletionOutcome captures what happened to a finished assignment.
type CompletionOutcome struct {
	Completed      bool    `json:"completed"`
	OnTime         bool    `json:"on_time"`
	Rating         float64 `json:"rating"`
	GoodBehavior   bool    `json:"good_behavior"`
	Failed         bool    `json:"failed"`
	ReworkRequired bool    `json:"rework_required"`
	OverdueDays    int     `json:"overdue_days"`
}

// RewardComponents isolates every term of the per-assignment reward.
// TotalClipped is the only value that may feed the bandit update.
type RewardComponents struct {
	Completion   float64 `json:"completion"`
	OnTime       float64 `json:"on_time"`
	Rating       float64 `json:"rating"`
	HardTask     float64 `json:"hard_task"`
	GoodBehavior float64 `json:"good_behavior"`
	Failure      float64 `json:"failure"`
	Rework       float64 `json:"rework"`
	Overdue      float64 `json:"overdue"`
	TotalRaw     float64 `json:"total_raw"`
	TotalClipped float64 `json:"total_clipped"`
}

// OutcomeMetrics feeds the longer-horizon multi-objective reward.
type OutcomeMetrics struct {
	PredictedHours   float64 `json:"predicted_hours"`
	ActualHours      float64 `json:"actual_hours"`
	Bugs             int     `json:"bugs"`
	ReviewComments   int     `json:"review_comments"`
	SkillImprovement float64 `json:"skill_improvement"`
	BurnoutIncrease  float64 `json:"burnout_increase"`
	Confidence       float64 `json:"confidence"`
	Success          float64 `json:"success"`
	Satisfaction     float64 `json:"satisfaction"` // 0-10 rating
}

// MultiObjectiveReward is the weighted long-horizon reward and its terms.
// Total is intentionally not clipped; see ProductivityUpdater.
type MultiObjectiveReward struct {
	Total         float64 `json:"total"`
	Speed         float64 `json:"speed"`
	Quality       float64 `json:"quality"`
	Learning      float64 `json:"learning"`
	HealthPenalty float64 `json:"health_penalty"`
	Accuracy      float64 `json:"accuracy"`
	Satisfaction  float64 `json:"satisfaction"`
}
