package types

import "time"

// SuggestionEntry is one ranked candidate in a suggestion response
type SuggestionEntry struct {
	EmployeeID   string  `json:"employee_id"`
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	SkillFit     float64 `json:"skill_fit"`
	HistoryBonus float64 `json:"history_bonus"`
	Momentum     float64 `json:"momentum"`
	HealthCost   float64 `json:"health_cost"`
	Similarity   float64 `json:"similarity"`
	WorkloadTier string  `json:"workload_tier"`
}

// SuggestResponse lists ranked candidates for a task
type SuggestResponse struct {
	TaskID      string            `json:"task_id"`
	Suggestions []SuggestionEntry `json:"suggestions"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// AssignResponse reports the bandit's selection for a task
type AssignResponse struct {
	AssignmentID string  `json:"assignment_id"`
	TaskID       string  `json:"task_id"`
	EmployeeID   string  `json:"employee_id"`
	Score        float64 `json:"score"`
	Exploratory  bool    `json:"exploratory"`
	ColdStart    bool    `json:"cold_start"`
}

// FeedbackRequest carries the observed outcome of an assignment
type FeedbackRequest struct {
	Completed          bool    `json:"completed"`
	Failed             bool    `json:"failed"`
	OnTime             bool    `json:"on_time"`
	DaysOverdue        float64 `json:"days_overdue" binding:"gte=0"`
	Rating             float64 `json:"rating" binding:"gte=0,lte=10"`
	ReworkRequired     bool    `json:"rework_required"`
	GoodBehavior       bool    `json:"good_behavior"`
	PredictedHours     float64 `json:"predicted_hours" binding:"gte=0"`
	ActualHours        float64 `json:"actual_hours" binding:"gte=0"`
	BugsIntroduced     int     `json:"bugs_introduced" binding:"gte=0"`
	ReviewComments     int     `json:"review_comments" binding:"gte=0"`
	SkillImprovement   float64 `json:"skill_improvement" binding:"gte=0,lte=1"`
	ConfidenceEstimate float64 `json:"confidence_estimate" binding:"gte=0,lte=1"`
	HoursWorkedPerDay  float64 `json:"hours_worked_per_day" binding:"gte=0"`
}

// FeedbackResponse reports the rewards computed from an outcome and any
// soft failures encountered while persisting them
type FeedbackResponse struct {
	AssignmentID         string   `json:"assignment_id"`
	EmployeeID           string   `json:"employee_id"`
	RawReward            float64  `json:"raw_reward"`
	ClippedReward        float64  `json:"clipped_reward"`
	MultiObjectiveReward float64  `json:"multi_objective_reward"`
	Productivity         float64  `json:"productivity"`
	WorkloadPercent      int      `json:"workload_percent"`
	Warnings             []string `json:"warnings,omitempty"`
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	RedisEnabled  bool   `json:"redis_enabled"`
}
