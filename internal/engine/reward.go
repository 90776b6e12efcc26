package engine

import "math"

// RewardEngine converts completion outcomes into the bounded per-assignment
// reward that trains the bandit, and into the unbounded multi-objective
// reward that drives the long-run productivity estimate.
type RewardEngine struct {
	completionReward   float64
	onTimeReward       float64
	ratingReward       float64
	hardTaskBonus      float64
	goodBehaviorReward float64

	failurePenalty       float64
	reworkPenalty        float64
	overduePenaltyPerDay float64

	minReward float64
	maxReward float64

	hardTaskThreshold int
}

// NewRewardEngine creates a reward engine with the default formula weights.
func NewRewardEngine() *RewardEngine {
	return &RewardEngine{
		completionReward:   1.0,
		onTimeReward:       0.5,
		ratingReward:       0.5,
		hardTaskBonus:      0.4,
		goodBehaviorReward: 0.2,

		failurePenalty:       1.2,
		reworkPenalty:        0.5,
		overduePenaltyPerDay: 0.15,

		minReward: -2.0,
		maxReward: 2.0,

		hardTaskThreshold: 8,
	}
}

// Bounds returns the clipping range for the per-assignment reward.
func (e *RewardEngine) Bounds() (min, max float64) {
	return e.minReward, e.maxReward
}

// Calculate computes the per-assignment reward with each term isolated.
// On-time, rating, hard-task, and good-behavior bonuses pay out only when
// the task actually completed.
func (e *RewardEngine) Calculate(task TaskRequirement, outcome CompletionOutcome) RewardComponents {
	var c RewardComponents

	if outcome.Completed {
		c.Completion = e.completionReward
		if outcome.OnTime {
			c.OnTime = e.onTimeReward
		}
		if outcome.Rating > 0 {
			c.Rating = e.ratingReward
		}
		if task.Difficulty >= e.hardTaskThreshold {
			c.HardTask = e.hardTaskBonus
		}
		if outcome.GoodBehavior {
			c.GoodBehavior = e.goodBehaviorReward
		}
	}

	if outcome.Failed {
		c.Failure = -e.failurePenalty
	}
	if outcome.ReworkRequired {
		c.Rework = -e.reworkPenalty
	}
	if outcome.OverdueDays > 0 {
		c.Overdue = -e.overduePenaltyPerDay * float64(outcome.OverdueDays)
	}

	c.TotalRaw = c.Completion + c.OnTime + c.Rating + c.HardTask +
		c.GoodBehavior + c.Failure + c.Rework + c.Overdue
	c.TotalClipped = clamp(c.TotalRaw, e.minReward, e.maxReward)

	return c
}

// MultiObjective computes the long-horizon weighted reward. Weights sum to
// 1.0 but the speed term is a log ratio, so the total is not bounded and is
// deliberately left unclipped.
func (e *RewardEngine) MultiObjective(m OutcomeMetrics) MultiObjectiveReward {
	actual := math.Max(0.1, m.ActualHours)
	predicted := math.Max(0.1, m.PredictedHours)

	r := MultiObjectiveReward{
		Speed:         math.Log(predicted / actual),
		Quality:       1 - (float64(m.Bugs)*0.3 + float64(m.ReviewComments)*0.05),
		Learning:      m.SkillImprovement,
		HealthPenalty: -m.BurnoutIncrease,
		Accuracy:      1 - (m.Confidence-m.Success)*(m.Confidence-m.Success),
		Satisfaction:  clamp01(m.Satisfaction / 10),
	}
	r.Total = 0.25*r.Speed +
		0.25*r.Quality +
		0.15*r.Learning +
		0.15*r.HealthPenalty +
		0.10*r.Accuracy +
		0.10*r.Satisfaction
	return r
}
