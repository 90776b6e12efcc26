package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateReward(t *testing.T) {
	engine := NewRewardEngine()

	tests := []struct {
		name            string
		task            TaskRequirement
		outcome         CompletionOutcome
		expectedRaw     float64
		expectedClipped float64
	}{
		{
			name: "completed on time with rating and rework on a hard task",
			task: TaskRequirement{Difficulty: 9},
			outcome: CompletionOutcome{
				Completed:      true,
				OnTime:         true,
				Rating:         4,
				ReworkRequired: true,
			},
			expectedRaw:     1.9, // 1.0 + 0.5 + 0.5 + 0.4 - 0.5
			expectedClipped: 1.9,
		},
		{
			name:            "failure ten days overdue clips at the floor",
			task:            TaskRequirement{Difficulty: 3},
			outcome:         CompletionOutcome{Failed: true, OverdueDays: 10},
			expectedRaw:     -2.7, // -1.2 - 1.5
			expectedClipped: -2.0,
		},
		{
			name: "full bonus stack clips at the ceiling",
			task: TaskRequirement{Difficulty: 10},
			outcome: CompletionOutcome{
				Completed:    true,
				OnTime:       true,
				Rating:       5,
				GoodBehavior: true,
			},
			expectedRaw:     2.6, // 1.0 + 0.5 + 0.5 + 0.4 + 0.2
			expectedClipped: 2.0,
		},
		{
			name:            "no outcome flags at all",
			task:            TaskRequirement{Difficulty: 5},
			outcome:         CompletionOutcome{},
			expectedRaw:     0,
			expectedClipped: 0,
		},
		{
			name: "bonuses require completion",
			task: TaskRequirement{Difficulty: 9},
			outcome: CompletionOutcome{
				OnTime:       true,
				Rating:       5,
				GoodBehavior: true,
			},
			expectedRaw:     0,
			expectedClipped: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := engine.Calculate(tt.task, tt.outcome)

			assert.InDelta(t, tt.expectedRaw, c.TotalRaw, 1e-9)
			assert.InDelta(t, tt.expectedClipped, c.TotalClipped, 1e-9)
			assert.GreaterOrEqual(t, c.TotalClipped, -2.0)
			assert.LessOrEqual(t, c.TotalClipped, 2.0)

			// components must add up to the raw total
			sum := c.Completion + c.OnTime + c.Rating + c.HardTask +
				c.GoodBehavior + c.Failure + c.Rework + c.Overdue
			assert.InDelta(t, c.TotalRaw, sum, 1e-9)
		})
	}
}

func TestCalculateRewardDeterministic(t *testing.T) {
	engine := NewRewardEngine()
	task := TaskRequirement{Difficulty: 8}
	outcome := CompletionOutcome{Completed: true, OnTime: true, OverdueDays: 0}

	first := engine.Calculate(task, outcome)
	second := engine.Calculate(task, outcome)
	assert.Equal(t, first, second)
}

func TestRewardBounds(t *testing.T) {
	min, max := NewRewardEngine().Bounds()
	assert.Equal(t, -2.0, min)
	assert.Equal(t, 2.0, max)
}

func TestMultiObjectiveReward(t *testing.T) {
	engine := NewRewardEngine()

	m := OutcomeMetrics{
		PredictedHours:   10,
		ActualHours:      5,
		Bugs:             1,
		ReviewComments:   4,
		SkillImprovement: 0.2,
		BurnoutIncrease:  0.1,
		Confidence:       0.8,
		Success:          1,
		Satisfaction:     7,
	}

	r := engine.MultiObjective(m)

	assert.InDelta(t, math.Log(2), r.Speed, 1e-9)
	assert.InDelta(t, 0.5, r.Quality, 1e-9) // 1 - (0.3 + 0.2)
	assert.InDelta(t, 0.2, r.Learning, 1e-9)
	assert.InDelta(t, -0.1, r.HealthPenalty, 1e-9)
	assert.InDelta(t, 0.96, r.Accuracy, 1e-9) // 1 - 0.04
	assert.InDelta(t, 0.7, r.Satisfaction, 1e-9)

	expected := 0.25*math.Log(2) + 0.25*0.5 + 0.15*0.2 + 0.15*(-0.1) + 0.10*0.96 + 0.10*0.7
	assert.InDelta(t, expected, r.Total, 1e-9)
}

func TestMultiObjectiveFloorsHours(t *testing.T) {
	engine := NewRewardEngine()

	// zero hours must not blow up the log ratio
	r := engine.MultiObjective(OutcomeMetrics{PredictedHours: 0, ActualHours: 0})
	assert.InDelta(t, 0.0, r.Speed, 1e-9)
	assert.False(t, math.IsInf(r.Total, 0))
	assert.False(t, math.IsNaN(r.Total))
}

func TestMultiObjectiveSatisfactionClamped(t *testing.T) {
	engine := NewRewardEngine()

	high := engine.MultiObjective(OutcomeMetrics{Satisfaction: 25})
	assert.Equal(t, 1.0, high.Satisfaction)

	low := engine.MultiObjective(OutcomeMetrics{Satisfaction: -3})
	assert.Equal(t, 0.0, low.Satisfaction)
}
