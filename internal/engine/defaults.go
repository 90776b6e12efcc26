package engine

import "math"

// Neutral defaults applied when candidate or task data is missing. Keeping
// them in one place makes the fallback policy auditable.
const (
	defaultHistoryBonus = 0.5
	defaultUrgencyDays  = 30
	maxRecentOutcomes   = 10

	minPriority   = 1
	maxPriority   = 5
	minDifficulty = 1
	maxDifficulty = 10
)

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clamp01(x float64) float64 { return clamp(x, 0, 1) }

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// NormalizeCandidate resolves missing or out-of-range candidate data to the
// documented defaults so scoring never has to raise.
func NormalizeCandidate(c Candidate) Candidate {
	if c.SkillProficiency == nil {
		c.SkillProficiency = map[string]float64{}
	}
	for skill, level := range c.SkillProficiency {
		c.SkillProficiency[skill] = clamp01(level)
	}
	c.ProductivityScore = clamp01(c.ProductivityScore)
	c.WorkloadScore = clamp01(c.WorkloadScore)
	if len(c.RecentOutcomes) > maxRecentOutcomes {
		c.RecentOutcomes = c.RecentOutcomes[:maxRecentOutcomes]
	}
	return c
}

// NormalizeTask clamps task ordinals into their documented ranges.
func NormalizeTask(t TaskRequirement) TaskRequirement {
	t.Priority = clampInt(t.Priority, minPriority, maxPriority)
	t.Difficulty = clampInt(t.Difficulty, minDifficulty, maxDifficulty)
	for i := range t.RequiredSkills {
		t.RequiredSkills[i].RequiredLevel = clamp01(t.RequiredSkills[i].RequiredLevel)
	}
	return t
}
