package engine

import "sort"

var (
	scorerWeights = map[string]float64{
		"skill_fit":     0.40,
		"history_bonus": 0.20,
		"momentum":      0.15,
	}
	healthCostScale    = 0.25
	workloadCostWeight = 0.5
	burnoutCostWeight  = 0.8
	// scores must stay strictly positive to preserve rank order downstream
	scoreFloor = 0.01

	tierMediumThreshold = 0.33
	tierHighThreshold   = 0.66
)

// BurnoutEstimator supplies a candidate's current burnout estimate in [0,1].
// The default estimator always returns zero; a computed burnout-increase
// proxy exists in the reward path but is deliberately not wired back here.
type BurnoutEstimator interface {
	Estimate(candidateID string) float64
}

type zeroBurnout struct{}

func (zeroBurnout) Estimate(string) float64 { return 0 }

// Scorer computes the deterministic weighted fitness of a candidate for a
// task. It never fails; missing data resolves to neutral defaults.
type Scorer struct {
	burnout BurnoutEstimator
}

// NewScorer creates a Scorer. A nil estimator falls back to a zero estimate.
func NewScorer(burnout BurnoutEstimator) *Scorer {
	if burnout == nil {
		burnout = zeroBurnout{}
	}
	return &Scorer{burnout: burnout}
}

// Score evaluates one (candidate, task) pair.
func (s *Scorer) Score(c Candidate, task TaskRequirement) CandidateScore {
	c = NormalizeCandidate(c)
	task = NormalizeTask(task)

	fit := skillFit(c.SkillProficiency, task.RequiredSkills)
	history := historyBonus(c.RecentOutcomes)
	momentum := c.ProductivityScore

	burnout := clamp01(s.burnout.Estimate(c.ID))
	healthCost := healthCostScale * (workloadCostWeight*c.WorkloadScore + burnoutCostWeight*burnout)

	total := scorerWeights["skill_fit"]*fit +
		scorerWeights["history_bonus"]*history +
		scorerWeights["momentum"]*momentum -
		healthCost
	if total < scoreFloor {
		total = scoreFloor
	}

	return CandidateScore{
		CandidateID: c.ID,
		Total:       total,
		Breakdown: ScoreBreakdown{
			SkillFit:     fit,
			HistoryBonus: history,
			Momentum:     momentum,
			HealthCost:   healthCost,
		},
		WorkloadTier: tierFor(c.WorkloadScore),
	}
}

// ScoreAll scores a batch and returns the results sorted by total score,
// highest first. Scoring one candidate can never block the rest.
func (s *Scorer) ScoreAll(candidates []Candidate, task TaskRequirement) []CandidateScore {
	scores := make([]CandidateScore, 0, len(candidates))
	for _, c := range candidates {
		scores = append(scores, s.Score(c, task))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Total > scores[j].Total
	})
	return scores
}

// skillFit is the mean over required skills of min(proficiency, required).
// A missing skill counts as zero; no requirements at all is a perfect fit.
func skillFit(proficiency map[string]float64, required []RequiredSkill) float64 {
	if len(required) == 0 {
		return 1.0
	}
	matched := 0.0
	for _, req := range required {
		if level, ok := proficiency[req.Name]; ok {
			if level < req.RequiredLevel {
				matched += level
			} else {
				matched += req.RequiredLevel
			}
		}
	}
	return matched / float64(len(required))
}

// historyBonus averages the recorded outcome scores, or returns the neutral
// prior when no history exists.
func historyBonus(outcomes []float64) float64 {
	if len(outcomes) == 0 {
		return defaultHistoryBonus
	}
	sum := 0.0
	for _, score := range outcomes {
		sum += score
	}
	return sum / float64(len(outcomes))
}

func tierFor(workload float64) WorkloadTier {
	switch {
	case workload >= tierHighThreshold:
		return WorkloadHigh
	case workload >= tierMediumThreshold:
		return WorkloadMedium
	default:
		return WorkloadLow
	}
}
