package engine

// ProductivityUpdater smooths a candidate's long-run productivity estimate
// toward each new reward signal: a one-step exponential moving average of
// "how rewarding is assigning work to this candidate", independent of task
// type.
type ProductivityUpdater struct {
	step float64
}

// NewProductivityUpdater creates an updater with the default smoothing step.
func NewProductivityUpdater() *ProductivityUpdater {
	return &ProductivityUpdater{step: 0.1}
}

// Update moves the old estimate a fraction of the way toward the reward and
// clamps the result to [0,1]. The reward itself is not clipped here; the
// clamp on the estimate bounds the damage of an extreme signal.
func (u *ProductivityUpdater) Update(old, reward float64) float64 {
	return clamp01(old + u.step*(reward-old))
}

// Caps for the initial productivity estimate: ten years of experience and
// five years of tenure count as fully ramped.
const (
	maxExperienceMonths = 120
	maxTenureMonths     = 60

	experienceWeight = 0.4
	tenureWeight     = 0.6
)

// InitialProductivity seeds the estimate for a candidate with no reward
// history from professional experience and company tenure.
func InitialProductivity(experienceMonths, tenureMonths int) float64 {
	if experienceMonths < 0 {
		experienceMonths = 0
	}
	if tenureMonths < 0 {
		tenureMonths = 0
	}
	expScore := float64(experienceMonths) / maxExperienceMonths
	if expScore > 1 {
		expScore = 1
	}
	tenureScore := float64(tenureMonths) / maxTenureMonths
	if tenureScore > 1 {
		tenureScore = 1
	}
	return clamp01(expScore*experienceWeight + tenureScore*tenureWeight)
}
