package engine

import "time"

// ContextDim is the fixed length of the bandit's context feature vector.
const ContextDim = 8

// Context feature names, in vector order. Kept for diagnostics and for the
// serialized model metadata.
var ContextFeatureNames = [ContextDim]string{
	"candidate_productivity",
	"candidate_workload",
	"task_priority",
	"task_difficulty",
	"skill_match",
	"urgency",
	"task_complexity",
	"experience_match",
}

// BuildContext encodes one (candidate, task) pair into the fixed context
// vector. It is a pure function of its arguments: the caller supplies the
// reference time so urgency stays deterministic.
func BuildContext(c Candidate, task TaskRequirement, now time.Time) []float64 {
	c = NormalizeCandidate(c)
	task = NormalizeTask(task)

	priority := float64(task.Priority) / 4.0
	difficulty := float64(task.Difficulty) / 10.0

	return []float64{
		c.ProductivityScore,
		c.WorkloadScore,
		priority,
		difficulty,
		skillOverlap(c.SkillProficiency, task.RequiredSkills),
		urgency(task.DueAt, now),
		priority * difficulty,
		experienceMatch(c.SkillProficiency, difficulty),
	}
}

// skillOverlap is the Jaccard similarity of skill name sets: a coarse match
// signal that complements the embedding similarity used for filtering.
// No required skills reads as neutral; no candidate skills as no match.
func skillOverlap(proficiency map[string]float64, required []RequiredSkill) float64 {
	if len(required) == 0 {
		return 0.5
	}
	if len(proficiency) == 0 {
		return 0
	}
	intersection := 0
	for _, req := range required {
		if _, ok := proficiency[req.Name]; ok {
			intersection++
		}
	}
	union := len(proficiency) + len(required) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// urgency maps days until due into (0,1], more urgent is higher. A missing
// due date reads as a comfortable 30 days out.
func urgency(dueAt *time.Time, now time.Time) float64 {
	days := float64(defaultUrgencyDays)
	if dueAt != nil {
		days = dueAt.Sub(now).Hours() / 24
		if days < 0 {
			days = 0
		}
	}
	return 1.0 / (1.0 + days)
}

// experienceMatch proxies "is this candidate seasoned enough for this
// difficulty" from overall proficiency: the mean skill level scaled by the
// normalized difficulty, capped at 1.
func experienceMatch(proficiency map[string]float64, normalizedDifficulty float64) float64 {
	if len(proficiency) == 0 {
		return 0
	}
	sum := 0.0
	for _, level := range proficiency {
		sum += level
	}
	match := (sum / float64(len(proficiency))) * normalizedDifficulty
	return clamp01(match)
}
