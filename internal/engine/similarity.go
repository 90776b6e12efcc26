package engine

import (
	"math"
	"sort"
)

const defaultTopK = 3

// Cosine computes the cosine similarity of two vectors. Mismatched
// dimensions or a zero-norm vector yield 0 rather than an error.
func Cosine(u, v []float64) float64 {
	if len(u) != len(v) || len(u) == 0 {
		return 0
	}
	dot, normU, normV := 0.0, 0.0, 0.0
	for i := range u {
		dot += u[i] * v[i]
		normU += u[i] * u[i]
		normV += v[i] * v[i]
	}
	if normU == 0 || normV == 0 {
		return 0
	}
	return dot / (math.Sqrt(normU) * math.Sqrt(normV))
}

// MeanSimilarity averages cosine similarity over the full cross product of
// task and candidate embeddings. Every pairing counts; the mean, not the
// max, keeps a single lucky pair from dominating.
func MeanSimilarity(taskEmbeddings, candidateEmbeddings [][]float64) float64 {
	if len(taskEmbeddings) == 0 || len(candidateEmbeddings) == 0 {
		return 0
	}
	sum := 0.0
	for _, te := range taskEmbeddings {
		for _, ce := range candidateEmbeddings {
			sum += Cosine(te, ce)
		}
	}
	return sum / float64(len(taskEmbeddings)*len(candidateEmbeddings))
}

// CandidateSimilarity pairs a candidate with its similarity to a task.
type CandidateSimilarity struct {
	Candidate  Candidate `json:"candidate"`
	Similarity float64   `json:"similarity"`
}

// SimilarityFilter narrows a candidate pool to the top K by embedding
// similarity before the bandit acts.
type SimilarityFilter struct {
	topK int
}

// NewSimilarityFilter creates a filter keeping the top k candidates.
// Non-positive k falls back to the default of 3.
func NewSimilarityFilter(k int) *SimilarityFilter {
	if k <= 0 {
		k = defaultTopK
	}
	return &SimilarityFilter{topK: k}
}

// TopCandidates ranks candidates by mean similarity to the task embeddings,
// highest first, ties kept in input order, truncated to K.
//
// When the task has no embeddings the filter is a no-op: every candidate is
// returned with similarity 0, because proceeding beats deadlocking
// assignment.
func (f *SimilarityFilter) TopCandidates(task TaskRequirement, candidates []Candidate) []CandidateSimilarity {
	if len(candidates) == 0 {
		return nil
	}

	if len(task.SkillEmbeddings) == 0 {
		out := make([]CandidateSimilarity, len(candidates))
		for i, c := range candidates {
			out[i] = CandidateSimilarity{Candidate: c, Similarity: 0}
		}
		return out
	}

	ranked := make([]CandidateSimilarity, len(candidates))
	for i, c := range candidates {
		ranked[i] = CandidateSimilarity{
			Candidate:  c,
			Similarity: MeanSimilarity(task.SkillEmbeddings, c.SkillEmbeddings),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	if len(ranked) > f.topK {
		ranked = ranked[:f.topK]
	}
	return ranked
}
