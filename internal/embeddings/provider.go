// Package embeddings resolves skill names to dense vectors for similarity
// filtering. The production deployment talks to an external embedding
// service; the mock provider generates deterministic vectors so the rest
// of the pipeline behaves identically without one.
package embeddings

import "context"

// DefaultDimension matches the sentence-transformer models the external
// embedding service serves.
const DefaultDimension = 384

// Provider produces embedding vectors for free text.
type Provider interface {
	// EmbedText returns the embedding vector for a single text.
	EmbedText(ctx context.Context, text string) ([]float64, error)

	// EmbedSkills returns one embedding per skill name, in input order.
	EmbedSkills(ctx context.Context, skills []string) ([][]float64, error)

	// Dimension reports the length of the vectors this provider emits.
	Dimension() int
}
