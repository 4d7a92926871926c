package domain

import "context"

// EmbeddingService defines the interface for generating text embeddings.
type EmbeddingService interface {
	// Generate embeds a single text, used for retrieval queries.
	Generate(ctx context.Context, text string) ([]float32, error)
	// GenerateBatch embeds texts in order; the result has one vector per input.
	GenerateBatch(ctx context.Context, texts []string) ([][]float32, error)
}
