package retriever

import (
	"context"
	"strings"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/vectorindex"

	"go.uber.org/zap"
)

const (
	DefaultQuery = "summary key concepts"
	DefaultTopK  = 4
)

// Retriever selects the context a quiz is generated from. It always asks the
// index the same question so generation does not depend on user input.
type Retriever struct {
	query string
	k     int
}

// New returns a Retriever. Empty or non-positive arguments fall back to the
// defaults.
func New(query string, k int) *Retriever {
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{query: query, k: k}
}

// Retrieve embeds the query with the index's own embedder, takes the top k
// chunks and joins their trimmed texts with one blank line, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, idx *vectorindex.Index) (string, []vectorindex.Match, error) {
	if idx == nil {
		return "", nil, domain.NewNoResourceError()
	}

	vec, err := idx.Embedder().Generate(ctx, r.query)
	if err != nil {
		return "", nil, domain.NewEmbeddingFailureError("failed to embed retrieval query", err)
	}

	matches, err := idx.Query(ctx, vec, r.k)
	if err != nil {
		return "", nil, err
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = strings.TrimSpace(m.Chunk.Text)
	}

	logger.Get().Debug("Context retrieved",
		zap.String("query", r.query),
		zap.Int("requested", r.k),
		zap.Int("matches", len(matches)),
	)
	return strings.Join(texts, "\n\n"), matches, nil
}
