package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/util"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

const collectionName = "chunks"

var errNotPrecomputed = errors.New("embedding must be precomputed")

// Match is one query hit.
type Match struct {
	Similarity float32
	Chunk      domain.Chunk
}

// Index is an in-memory cosine similarity index over the chunks of one
// document. It is immutable once built.
type Index struct {
	collection *chromem.Collection
	chunks     []domain.Chunk
	dims       int
	embedder   domain.EmbeddingService
}

// Build embeds every chunk with one batch call and indexes the results. Any
// embedding problem fails the whole build and no index is returned.
func Build(ctx context.Context, embedder domain.EmbeddingService, chunks []domain.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, domain.NewInvalidInputError("cannot build an index without chunks")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vecs, err := embedder.GenerateBatch(ctx, texts)
	if err != nil {
		return nil, domain.NewEmbeddingFailureError("failed to embed chunks", err)
	}
	if len(vecs) != len(chunks) {
		return nil, domain.NewEmbeddingFailureError(fmt.Sprintf("got %d embeddings for %d chunks", len(vecs), len(chunks)), nil)
	}

	dims := len(vecs[0])
	for i, v := range vecs {
		if len(v) == 0 || len(v) != dims {
			return nil, domain.NewEmbeddingFailureError(fmt.Sprintf("chunk %d has %d dimensions, expected %d", i, len(v), dims), nil)
		}
		if util.IsZeroVector(v) {
			return nil, domain.NewEmbeddingFailureError(fmt.Sprintf("chunk %d has a zero vector", i), nil)
		}
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, func(context.Context, string) ([]float32, error) {
		return nil, errNotPrecomputed
	})
	if err != nil {
		return nil, domain.NewInternalError("failed to create vector collection", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   c.Text,
			Embedding: vecs[i],
			Metadata: map[string]string{
				"ordinal":  strconv.Itoa(c.Ordinal),
				"position": strconv.Itoa(c.Position),
			},
		}
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, domain.NewInternalError("failed to add chunks to vector collection", err)
	}

	logger.Get().Debug("Vector index built",
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", dims),
	)

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	return &Index{
		collection: collection,
		chunks:     stored,
		dims:       dims,
		embedder:   embedder,
	}, nil
}

// Size returns the number of indexed chunks.
func (ix *Index) Size() int {
	return len(ix.chunks)
}

// Dimensions returns the vector length every query must have.
func (ix *Index) Dimensions() int {
	return ix.dims
}

// Embedder returns the service that produced the indexed vectors. Queries
// must be embedded with it.
func (ix *Index) Embedder() domain.EmbeddingService {
	return ix.embedder
}

// Query returns up to k chunks by descending cosine similarity. Equal scores
// keep insertion order.
func (ix *Index) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != ix.dims {
		return nil, domain.NewDimensionMismatchError(ix.dims, len(vector))
	}
	if k <= 0 {
		return []Match{}, nil
	}
	if util.IsZeroVector(vector) {
		return nil, domain.NewInvalidInputError("query vector has zero magnitude")
	}

	// Every document is requested so ties can be ordered deterministically
	// before truncating to k.
	results, err := ix.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       ix.collection.Count(),
	})
	if err != nil {
		return nil, domain.NewInternalError("vector query failed", err)
	}

	type hit struct {
		seq int
		sim float32
	}
	hits := make([]hit, 0, len(results))
	for _, r := range results {
		seq, err := strconv.Atoi(r.ID)
		if err != nil || seq < 0 || seq >= len(ix.chunks) {
			return nil, domain.NewInternalError(fmt.Sprintf("unknown document id %q in vector collection", r.ID), err)
		}
		hits = append(hits, hit{seq: seq, sim: r.Similarity})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].sim != hits[b].sim {
			return hits[a].sim > hits[b].sim
		}
		return hits[a].seq < hits[b].seq
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = Match{Similarity: h.sim, Chunk: ix.chunks[h.seq]}
	}
	return matches, nil
}
