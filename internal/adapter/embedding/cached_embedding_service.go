package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"quiz-rag/internal/cache"
	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedEmbeddingService caches vectors of one session in a domain.Cache.
// Keys carry the session namespace and every key written is remembered so
// Purge can remove them when the session ends.
type CachedEmbeddingService struct {
	inner     domain.EmbeddingService
	cache     domain.Cache
	model     string
	namespace string
	ttl       time.Duration
	sfGroup   singleflight.Group

	mu   sync.Mutex
	keys map[string]struct{}
}

// NewCachedEmbeddingService wraps inner. namespace is normally the session id.
func NewCachedEmbeddingService(inner domain.EmbeddingService, c domain.Cache, model, namespace string, ttl time.Duration) (*CachedEmbeddingService, error) {
	if inner == nil {
		return nil, fmt.Errorf("embedding service cannot be nil")
	}
	if c == nil {
		return nil, fmt.Errorf("cache instance cannot be nil for CachedEmbeddingService")
	}
	if namespace == "" {
		return nil, fmt.Errorf("cache namespace cannot be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("embeddingCacheTTL must be positive")
	}
	return &CachedEmbeddingService{
		inner:     inner,
		cache:     c,
		model:     model,
		namespace: namespace,
		ttl:       ttl,
		keys:      make(map[string]struct{}),
	}, nil
}

func (s *CachedEmbeddingService) key(text string) string {
	return cache.GenerateCacheKey("embedding", s.model, hashString(text), s.namespace)
}

// Generate returns the cached vector for text or computes and stores it.
// Concurrent calls for the same text share one upstream request.
func (s *CachedEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty for embedding")
	}
	cacheKey := s.key(text)

	if vec, ok := s.lookup(ctx, cacheKey); ok {
		return vec, nil
	}

	res, err, _ := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		vec, err := s.inner.Generate(ctx, text)
		if err != nil {
			return nil, err
		}
		s.store(ctx, cacheKey, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}

	if vec, ok := res.([]float32); ok {
		return vec, nil
	}
	return nil, fmt.Errorf("unexpected type from singleflight.Do for embedding: %T", res)
}

// GenerateBatch serves what it can from the cache and sends the misses to the
// wrapped service in a single call. Output order matches texts.
func (s *CachedEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if vec, ok := s.lookup(ctx, s.key(text)); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := s.inner.GenerateBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding service returned %d embeddings for %d texts", len(vecs), len(missTexts))
	}
	for j, vec := range vecs {
		out[missIdx[j]] = vec
		s.store(ctx, s.key(missTexts[j]), vec)
	}

	logger.Get().Debug("Embedding batch served",
		zap.String("namespace", s.namespace),
		zap.Int("hits", len(texts)-len(missTexts)),
		zap.Int("misses", len(missTexts)),
	)
	return out, nil
}

// Purge deletes every key this service wrote. The first error is returned
// after all deletes were attempted.
func (s *CachedEmbeddingService) Purge(ctx context.Context) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	s.keys = make(map[string]struct{})
	s.mu.Unlock()

	var firstErr error
	for _, k := range keys {
		if err := s.cache.Delete(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *CachedEmbeddingService) lookup(ctx context.Context, cacheKey string) ([]float32, bool) {
	l := logger.Get()
	data, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		if err != domain.ErrCacheMiss {
			l.Warn("Failed to get embedding from cache", zap.Error(err), zap.String("cacheKey", cacheKey))
		}
		return nil, false
	}

	var vec []float32
	if err := gob.NewDecoder(bytes.NewReader([]byte(data))).Decode(&vec); err != nil {
		l.Warn("Failed to decode cached embedding", zap.Error(err), zap.String("cacheKey", cacheKey))
		return nil, false
	}
	return vec, true
}

// store caches vec. Failures are logged and otherwise ignored.
func (s *CachedEmbeddingService) store(ctx context.Context, cacheKey string, vec []float32) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(vec); err != nil {
		logger.Get().Warn("Failed to gob encode embedding for caching", zap.Error(err), zap.String("cacheKey", cacheKey))
		return
	}
	if err := s.cache.Set(ctx, cacheKey, buffer.String(), s.ttl); err != nil {
		logger.Get().Warn("Failed to set embedding to cache", zap.Error(err), zap.String("cacheKey", cacheKey))
		return
	}
	s.mu.Lock()
	s.keys[cacheKey] = struct{}{}
	s.mu.Unlock()
}

func hashString(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

var _ domain.EmbeddingService = (*CachedEmbeddingService)(nil)
