package embedding

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
func (m *MockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ domain.Cache = (*MockCache)(nil)

type MockEmbeddingService struct {
	mock.Mock
}

func (m *MockEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func gobString(t *testing.T, vec []float32) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(vec))
	return buf.String()
}

const (
	testTTL       = 30 * time.Minute
	testNamespace = "01HZX3J6Q4E3W1B7D0ZC8K2M9T"
)

func newCachedService(t *testing.T, inner domain.EmbeddingService, c domain.Cache) *CachedEmbeddingService {
	t.Helper()
	svc, err := NewCachedEmbeddingService(inner, c, "test-model", testNamespace, testTTL)
	require.NoError(t, err)
	return svc
}

func TestNewCachedEmbeddingService(t *testing.T) {
	inner, c := new(MockEmbeddingService), new(MockCache)

	_, err := NewCachedEmbeddingService(nil, c, "m", "ns", testTTL)
	assert.Error(t, err)

	_, err = NewCachedEmbeddingService(inner, nil, "m", "ns", testTTL)
	assert.Contains(t, err.Error(), "cache instance cannot be nil")

	_, err = NewCachedEmbeddingService(inner, c, "m", "", testTTL)
	assert.Contains(t, err.Error(), "namespace cannot be empty")

	_, err = NewCachedEmbeddingService(inner, c, "m", "ns", 0)
	assert.Contains(t, err.Error(), "embeddingCacheTTL must be positive")
}

func TestCachedEmbeddingService_Generate(t *testing.T) {
	ctx := context.Background()
	text := "summary key concepts"
	expected := []float32{0.4, 0.5, 0.6}
	cacheKey := "quizrag:embedding:test-model:" + hashString(text) + ":" + testNamespace

	t.Run("cache miss stores result", func(t *testing.T) {
		inner, c := new(MockEmbeddingService), new(MockCache)
		svc := newCachedService(t, inner, c)

		c.On("Get", ctx, cacheKey).Return("", domain.ErrCacheMiss).Once()
		inner.On("Generate", ctx, text).Return(expected, nil).Once()
		c.On("Set", ctx, cacheKey, gobString(t, expected), testTTL).Return(nil).Once()

		result, err := svc.Generate(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, expected, result)
		inner.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("cache hit", func(t *testing.T) {
		inner, c := new(MockEmbeddingService), new(MockCache)
		svc := newCachedService(t, inner, c)

		c.On("Get", ctx, cacheKey).Return(gobString(t, expected), nil).Once()

		result, err := svc.Generate(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, expected, result)
		inner.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("corrupt cache entry is recomputed", func(t *testing.T) {
		inner, c := new(MockEmbeddingService), new(MockCache)
		svc := newCachedService(t, inner, c)

		c.On("Get", ctx, cacheKey).Return("invalid gob data", nil).Once()
		inner.On("Generate", ctx, text).Return(expected, nil).Once()
		c.On("Set", ctx, cacheKey, gobString(t, expected), testTTL).Return(nil).Once()

		result, err := svc.Generate(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, expected, result)
		c.AssertExpectations(t)
	})

	t.Run("cache errors do not fail the call", func(t *testing.T) {
		inner, c := new(MockEmbeddingService), new(MockCache)
		svc := newCachedService(t, inner, c)

		c.On("Get", ctx, cacheKey).Return("", errors.New("connection reset")).Once()
		inner.On("Generate", ctx, text).Return(expected, nil).Once()
		c.On("Set", ctx, cacheKey, mock.Anything, testTTL).Return(errors.New("connection reset")).Once()

		result, err := svc.Generate(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, expected, result)
	})

	t.Run("upstream error is returned and nothing cached", func(t *testing.T) {
		inner, c := new(MockEmbeddingService), new(MockCache)
		svc := newCachedService(t, inner, c)
		upstreamErr := errors.New("openai failed")

		c.On("Get", ctx, cacheKey).Return("", domain.ErrCacheMiss).Once()
		inner.On("Generate", ctx, text).Return(nil, upstreamErr).Once()

		_, err := svc.Generate(ctx, text)
		assert.ErrorIs(t, err, upstreamErr)
		c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty text", func(t *testing.T) {
		svc := newCachedService(t, new(MockEmbeddingService), new(MockCache))
		_, err := svc.Generate(ctx, "")
		assert.Contains(t, err.Error(), "input text cannot be empty")
	})
}

func TestCachedEmbeddingService_GenerateConcurrentCallsShareUpstream(t *testing.T) {
	ctx := context.Background()
	text := "shared"
	expected := []float32{1, 2}

	inner, c := new(MockEmbeddingService), new(MockCache)
	svc := newCachedService(t, inner, c)

	release := make(chan time.Time)
	c.On("Get", ctx, mock.Anything).Return("", domain.ErrCacheMiss)
	c.On("Set", ctx, mock.Anything, mock.Anything, testTTL).Return(nil)
	inner.On("Generate", ctx, text).WaitUntil(release).Return(expected, nil)

	var wg sync.WaitGroup
	results := make([][]float32, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.Generate(ctx, text)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, expected, r)
	}
	inner.AssertNumberOfCalls(t, "Generate", 1)
}

func TestCachedEmbeddingService_GenerateBatch(t *testing.T) {
	ctx := context.Background()
	texts := []string{"one", "two", "three"}
	vecs := map[string][]float32{"one": {1, 0}, "two": {0, 1}, "three": {1, 1}}
	key := func(s string) string {
		return "quizrag:embedding:test-model:" + hashString(s) + ":" + testNamespace
	}

	inner, c := new(MockEmbeddingService), new(MockCache)
	svc := newCachedService(t, inner, c)

	c.On("Get", ctx, key("one")).Return("", domain.ErrCacheMiss).Once()
	c.On("Get", ctx, key("two")).Return(gobString(t, vecs["two"]), nil).Once()
	c.On("Get", ctx, key("three")).Return("", domain.ErrCacheMiss).Once()
	inner.On("GenerateBatch", ctx, []string{"one", "three"}).Return([][]float32{vecs["one"], vecs["three"]}, nil).Once()
	c.On("Set", ctx, key("one"), gobString(t, vecs["one"]), testTTL).Return(nil).Once()
	c.On("Set", ctx, key("three"), gobString(t, vecs["three"]), testTTL).Return(nil).Once()

	result, err := svc.GenerateBatch(ctx, texts)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{vecs["one"], vecs["two"], vecs["three"]}, result)
	inner.AssertExpectations(t)
	c.AssertExpectations(t)

	t.Run("purge deletes written keys only", func(t *testing.T) {
		c.On("Delete", ctx, key("one")).Return(nil).Once()
		c.On("Delete", ctx, key("three")).Return(nil).Once()

		require.NoError(t, svc.Purge(ctx))
		c.AssertNotCalled(t, "Delete", ctx, key("two"))
		c.AssertExpectations(t)

		// Nothing left to delete on a second purge.
		require.NoError(t, svc.Purge(ctx))
		c.AssertNumberOfCalls(t, "Delete", 2)
	})
}

func TestCachedEmbeddingService_GenerateBatchUpstreamError(t *testing.T) {
	ctx := context.Background()
	inner, c := new(MockEmbeddingService), new(MockCache)
	svc := newCachedService(t, inner, c)
	upstreamErr := errors.New("quota exceeded")

	c.On("Get", ctx, mock.Anything).Return("", domain.ErrCacheMiss)
	inner.On("GenerateBatch", ctx, []string{"a", "b"}).Return(nil, upstreamErr).Once()

	_, err := svc.GenerateBatch(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, upstreamErr)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
