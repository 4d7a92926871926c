package provider

import (
	"fmt"
	"strings"
	"time"

	"quiz-rag/internal/adapter/embedding"
	"quiz-rag/internal/adapter/quizgen"
	"quiz-rag/internal/config"
	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"

	"go.uber.org/zap"
)

const (
	SourceOpenAI = "openai"
	SourceOllama = "ollama"

	defaultEmbeddingCacheTTL = time.Hour
)

// Factory builds the model clients of a session. A session may bring its own
// OpenAI key; Ollama backends ignore it.
type Factory struct {
	embeddingCfg config.EmbeddingConfig
	llmCfg       config.LLMConfig
	cache        domain.Cache
	cacheTTL     time.Duration
}

// NewFactory returns a Factory. cache may be nil to disable embedding caching.
func NewFactory(embeddingCfg config.EmbeddingConfig, llmCfg config.LLMConfig, cache domain.Cache, cacheTTL time.Duration) *Factory {
	if cacheTTL <= 0 {
		cacheTTL = defaultEmbeddingCacheTTL
	}
	return &Factory{
		embeddingCfg: embeddingCfg,
		llmCfg:       llmCfg,
		cache:        cache,
		cacheTTL:     cacheTTL,
	}
}

// Embedder returns the embedding service for one session. When a cache is
// configured the result is a *embedding.CachedEmbeddingService scoped to
// namespace.
func (f *Factory) Embedder(namespace, credential string) (domain.EmbeddingService, error) {
	var (
		svc   domain.EmbeddingService
		model string
	)

	switch strings.ToLower(f.embeddingCfg.Source) {
	case SourceOpenAI, "":
		key := pick(credential, f.embeddingCfg.OpenAI.APIKey)
		if key == "" {
			return nil, domain.NewInvalidInputError("an OpenAI API key is required for embeddings")
		}
		s, err := embedding.NewOpenAIEmbeddingService(key, f.embeddingCfg.OpenAI.Model, f.embeddingCfg.OpenAI.BaseURL)
		if err != nil {
			return nil, domain.NewEmbeddingFailureError("failed to create OpenAI embedder", err)
		}
		svc, model = s, s.Model()
	case SourceOllama:
		s, err := embedding.NewOllamaEmbeddingService(f.embeddingCfg.Ollama.ServerURL, f.embeddingCfg.Ollama.Model)
		if err != nil {
			return nil, domain.NewEmbeddingFailureError("failed to create Ollama embedder", err)
		}
		svc, model = s, s.Model()
	default:
		return nil, domain.NewInternalError(fmt.Sprintf("unsupported embedding source %q", f.embeddingCfg.Source), nil)
	}

	if f.cache == nil {
		return svc, nil
	}
	cached, err := embedding.NewCachedEmbeddingService(svc, f.cache, model, namespace, f.cacheTTL)
	if err != nil {
		logger.Get().Warn("Embedding cache disabled for session", zap.Error(err), zap.String("namespace", namespace))
		return svc, nil
	}
	return cached, nil
}

// Generator returns the quiz synthesizer for one session.
func (f *Factory) Generator(credential string) (domain.QuizGenerationService, error) {
	switch strings.ToLower(f.llmCfg.Provider) {
	case SourceOpenAI, "":
		key := pick(credential, f.llmCfg.OpenAI.APIKey)
		if key == "" {
			return nil, domain.NewInvalidInputError("an OpenAI API key is required for quiz generation")
		}
		g, err := quizgen.NewOpenAIQuizGenerator(key, f.llmCfg.OpenAI.Model, f.llmCfg.OpenAI.BaseURL, f.llmCfg.Timeout)
		if err != nil {
			return nil, domain.NewLLMServiceError(err)
		}
		return g, nil
	case SourceOllama:
		g, err := quizgen.NewOllamaQuizGenerator(f.llmCfg.Ollama.ServerURL, f.llmCfg.Ollama.Model, f.llmCfg.Timeout)
		if err != nil {
			return nil, domain.NewLLMServiceError(err)
		}
		return g, nil
	default:
		return nil, domain.NewInternalError(fmt.Sprintf("unsupported llm provider %q", f.llmCfg.Provider), nil)
	}
}

func pick(credential, fallback string) string {
	if c := strings.TrimSpace(credential); c != "" {
		return c
	}
	return fallback
}
