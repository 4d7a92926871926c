package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"quiz-rag/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	ollamaLLM "github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbeddingService implements the domain.EmbeddingService interface using Ollama.
type OllamaEmbeddingService struct {
	embedder embeddings.Embedder
	model    string
}

// NewOllamaEmbeddingService creates a new OllamaEmbeddingService.
// It requires the Ollama server URL and model name.
func NewOllamaEmbeddingService(serverURL, modelName string) (*OllamaEmbeddingService, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	llm, err := ollamaLLM.New(
		ollamaLLM.WithModel(modelName),
		ollamaLLM.WithServerURL(serverURL),
		ollamaLLM.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo Ollama LLM client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create generic embedder from Ollama LLM: %w", err)
	}

	return &OllamaEmbeddingService{embedder: embedder, model: modelName}, nil
}

// Model returns the embedding model name.
func (s *OllamaEmbeddingService) Model() string {
	return s.model
}

// Generate creates an embedding for the given text using the Ollama embedder.
func (s *OllamaEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty for embedding")
	}

	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding using Ollama: %w", err)
	}
	return vec, nil
}

// GenerateBatch embeds all texts in order.
func (s *OllamaEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatch(ctx, s.embedder, "Ollama", texts)
}

var _ domain.EmbeddingService = (*OllamaEmbeddingService)(nil)

// embedBatch runs EmbedDocuments and checks that one vector came back per text.
func embedBatch(ctx context.Context, embedder embeddings.Embedder, provider string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings using %s: %w", provider, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d texts", provider, len(vecs), len(texts))
	}
	return vecs, nil
}
