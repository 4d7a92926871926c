package embedding

import (
	"context"
	"fmt"

	"quiz-rag/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
)

const defaultOpenAIEmbeddingModel = "text-embedding-ada-002"

// OpenAIEmbeddingService implements the domain.EmbeddingService interface using OpenAI.
type OpenAIEmbeddingService struct {
	embedder embeddings.Embedder
	model    string
}

// NewOpenAIEmbeddingService creates a new OpenAIEmbeddingService. baseURL may
// be empty to use the public endpoint.
func NewOpenAIEmbeddingService(apiKey, modelName, baseURL string) (*OpenAIEmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		modelName = defaultOpenAIEmbeddingModel
	}

	opts := []openaiLLM.Option{
		openaiLLM.WithToken(apiKey),
		openaiLLM.WithEmbeddingModel(modelName),
	}
	if baseURL != "" {
		opts = append(opts, openaiLLM.WithBaseURL(baseURL))
	}
	llm, err := openaiLLM.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI LLM client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create generic embedder from OpenAI LLM: %w", err)
	}

	return &OpenAIEmbeddingService{embedder: embedder, model: modelName}, nil
}

// Model returns the embedding model name.
func (s *OpenAIEmbeddingService) Model() string {
	return s.model
}

// Generate creates an embedding for the given text using the OpenAI embedder.
func (s *OpenAIEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty for embedding")
	}

	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding using OpenAI: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("received empty embedding from OpenAI without error")
	}
	return vec, nil
}

// GenerateBatch embeds all texts, batching requests inside the embedder.
func (s *OpenAIEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatch(ctx, s.embedder, "OpenAI", texts)
}

var _ domain.EmbeddingService = (*OpenAIEmbeddingService)(nil)
