package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	MinQuestions = 1
	MaxQuestions = 10

	defaultOpenAIModel = "gpt-4-turbo"
)

const promptTemplate = `You are a strict examiner. Generate %d multiple-choice questions based ONLY on the text below.
Every question must have exactly 4 options and exactly one correct answer.
Respond with a single JSON array and nothing else.

TEXT:
%s

OUTPUT JSON FORMAT:
[
    {
        "question": "Question text...",
        "options": ["A", "B", "C", "D"],
        "correct_answer": "A",
        "explanation": "Why A is correct..."
    }
]`

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

	errNotArray = errors.New("model output is not a JSON array of questions")
)

// LLMQuizGenerator implements domain.QuizGenerationService on any langchaingo
// model.
type LLMQuizGenerator struct {
	llm     llms.Model
	model   string
	timeout time.Duration
}

// NewLLMQuizGenerator wraps an existing model. timeout bounds a single
// generation and is ignored when zero.
func NewLLMQuizGenerator(llm llms.Model, model string, timeout time.Duration) (*LLMQuizGenerator, error) {
	if llm == nil {
		return nil, fmt.Errorf("llm client cannot be nil")
	}
	return &LLMQuizGenerator{llm: llm, model: model, timeout: timeout}, nil
}

// NewOpenAIQuizGenerator creates a generator backed by the OpenAI chat API.
func NewOpenAIQuizGenerator(apiKey, model, baseURL string, timeout time.Duration) (*LLMQuizGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI client: %w", err)
	}
	return NewLLMQuizGenerator(llm, model, timeout)
}

// NewOllamaQuizGenerator creates a generator backed by an Ollama server.
func NewOllamaQuizGenerator(serverURL, model string, timeout time.Duration) (*LLMQuizGenerator, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     10 * time.Second,
		},
	}
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo Ollama client: %w", err)
	}
	return NewLLMQuizGenerator(llm, model, timeout)
}

// Model returns the chat model name.
func (g *LLMQuizGenerator) Model() string {
	return g.model
}

// Synthesize asks the model for numQuestions questions about contextText.
// A failed call is an LLM_SERVICE_ERROR. Output that does not parse is not an
// error: it comes back as a ParseFailed result.
func (g *LLMQuizGenerator) Synthesize(ctx context.Context, contextText string, numQuestions int) (domain.SynthesisResult, error) {
	l := logger.Get()

	if numQuestions < MinQuestions || numQuestions > MaxQuestions {
		return domain.SynthesisResult{}, domain.NewInvalidInputError(
			fmt.Sprintf("number of questions must be between %d and %d, got %d", MinQuestions, MaxQuestions, numQuestions))
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(promptTemplate, numQuestions, contextText)
	start := time.Now()
	raw, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(0))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			l.Error("LLM request timed out", zap.Error(err), zap.String("model", g.model))
		} else {
			l.Error("Failed to get response from LLM", zap.Error(err), zap.String("model", g.model))
		}
		return domain.SynthesisResult{}, domain.NewLLMServiceError(err)
	}
	l.Debug("Raw LLM response received",
		zap.String("model", g.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("length", len(raw)),
	)

	questions, err := parseQuestions(raw)
	if err != nil {
		l.Warn("Failed to parse quiz from LLM response",
			zap.Error(err),
			zap.String("raw_response", raw),
		)
		return domain.SynthesisResult{
			Status:    domain.SynthesisParseFailed,
			Questions: []domain.QuizQuestion{},
			Raw:       raw,
			Err:       err,
		}, nil
	}

	if len(questions) != numQuestions {
		l.Info("LLM returned a different number of questions than requested",
			zap.Int("requested", numQuestions),
			zap.Int("returned", len(questions)),
		)
	}
	return domain.SynthesisResult{Status: domain.SynthesisParsed, Questions: questions, Raw: raw}, nil
}

// cleanResponse drops reasoning blocks and a surrounding markdown fence.
func cleanResponse(raw string) string {
	s := thinkBlock.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strings.TrimSpace(s)
}

func parseQuestions(raw string) ([]domain.QuizQuestion, error) {
	cleaned := cleanResponse(raw)

	var questions []domain.QuizQuestion
	err := json.Unmarshal([]byte(cleaned), &questions)
	if err != nil {
		// Models sometimes wrap the array in prose.
		start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("%w: %v", errNotArray, err)
		}
		questions = nil
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &questions); err != nil {
			return nil, fmt.Errorf("%w: %v", errNotArray, err)
		}
	}
	if questions == nil {
		return nil, errNotArray
	}
	return questions, nil
}

var _ domain.QuizGenerationService = (*LLMQuizGenerator)(nil)
