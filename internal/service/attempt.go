package service

import (
	"context"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"

	"go.uber.org/zap"
)

const defaultAttemptHistoryLimit = 50

// AttemptService reads saved quiz attempts.
type AttemptService interface {
	ListAttempts(ctx context.Context, userID string) ([]*domain.QuizAttempt, error)
}

type attemptService struct {
	repo domain.AttemptRepository
}

// NewAttemptService creates a new AttemptService. A nil repository yields an
// always empty history.
func NewAttemptService(repo domain.AttemptRepository) AttemptService {
	return &attemptService{repo: repo}
}

// ListAttempts returns the user's most recent attempts, newest first.
func (s *attemptService) ListAttempts(ctx context.Context, userID string) ([]*domain.QuizAttempt, error) {
	if s.repo == nil {
		return []*domain.QuizAttempt{}, nil
	}
	attempts, err := s.repo.ListByUser(ctx, userID, defaultAttemptHistoryLimit)
	if err != nil {
		logger.Get().Error("Failed to list quiz attempts", zap.Error(err), zap.String("userID", userID))
		return nil, domain.NewInternalError("Failed to list quiz attempts", err)
	}
	if attempts == nil {
		attempts = []*domain.QuizAttempt{}
	}
	return attempts, nil
}
