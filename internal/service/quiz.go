package service

import (
	"context"
	"fmt"
	"time"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/retriever"
	"quiz-rag/internal/util"

	"go.uber.org/zap"
)

const defaultMaxQuestions = 10

// GeneratedQuiz is the outcome of a generation request. On ParseFailed the
// quiz is empty but still replaces the previous one.
type GeneratedQuiz struct {
	Quiz   *domain.Quiz
	Status domain.SynthesisStatus
}

// SubmitResult is a graded submission plus what happened when saving it.
type SubmitResult struct {
	domain.GradeResult
	AttemptID string
	Saved     bool
	Warning   string
}

// QuizService defines the quiz operations of a session.
type QuizService interface {
	Generate(ctx context.Context, sess *Session, numQuestions int) (*GeneratedQuiz, error)
	Select(sess *Session, quizID string, index int, option string) error
	Submit(ctx context.Context, sess *Session, userID, quizID string, selections []domain.Selection) (*SubmitResult, error)
}

type quizService struct {
	retriever    *retriever.Retriever
	attempts     domain.AttemptRepository
	maxQuestions int
}

// NewQuizService creates a new QuizService. attempts may be nil when
// persistence is disabled.
func NewQuizService(r *retriever.Retriever, attempts domain.AttemptRepository, maxQuestions int) QuizService {
	if maxQuestions <= 0 || maxQuestions > defaultMaxQuestions {
		maxQuestions = defaultMaxQuestions
	}
	return &quizService{
		retriever:    r,
		attempts:     attempts,
		maxQuestions: maxQuestions,
	}
}

// Generate retrieves context from the active resource and asks the model for
// numQuestions questions.
func (s *quizService) Generate(ctx context.Context, sess *Session, numQuestions int) (*GeneratedQuiz, error) {
	l := logger.Get()

	if numQuestions < 1 || numQuestions > s.maxQuestions {
		return nil, domain.NewInvalidInputError(
			fmt.Sprintf("number of questions must be between 1 and %d, got %d", s.maxQuestions, numQuestions))
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.index == nil {
		return nil, domain.NewNoResourceError()
	}

	contextText, matches, err := s.retriever.Retrieve(ctx, sess.index)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := sess.generator.Synthesize(ctx, contextText, numQuestions)
	if err != nil {
		l.Error("Quiz generation failed", zap.Error(err), zap.String("sessionID", sess.ID))
		return nil, err
	}

	quiz := domain.NewQuiz(util.NewULID(), res.Questions)
	logUngradable(quiz)

	sess.quiz = quiz
	sess.selections = make([]domain.Selection, len(quiz.Questions))

	l.Info("Quiz generated",
		zap.String("sessionID", sess.ID),
		zap.String("quizID", quiz.ID),
		zap.String("status", res.Status.String()),
		zap.Int("requested", numQuestions),
		zap.Int("questions", len(quiz.Questions)),
		zap.Int("contextChunks", len(matches)),
		zap.Duration("duration", time.Since(started)),
	)
	return &GeneratedQuiz{Quiz: quiz, Status: res.Status}, nil
}

// Select records the learner's choice for one question of the current quiz.
func (s *quizService) Select(sess *Session, quizID string, index int, option string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	quiz, err := currentQuiz(sess, quizID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(quiz.Questions) {
		return domain.ValidationErrors{domain.NewOutOfRangeError("index", index, 0, len(quiz.Questions)-1)}
	}
	if !hasOption(quiz.Questions[index].Options, option) {
		return domain.NewInvalidInputError(fmt.Sprintf("%q is not an option of question %d", option, index))
	}

	sess.selections[index] = domain.Select(option)
	return nil
}

// Submit grades the current quiz and saves the attempt under userID. When selections is
// nil the choices recorded with Select are graded. A failed save does not
// fail the submission; it is reported in the result's Warning.
func (s *quizService) Submit(ctx context.Context, sess *Session, userID, quizID string, selections []domain.Selection) (*SubmitResult, error) {
	l := logger.Get()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	quiz, err := currentQuiz(sess, quizID)
	if err != nil {
		return nil, err
	}
	if selections != nil {
		if len(selections) > len(quiz.Questions) {
			return nil, domain.NewInvalidInputError(
				fmt.Sprintf("got %d selections for %d questions", len(selections), len(quiz.Questions)))
		}
		for i, sel := range selections {
			if sel.Made && !hasOption(quiz.Questions[i].Options, sel.Option) {
				l.Debug("Selection is not one of the options", zap.Int("question", i), zap.String("option", sel.Option))
			}
		}
		stored := make([]domain.Selection, len(quiz.Questions))
		copy(stored, selections)
		sess.selections = stored
	}

	result := &SubmitResult{GradeResult: Grade(quiz, sess.selections)}
	l.Info("Quiz submitted",
		zap.String("sessionID", sess.ID),
		zap.String("quizID", quiz.ID),
		zap.String("userID", userID),
		zap.Int("score", result.Score),
		zap.Int("total", result.Total),
	)

	// Anonymous submissions are graded but not saved.
	if s.attempts == nil || userID == "" {
		return result, nil
	}

	attempt := &domain.QuizAttempt{
		ID:             util.NewULID(),
		UserID:         userID,
		ResourceID:     sess.resourceID,
		ResourceTitle:  sess.resource,
		Score:          result.Score,
		TotalQuestions: result.Total,
		AttemptedAt:    time.Now(),
	}
	if err := s.attempts.SaveScore(ctx, attempt); err != nil {
		l.Error("Failed to save quiz attempt", zap.Error(err), zap.String("userID", userID), zap.String("quizID", quiz.ID))
		result.Warning = fmt.Sprintf("score could not be saved: %v", err)
		return result, nil
	}
	result.AttemptID = attempt.ID
	result.Saved = true
	return result, nil
}

// currentQuiz returns the session's quiz if quizID names it.
func currentQuiz(sess *Session, quizID string) (*domain.Quiz, error) {
	if sess.quiz == nil {
		if sess.index == nil {
			return nil, domain.NewNoResourceError()
		}
		return nil, domain.NewNoQuizError()
	}
	if quizID != sess.quiz.ID {
		return nil, domain.NewQuizStaleError(quizID)
	}
	return sess.quiz, nil
}

func hasOption(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
