package repository

import (
	"context"
	"fmt"
	"time"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/repository/models"
	"quiz-rag/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const maxAttemptsPerPage = 200

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db        *sqlx.DB
	tm        *TransactionManager
	resources *sqlxResourceRepository
}

// NewAttemptRepository creates a new instance of sqlxAttemptRepository.
func NewAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{
		db:        db,
		tm:        NewTransactionManager(db),
		resources: &sqlxResourceRepository{db: db},
	}
}

func toDomainAttempt(m *models.QuizAttempt) *domain.QuizAttempt {
	if m == nil {
		return nil
	}
	return &domain.QuizAttempt{
		ID:             m.AttemptID,
		UserID:         m.UserID,
		ResourceID:     m.ResourceID.String,
		ResourceTitle:  m.ResourceTitle.String,
		Score:          m.Score,
		TotalQuestions: m.TotalQuestions,
		AttemptedAt:    m.AttemptedAt,
	}
}

// SaveScore records the user, when new, and the attempt in one transaction.
// Without a ResourceID the resource is resolved by title through the resource
// repository; an unknown title stores a NULL resource.
func (r *sqlxAttemptRepository) SaveScore(ctx context.Context, attempt *domain.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = util.NewULID()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now()
	}

	return r.tm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, r.db)

		userQuery := exec.Rebind(`INSERT INTO users (user_id, username) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`)
		if _, err := exec.ExecContext(ctx, userQuery, attempt.UserID, attempt.UserID); err != nil {
			return fmt.Errorf("failed to register user: %w", err)
		}

		resourceID := attempt.ResourceID
		if resourceID == "" {
			id, err := r.resources.FindIDByTitle(ctx, attempt.ResourceTitle)
			if err != nil {
				return err
			}
			if id == "" {
				logger.Get().Warn("No resource matches the attempt title, saving without resource",
					zap.String("title", attempt.ResourceTitle),
					zap.String("attemptID", attempt.ID),
				)
			}
			resourceID = id
		}

		query := exec.Rebind(`INSERT INTO quiz_attempts (attempt_id, user_id, resource_id, score, total_questions, attempted_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if _, err := exec.ExecContext(ctx, query,
			attempt.ID,
			attempt.UserID,
			util.StringToNullString(resourceID),
			attempt.Score,
			attempt.TotalQuestions,
			attempt.AttemptedAt,
		); err != nil {
			return fmt.Errorf("failed to save quiz attempt: %w", err)
		}
		return nil
	})
}

// ListByUser returns up to limit attempts of the user, newest first.
func (r *sqlxAttemptRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.QuizAttempt, error) {
	if limit <= 0 || limit > maxAttemptsPerPage {
		limit = maxAttemptsPerPage
	}

	query := r.db.Rebind(`SELECT a.attempt_id, a.user_id, a.resource_id, r.title AS resource_title,
			a.score, a.total_questions, a.attempted_at
		FROM quiz_attempts a
		LEFT JOIN resources r ON r.resource_id = a.resource_id
		WHERE a.user_id = ?
		ORDER BY a.attempted_at DESC, a.attempt_id DESC
		LIMIT ?`)

	var rows []models.QuizAttempt
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts: %w", err)
	}

	attempts := make([]*domain.QuizAttempt, 0, len(rows))
	for i := range rows {
		attempts = append(attempts, toDomainAttempt(&rows[i]))
	}
	return attempts, nil
}
