package domain

import (
	"context"
	"time"
)

// Resource is a learning resource a quiz was generated from.
type Resource struct {
	ID         string
	Title      string
	SourceType SourceType
	CreatedAt  time.Time
}

// QuizAttempt is one graded submission. ResourceID may be empty, in which
// case the resource is looked up by ResourceTitle via FindIDByTitle.
type QuizAttempt struct {
	ID             string
	UserID         string
	ResourceID     string
	ResourceTitle  string
	Score          int
	TotalQuestions int
	AttemptedAt    time.Time
}

// ResourceRepository stores learning resources.
type ResourceRepository interface {
	Create(ctx context.Context, resource *Resource) error
	// FindIDByTitle returns "" and no error when no resource has the title.
	FindIDByTitle(ctx context.Context, title string) (string, error)
}

// AttemptRepository stores quiz attempts.
type AttemptRepository interface {
	SaveScore(ctx context.Context, attempt *QuizAttempt) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*QuizAttempt, error)
}
