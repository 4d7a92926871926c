package models

import (
	"database/sql"
	"time"
)

// Resource is a row of the resources table.
type Resource struct {
	ResourceID string    `db:"resource_id"`
	Title      string    `db:"title"`
	SourceType string    `db:"source_type"`
	CreatedAt  time.Time `db:"created_at"`
}

// QuizAttempt is a row of quiz_attempts joined with the resource title.
type QuizAttempt struct {
	AttemptID      string         `db:"attempt_id"`
	UserID         string         `db:"user_id"`
	ResourceID     sql.NullString `db:"resource_id"` // NULL when the resource was never registered
	ResourceTitle  sql.NullString `db:"resource_title"`
	Score          int            `db:"score"`
	TotalQuestions int            `db:"total_questions"`
	AttemptedAt    time.Time      `db:"attempted_at"`
}
