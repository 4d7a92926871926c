package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/repository/models"
	"quiz-rag/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxResourceRepository implements domain.ResourceRepository using sqlx.
type sqlxResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new instance of sqlxResourceRepository.
func NewResourceRepository(db *sqlx.DB) domain.ResourceRepository {
	return &sqlxResourceRepository{db: db}
}

func fromDomainResource(r *domain.Resource) *models.Resource {
	return &models.Resource{
		ResourceID: r.ID,
		Title:      r.Title,
		SourceType: string(r.SourceType),
		CreatedAt:  r.CreatedAt,
	}
}

// Create inserts the resource, assigning an id and timestamp when missing.
func (r *sqlxResourceRepository) Create(ctx context.Context, resource *domain.Resource) error {
	if resource.ID == "" {
		resource.ID = util.NewULID()
	}
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now()
	}
	m := fromDomainResource(resource)

	query := r.db.Rebind(`INSERT INTO resources (resource_id, title, source_type, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, m.ResourceID, m.Title, m.SourceType, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

// FindIDByTitle returns the id of the oldest resource with the title, or ""
// when there is none.
func (r *sqlxResourceRepository) FindIDByTitle(ctx context.Context, title string) (string, error) {
	var id string
	query := r.db.Rebind(`SELECT resource_id FROM resources WHERE title = ? ORDER BY created_at LIMIT 1`)
	err := GetExecutor(ctx, r.db).GetContext(ctx, &id, query, title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to find resource by title: %w", err)
	}
	return id, nil
}
