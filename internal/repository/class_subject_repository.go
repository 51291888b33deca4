package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ClassSubjectRepository manages class-subject mappings.
type ClassSubjectRepository struct {
	db *sqlx.DB
}

// NewClassSubjectRepository creates a new repository.
func NewClassSubjectRepository(db *sqlx.DB) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: db}
}

func (r *ClassSubjectRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByClasses returns the subject mappings of every class in classIDs.
func (r *ClassSubjectRepository) ListByClasses(ctx context.Context, exec sqlx.ExtContext, classIDs []string) ([]models.ClassSubject, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, class_id, subject_id, created_at FROM class_subjects
WHERE class_id = ANY($1) ORDER BY class_id ASC, created_at ASC, id ASC`
	var mappings []models.ClassSubject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &mappings, query, pq.Array(classIDs)); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return mappings, nil
}

// UpsertBatch inserts mappings, leaving existing (class, subject) pairs untouched.
func (r *ClassSubjectRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, mappings []models.ClassSubject) error {
	if len(mappings) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO class_subjects (id, class_id, subject_id, created_at)
VALUES (:id, :class_id, :subject_id, :created_at)
ON CONFLICT (class_id, subject_id) DO NOTHING`

	for i := range mappings {
		mapping := &mappings[i]
		if mapping.ID == "" {
			mapping.ID = uuid.NewString()
		}
		if mapping.CreatedAt.IsZero() {
			mapping.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, mapping); err != nil {
			return fmt.Errorf("upsert class subject: %w", err)
		}
	}
	return nil
}
