package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const subjectColumns = "id, school_id, code, name, is_compulsory, created_at, updated_at"

// SubjectRepository reads the subject catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByCodes returns the school's subjects whose code is in codes.
func (r *SubjectRepository) FindByCodes(ctx context.Context, exec sqlx.ExtContext, schoolID string, codes []string) ([]models.Subject, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE school_id = $1 AND code = ANY($2) ORDER BY code ASC", subjectColumns)
	var subjects []models.Subject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &subjects, query, schoolID, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("find subjects by code: %w", err)
	}
	return subjects, nil
}

// FindByIDs returns the school's subjects whose id is in ids.
func (r *SubjectRepository) FindByIDs(ctx context.Context, exec sqlx.ExtContext, schoolID string, ids []string) ([]models.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE school_id = $1 AND id = ANY($2) ORDER BY code ASC", subjectColumns)
	var subjects []models.Subject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &subjects, query, schoolID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find subjects by id: %w", err)
	}
	return subjects, nil
}
