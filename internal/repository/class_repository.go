package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const classColumns = "id, school_id, name, grade_level, is_active, created_at, updated_at"

// ClassRepository reads class sections.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListActiveSenior returns the school's active grade 10-12 classes in a stable order.
func (r *ClassRepository) ListActiveSenior(ctx context.Context, exec sqlx.ExtContext, schoolID string) ([]models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes
WHERE school_id = $1 AND is_active = TRUE AND grade_level BETWEEN $2 AND $3
ORDER BY grade_level ASC, name ASC, id ASC`, classColumns)
	var classes []models.Class
	if err := sqlx.SelectContext(ctx, r.exec(exec), &classes, query, schoolID, models.SeniorGradeMin, models.SeniorGradeMax); err != nil {
		return nil, fmt.Errorf("list senior classes: %w", err)
	}
	return classes, nil
}

// FindByID fetches a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}
