package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeacherAssignmentRepository reads teacher-class-subject bindings per term.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

func (r *TeacherAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByTerm returns the term's assignments oldest first, so callers can apply first-match-wins.
func (r *TeacherAssignmentRepository) ListByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) ([]models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_id, class_id, subject_id, term_id, created_at
FROM teacher_assignments WHERE term_id = $1 ORDER BY created_at ASC, id ASC`
	var assignments []models.TeacherAssignment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &assignments, query, termID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}
