package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const termColumns = "id, school_id, academic_year, term_number, is_current, start_date, end_date, created_at, updated_at"

// TermRepository handles persistence for academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID loads a term by identifier. Missing rows and ids that are not
// UUIDs surface as sql.ErrNoRows.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindCurrent returns the school's current term, the latest starting one if
// several are flagged. A school without one yields sql.ErrNoRows.
func (r *TermRepository) FindCurrent(ctx context.Context, schoolID string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE school_id = $1 AND is_current = TRUE ORDER BY start_date DESC LIMIT 1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, schoolID); err != nil {
		return nil, err
	}
	return &term, nil
}
