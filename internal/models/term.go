package models

import "time"

// Term models an academic term owned by one school.
type Term struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	AcademicYear int       `db:"academic_year" json:"academic_year"`
	TermNumber   int       `db:"term_number" json:"term_number"`
	IsCurrent    bool      `db:"is_current" json:"is_current"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// OwnedBy reports whether the term belongs to the given school.
func (t *Term) OwnedBy(schoolID string) bool {
	return t != nil && schoolID != "" && t.SchoolID == schoolID
}
