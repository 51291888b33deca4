package models

import "time"

// Senior grade range eligible for timetable generation.
const (
	SeniorGradeMin = 10
	SeniorGradeMax = 12
)

// Class represents a class section within a school.
type Class struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	Name       string    `db:"name" json:"name"`
	GradeLevel int       `db:"grade_level" json:"grade_level"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// IsSenior reports whether the class takes part in senior timetable generation.
func (c Class) IsSenior() bool {
	return c.IsActive && c.GradeLevel >= SeniorGradeMin && c.GradeLevel <= SeniorGradeMax
}

// ClassSubject represents the mapping between a class and a subject.
type ClassSubject struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
