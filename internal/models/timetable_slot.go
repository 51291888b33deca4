package models

import (
	"errors"
	"time"
)

// ErrInvalidSlotReference reports a slot write whose term, teacher, class or
// subject id is malformed or points at no row.
var ErrInvalidSlotReference = errors.New("timetable slot references an unknown record")

// TimetableSlot is one teaching period for a class on a weekday within a term.
// StartTime and EndTime are zero padded "HH:MM" values.
type TimetableSlot struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Room      *string   `db:"room" json:"room,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableSlotFilter describes query params for listing slots.
type TimetableSlotFilter struct {
	TermID    string
	ClassID   string
	TeacherID string
	DayOfWeek int
	Page      int
	PageSize  int
}

// SlotConflict describes a persisted slot that collides with a candidate.
type SlotConflict struct {
	SlotID    string `json:"slot_id"`
	ClassID   string `json:"class_id"`
	TeacherID string `json:"teacher_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Dimension string `json:"dimension"`
}

// Conflict dimensions reported by the manual slot checker.
const (
	ConflictDimensionTeacher = "TEACHER"
	ConflictDimensionClass   = "CLASS"
)
