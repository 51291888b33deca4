package models

import "time"

// Subject represents an academic subject in a school's catalog.
type Subject struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	IsCompulsory bool      `db:"is_compulsory" json:"is_compulsory"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
