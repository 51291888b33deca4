package models

import "time"

// Audit actions emitted by the timetable engine.
const (
	AuditActionTimetableGenerate = "TIMETABLE_GENERATE"
	AuditActionSlotCreate        = "TIMETABLE_SLOT_CREATE"
	AuditActionSlotUpdate        = "TIMETABLE_SLOT_UPDATE"
	AuditActionSlotDelete        = "TIMETABLE_SLOT_DELETE"
)

// AuditEvent is the structured message handed to the audit collaborator.
type AuditEvent struct {
	UserID     string
	SchoolID   string
	Action     string
	Resource   string
	ResourceID string
	Payload    map[string]interface{}
	OccurredAt time.Time
}

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	SchoolID   *string   `db:"school_id" json:"school_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
