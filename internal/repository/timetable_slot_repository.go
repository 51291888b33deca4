package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const slotColumns = "id, term_id, teacher_id, class_id, subject_id, day_of_week, start_time, end_time, room, created_at, updated_at"

// TimetableSlotRepository persists timetable slots.
type TimetableSlotRepository struct {
	db *sqlx.DB
}

// NewTimetableSlotRepository builds repository.
func NewTimetableSlotRepository(db *sqlx.DB) *TimetableSlotRepository {
	return &TimetableSlotRepository{db: db}
}

func (r *TimetableSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// AcquireTermLock takes a transaction scoped advisory lock on key. exec must be a transaction.
func (r *TimetableSlotRepository) AcquireTermLock(ctx context.Context, exec sqlx.ExtContext, key string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("acquire timetable lock: %w", err)
	}
	return nil
}

// UpsertBatch inserts slots keyed by the natural key; a colliding key overwrites end time and room.
func (r *TimetableSlotRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_slots (id, term_id, teacher_id, class_id, subject_id, day_of_week, start_time, end_time, room, created_at, updated_at)
VALUES (:id, :term_id, :teacher_id, :class_id, :subject_id, :day_of_week, :start_time, :end_time, :room, :created_at, :updated_at)
ON CONFLICT ON CONSTRAINT timetable_slots_natural_key DO UPDATE
SET end_time = EXCLUDED.end_time,
    room = EXCLUDED.room,
    updated_at = EXCLUDED.updated_at`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		slot.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("upsert timetable slot: %w", err)
		}
	}
	return nil
}

// DeleteByTermClasses removes every slot of the term that belongs to one of classIDs.
func (r *TimetableSlotRepository) DeleteByTermClasses(ctx context.Context, exec sqlx.ExtContext, termID string, classIDs []string) (int64, error) {
	if len(classIDs) == 0 {
		return 0, nil
	}
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM timetable_slots WHERE term_id = $1 AND class_id = ANY($2)`, termID, pq.Array(classIDs))
	if err != nil {
		return 0, fmt.Errorf("delete timetable slots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted timetable slots: %w", err)
	}
	return affected, nil
}

// FindByID loads a slot. Missing rows surface as sql.ErrNoRows.
func (r *TimetableSlotRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableSlot, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	query := fmt.Sprintf("SELECT %s FROM timetable_slots WHERE id = $1", slotColumns)
	var slot models.TimetableSlot
	if err := sqlx.GetContext(ctx, r.exec(exec), &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListByTeacherDay returns the teacher's slots on one day of the term.
func (r *TimetableSlotRepository) ListByTeacherDay(ctx context.Context, exec sqlx.ExtContext, termID, teacherID string, day int) ([]models.TimetableSlot, error) {
	if !isUUID(termID) || !isUUID(teacherID) {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots
WHERE term_id = $1 AND teacher_id = $2 AND day_of_week = $3 ORDER BY start_time ASC`, slotColumns)
	var slots []models.TimetableSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, termID, teacherID, day); err != nil {
		return nil, fmt.Errorf("list teacher day slots: %w", err)
	}
	return slots, nil
}

// slotWriteError maps malformed uuid input and foreign key violations to
// models.ErrInvalidSlotReference.
func slotWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "22P02", "23503":
			return fmt.Errorf("%w: %s", models.ErrInvalidSlotReference, pqErr.Message)
		}
	}
	return err
}

// isUUID reports whether id can be compared with a uuid column without Postgres rejecting it.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ListByClassDay returns the class's slots on one day of the term.
func (r *TimetableSlotRepository) ListByClassDay(ctx context.Context, exec sqlx.ExtContext, termID, classID string, day int) ([]models.TimetableSlot, error) {
	if !isUUID(termID) || !isUUID(classID) {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots
WHERE term_id = $1 AND class_id = $2 AND day_of_week = $3 ORDER BY start_time ASC`, slotColumns)
	var slots []models.TimetableSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, termID, classID, day); err != nil {
		return nil, fmt.Errorf("list class day slots: %w", err)
	}
	return slots, nil
}

// Create inserts a single slot.
func (r *TimetableSlotRepository) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	const query = `INSERT INTO timetable_slots (id, term_id, teacher_id, class_id, subject_id, day_of_week, start_time, end_time, room, created_at, updated_at)
VALUES (:id, :term_id, :teacher_id, :class_id, :subject_id, :day_of_week, :start_time, :end_time, :room, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot); err != nil {
		return fmt.Errorf("create timetable slot: %w", slotWriteError(err))
	}
	return nil
}

// Update replaces every mutable column of the slot.
func (r *TimetableSlotRepository) Update(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_slots
SET teacher_id = :teacher_id, class_id = :class_id, subject_id = :subject_id, day_of_week = :day_of_week,
    start_time = :start_time, end_time = :end_time, room = :room, updated_at = :updated_at
WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slot)
	if err != nil {
		return fmt.Errorf("update timetable slot: %w", slotWriteError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated timetable slot rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a slot by id.
func (r *TimetableSlotRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted timetable slot rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns a page of slots matching filter plus the total count. A filter
// id that is not a UUID matches nothing.
func (r *TimetableSlotRepository) List(ctx context.Context, filter models.TimetableSlotFilter) ([]models.TimetableSlot, int, error) {
	for _, id := range []string{filter.TermID, filter.ClassID, filter.TeacherID} {
		if id != "" && !isUUID(id) {
			return []models.TimetableSlot{}, 0, nil
		}
	}
	base := "FROM timetable_slots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.DayOfWeek > 0 {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week ASC, start_time ASC, class_id ASC LIMIT %d OFFSET %d", slotColumns, base, size, offset)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable slots: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable slots: %w", err)
	}
	return slots, total, nil
}

// ListByClass returns every slot of a class in the term ordered by day and start time.
// Ids that are not UUIDs match nothing.
func (r *TimetableSlotRepository) ListByClass(ctx context.Context, termID, classID string) ([]models.TimetableSlot, error) {
	if !isUUID(termID) || !isUUID(classID) {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots
WHERE term_id = $1 AND class_id = $2 ORDER BY day_of_week ASC, start_time ASC`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, termID, classID); err != nil {
		return nil, fmt.Errorf("list class timetable: %w", err)
	}
	return slots, nil
}

// ListByTeacher returns every slot of a teacher in the term ordered by day and start time.
func (r *TimetableSlotRepository) ListByTeacher(ctx context.Context, termID, teacherID string) ([]models.TimetableSlot, error) {
	if !isUUID(termID) || !isUUID(teacherID) {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots
WHERE term_id = $1 AND teacher_id = $2 ORDER BY day_of_week ASC, start_time ASC`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, termID, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher timetable: %w", err)
	}
	return slots, nil
}
