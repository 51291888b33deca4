package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type slotDayReader interface {
	ListByTeacherDay(ctx context.Context, exec sqlx.ExtContext, termID, teacherID string, day int) ([]models.TimetableSlot, error)
	ListByClassDay(ctx context.Context, exec sqlx.ExtContext, termID, classID string, day int) ([]models.TimetableSlot, error)
}

// SlotConflictChecker validates a single slot against persisted slots of the same term.
type SlotConflictChecker struct {
	slots slotDayReader
}

// NewSlotConflictChecker constructs the checker.
func NewSlotConflictChecker(slots slotDayReader) *SlotConflictChecker {
	return &SlotConflictChecker{slots: slots}
}

// Check rejects the candidate when it overlaps the teacher's or the class's slots on the same
// day. The teacher is checked first. ignoreID excludes the candidate's own row on update.
func (c *SlotConflictChecker) Check(ctx context.Context, exec sqlx.ExtContext, candidate models.TimetableSlot, ignoreID string) error {
	teacherSlots, err := c.slots.ListByTeacherDay(ctx, exec, candidate.TermID, candidate.TeacherID, candidate.DayOfWeek)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher schedule")
	}
	if hit := firstOverlap(teacherSlots, candidate, ignoreID); hit != nil {
		return conflictError(appErrors.ErrTeacherConflict, models.ConflictDimensionTeacher, *hit)
	}

	classSlots, err := c.slots.ListByClassDay(ctx, exec, candidate.TermID, candidate.ClassID, candidate.DayOfWeek)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class schedule")
	}
	if hit := firstOverlap(classSlots, candidate, ignoreID); hit != nil {
		return conflictError(appErrors.ErrClassConflict, models.ConflictDimensionClass, *hit)
	}
	return nil
}

// overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect. Zero padded HH:MM
// strings compare in time order.
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

func firstOverlap(existing []models.TimetableSlot, candidate models.TimetableSlot, ignoreID string) *models.TimetableSlot {
	for i := range existing {
		slot := existing[i]
		if ignoreID != "" && slot.ID == ignoreID {
			continue
		}
		if slot.DayOfWeek != candidate.DayOfWeek {
			continue
		}
		if overlaps(slot.StartTime, slot.EndTime, candidate.StartTime, candidate.EndTime) {
			return &slot
		}
	}
	return nil
}

func conflictError(template *appErrors.Error, dimension string, hit models.TimetableSlot) error {
	message := fmt.Sprintf("%s (%s-%s on day %d)", template.Message, hit.StartTime, hit.EndTime, hit.DayOfWeek)
	return appErrors.WithDetails(template, message, models.SlotConflict{
		SlotID:    hit.ID,
		ClassID:   hit.ClassID,
		TeacherID: hit.TeacherID,
		DayOfWeek: hit.DayOfWeek,
		StartTime: hit.StartTime,
		EndTime:   hit.EndTime,
		Dimension: dimension,
	})
}
