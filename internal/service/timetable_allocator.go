package service

import (
	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeachingDays is the number of weekdays generation fills, Monday (1) to Friday (5).
const TeachingDays = 5

type teacherLookup interface {
	Resolve(classID, subjectID string) (string, bool)
}

type allocationInput struct {
	TermID               string
	Grid                 []dto.TimeSlotRange
	Classes              []models.Class
	Subjects             map[string][]string
	Teachers             teacherLookup
	MaxPeriodsPerTeacher int
}

type allocationResult struct {
	Slots                 []models.TimetableSlot
	SkippedMissingTeacher int
	SkippedConflict       int
	SkippedWorkloadCap    int
}

// occupancyKey identifies a period within the week.
type occupancyKey struct {
	Day   int
	Start string
}

type occupancy map[string]map[occupancyKey]struct{}

func (o occupancy) taken(owner string, key occupancyKey) bool {
	_, ok := o[owner][key]
	return ok
}

func (o occupancy) mark(owner string, key occupancyKey) {
	if o[owner] == nil {
		o[owner] = make(map[occupancyKey]struct{})
	}
	o[owner][key] = struct{}{}
}

// allocateTimetable walks classes x days x periods in order and assigns subjects round-robin.
// Candidates without a teacher, over the teacher's weekly cap, or colliding with a slot placed
// earlier in the same walk are counted and skipped. The walk must stay sequential because each
// decision depends on the occupancy recorded by the previous ones. It does not look at persisted
// slots and makes no attempt to minimise gaps or balance load below the cap.
func allocateTimetable(in allocationInput) allocationResult {
	var result allocationResult
	periodCount := len(in.Grid)
	if periodCount == 0 {
		return result
	}

	teacherBusy := occupancy{}
	classBusy := occupancy{}
	load := make(map[string]int)

	for _, class := range in.Classes {
		subjects := in.Subjects[class.ID]
		if len(subjects) == 0 {
			continue
		}
		for dayIndex := 0; dayIndex < TeachingDays; dayIndex++ {
			day := dayIndex + 1
			for p, period := range in.Grid {
				subjectID := subjects[(dayIndex*periodCount+p)%len(subjects)]

				teacherID, ok := in.Teachers.Resolve(class.ID, subjectID)
				if !ok {
					result.SkippedMissingTeacher++
					continue
				}
				if load[teacherID] >= in.MaxPeriodsPerTeacher {
					result.SkippedWorkloadCap++
					continue
				}
				key := occupancyKey{Day: day, Start: period.StartTime}
				if teacherBusy.taken(teacherID, key) || classBusy.taken(class.ID, key) {
					result.SkippedConflict++
					continue
				}

				result.Slots = append(result.Slots, models.TimetableSlot{
					TermID:    in.TermID,
					TeacherID: teacherID,
					ClassID:   class.ID,
					SubjectID: subjectID,
					DayOfWeek: day,
					StartTime: period.StartTime,
					EndTime:   period.EndTime,
				})
				teacherBusy.mark(teacherID, key)
				classBusy.mark(class.ID, key)
				load[teacherID]++
			}
		}
	}
	return result
}
