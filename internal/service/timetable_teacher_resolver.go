package service

import (
	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type classSubjectKey struct {
	ClassID   string
	SubjectID string
}

// teacherResolver picks the teacher for a (class, subject) pair: the term assignment first,
// then the per-subject fallback.
type teacherResolver struct {
	assigned map[classSubjectKey]string
	fallback dto.FallbackTeachers
}

// newTeacherResolver indexes assignments keeping the first entry for each pair.
func newTeacherResolver(assignments []models.TeacherAssignment, fallback dto.FallbackTeachers) *teacherResolver {
	assigned := make(map[classSubjectKey]string, len(assignments))
	for _, item := range assignments {
		if item.TeacherID == "" {
			continue
		}
		key := classSubjectKey{ClassID: item.ClassID, SubjectID: item.SubjectID}
		if _, exists := assigned[key]; exists {
			continue
		}
		assigned[key] = item.TeacherID
	}
	return &teacherResolver{assigned: assigned, fallback: fallback}
}

// Resolve returns the teacher for the pair, or false when nobody can teach it.
func (r *teacherResolver) Resolve(classID, subjectID string) (string, bool) {
	if teacherID, ok := r.assigned[classSubjectKey{ClassID: classID, SubjectID: subjectID}]; ok {
		return teacherID, true
	}
	return r.fallback.Lookup(subjectID)
}
