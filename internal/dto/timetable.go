package dto

// Day templates accepted by the grid builder.
const (
	TemplateContinuous = "continuous"
	TemplateKenyaFixed = "kenya_fixed"
)

// Subject scope policies accepted by the generator.
const (
	ScopeCore     = "core"
	ScopeFull     = "full"
	ScopeAssigned = "assigned"
)

// Regeneration policies for persisted slots left over from earlier runs.
const (
	RegenerationUpsert  = "upsert"
	RegenerationReplace = "replace"
)

// GridConfig describes how a single teaching day is split into periods.
type GridConfig struct {
	Template      string `json:"template" validate:"required,oneof=continuous kenya_fixed"`
	StartTime     string `json:"startTime"`
	PeriodsPerDay int    `json:"periodsPerDay"`
	PeriodMinutes int    `json:"periodMinutes" validate:"required"`
}

// ScopeConfig selects which subjects each senior class must be scheduled for.
type ScopeConfig struct {
	Mode               string   `json:"mode" validate:"required,oneof=core full assigned"`
	ElectiveSubjectIDs []string `json:"electiveSubjectIds" validate:"omitempty,dive,required"`
}

// FallbackTeachers maps a subject id to the teacher used when no term assignment exists.
type FallbackTeachers map[string]string

// Lookup returns the fallback teacher for the subject, if any.
func (f FallbackTeachers) Lookup(subjectID string) (string, bool) {
	if f == nil {
		return "", false
	}
	teacherID, ok := f[subjectID]
	if !ok || teacherID == "" {
		return "", false
	}
	return teacherID, true
}

// BuildTimetableRequest instructs the generator to build the weekly timetable for a term.
type BuildTimetableRequest struct {
	TermID                   string           `json:"termId" validate:"required"`
	Grid                     GridConfig       `json:"grid"`
	Scope                    ScopeConfig      `json:"scope"`
	MaxPeriodsPerTeacherWeek int              `json:"maxPeriodsPerTeacherWeek" validate:"omitempty,min=1,max=60"`
	FallbackTeachers         FallbackTeachers `json:"fallbackTeachers"`
	Regeneration             string           `json:"regeneration" validate:"omitempty,oneof=upsert replace"`
}

// GenerationResult summarises one generation run.
type GenerationResult struct {
	TermID                string `json:"termId"`
	Created               int    `json:"created"`
	SkippedMissingTeacher int    `json:"skippedMissingTeacher"`
	SkippedConflict       int    `json:"skippedConflict"`
	SkippedWorkloadCap    int    `json:"skippedWorkloadCap"`
	Replaced              int    `json:"replaced,omitempty"`
	Message               string `json:"message,omitempty"`
}

// TimeSlotRange is one period of a teaching day.
type TimeSlotRange struct {
	Period    int    `json:"period"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// CreateSlotRequest creates a single timetable slot.
type CreateSlotRequest struct {
	TermID    string  `json:"termId" validate:"required"`
	TeacherID string  `json:"teacherId" validate:"required"`
	ClassID   string  `json:"classId" validate:"required"`
	SubjectID string  `json:"subjectId" validate:"required"`
	DayOfWeek int     `json:"dayOfWeek" validate:"required,min=1,max=5"`
	StartTime string  `json:"startTime" validate:"required"`
	EndTime   string  `json:"endTime" validate:"required"`
	Room      *string `json:"room"`
}

// UpdateSlotRequest changes selected fields of a slot. Nil fields keep their prior value.
type UpdateSlotRequest struct {
	TeacherID *string `json:"teacherId" validate:"omitempty,min=1"`
	ClassID   *string `json:"classId" validate:"omitempty,min=1"`
	SubjectID *string `json:"subjectId" validate:"omitempty,min=1"`
	DayOfWeek *int    `json:"dayOfWeek" validate:"omitempty,min=1,max=5"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Room      *string `json:"room"`
}

// SlotQuery filters slot listings.
type SlotQuery struct {
	TermID    string `form:"termId"`
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
	DayOfWeek int    `form:"dayOfWeek" validate:"omitempty,min=1,max=5"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// WeeklyTimetable is a class or teacher view of a term's slots grouped by day.
type WeeklyTimetable struct {
	TermID  string                       `json:"termId"`
	OwnerID string                       `json:"ownerId"`
	Kind    string                       `json:"kind"`
	Days    map[int][]WeeklyTimetableRow `json:"days"`
	Total   int                          `json:"total"`
}

// WeeklyTimetableRow is one entry of a weekly view.
type WeeklyTimetableRow struct {
	SlotID    string  `json:"slotId"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	ClassID   string  `json:"classId"`
	SubjectID string  `json:"subjectId"`
	TeacherID string  `json:"teacherId"`
	Room      *string `json:"room,omitempty"`
}
