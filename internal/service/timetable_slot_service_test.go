package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type slotFixture struct {
	service *TimetableSlotService
	slots   *memorySlotStore
	audit   *recordingAudit
	cache   *memoryCacheRepo
	metrics *MetricsService
}

func newSlotFixture(t *testing.T, tx txProvider, seeded ...models.TimetableSlot) *slotFixture {
	t.Helper()
	store := seededSlotStore(seeded...)
	audit := &recordingAudit{}
	cacheRepo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	terms := newTermStore(
		models.Term{ID: "term-1", SchoolID: "school-1", IsCurrent: true},
		models.Term{ID: "term-foreign", SchoolID: "school-2"},
	)
	svc := NewTimetableSlotService(terms, store, tx, audit, metrics,
		NewCacheService(cacheRepo, metrics, time.Minute, zap.NewNop(), true), nil, zap.NewNop())
	return &slotFixture{service: svc, slots: store, audit: audit, cache: cacheRepo, metrics: metrics}
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func mondayEnglish() models.TimetableSlot {
	return models.TimetableSlot{
		TermID: "term-1", TeacherID: "teacher-1", ClassID: "class-a", SubjectID: "eng-id",
		DayOfWeek: 1, StartTime: "08:00", EndTime: "08:40",
	}
}

func TestTimetableSlotServiceCreate(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx)
	require.NoError(t, fixture.cache.Set(context.Background(), TeacherViewKey("term-1", "teacher-1"), dto.WeeklyTimetable{}, time.Minute))

	mock.ExpectBegin()
	mock.ExpectCommit()

	slot, err := fixture.service.Create(context.Background(), adminActor("school-1"), dto.CreateSlotRequest{
		TermID: "term-1", TeacherID: "teacher-1", ClassID: "class-a", SubjectID: "eng-id",
		DayOfWeek: 1, StartTime: "08:00", EndTime: "08:40", Room: strPtr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "slot-1", slot.ID)
	assert.Nil(t, slot.Room, "blank rooms are stored as null")
	assert.Equal(t, []string{"timetable:school-1:term-1"}, fixture.slots.lockKeys)
	assert.Equal(t, []string{models.AuditActionSlotCreate}, fixture.audit.actions())
	assert.False(t, fixture.cache.has(TeacherViewKey("term-1", "teacher-1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceCreateRejectsTeacherDoubleBooking(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx, mondayEnglish())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := fixture.service.Create(context.Background(), adminActor("school-1"), dto.CreateSlotRequest{
		TermID: "term-1", TeacherID: "teacher-1", ClassID: "class-b", SubjectID: "eng-id",
		DayOfWeek: 1, StartTime: "08:20", EndTime: "09:00",
	})
	appErr := requireAppErrorCode(t, err, appErrors.ErrTeacherConflict.Code)
	assert.Equal(t, 409, appErr.Status)
	assert.Equal(t, 1, fixture.slots.count())
	assert.Empty(t, fixture.audit.actions())
	assert.Equal(t, 1.0, counterValue(t, fixture.metrics, "timetable_slot_conflicts_total", models.ConflictDimensionTeacher))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceCreateRejectsClassDoubleBooking(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx, mondayEnglish())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := fixture.service.Create(context.Background(), adminActor("school-1"), dto.CreateSlotRequest{
		TermID: "term-1", TeacherID: "teacher-2", ClassID: "class-a", SubjectID: "mat-id",
		DayOfWeek: 1, StartTime: "08:00", EndTime: "08:40",
	})
	requireAppErrorCode(t, err, appErrors.ErrClassConflict.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceCreateAllowsAdjacentPeriod(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx, mondayEnglish())

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := fixture.service.Create(context.Background(), adminActor("school-1"), dto.CreateSlotRequest{
		TermID: "term-1", TeacherID: "teacher-1", ClassID: "class-a", SubjectID: "mat-id",
		DayOfWeek: 1, StartTime: "08:40", EndTime: "09:20",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, fixture.slots.count())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceCreateValidatesInput(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx)

	base := dto.CreateSlotRequest{
		TermID: "term-1", TeacherID: "teacher-1", ClassID: "class-a", SubjectID: "eng-id",
		DayOfWeek: 1, StartTime: "08:00", EndTime: "08:40",
	}
	cases := map[string]func(req *dto.CreateSlotRequest){
		"saturday":       func(req *dto.CreateSlotRequest) { req.DayOfWeek = 6 },
		"reversed range": func(req *dto.CreateSlotRequest) { req.StartTime, req.EndTime = "09:00", "08:00" },
		"empty range":    func(req *dto.CreateSlotRequest) { req.EndTime = "08:00" },
		"bad clock":      func(req *dto.CreateSlotRequest) { req.StartTime = "8am" },
		"missing class":  func(req *dto.CreateSlotRequest) { req.ClassID = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := base
			mutate(&req)
			_, err := fixture.service.Create(context.Background(), adminActor("school-1"), req)
			requireAppErrorCode(t, err, appErrors.ErrValidation.Code)
		})
	}

	req := base
	req.TermID = "term-foreign"
	_, err := fixture.service.Create(context.Background(), adminActor("school-1"), req)
	requireAppErrorCode(t, err, appErrors.ErrForbidden.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceUpdateShrinksOwnRange(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	long := mondayEnglish()
	long.EndTime = "09:20"
	fixture := newSlotFixture(t, tx, long)

	mock.ExpectBegin()
	mock.ExpectCommit()

	updated, err := fixture.service.Update(context.Background(), adminActor("school-1"), "slot-1", dto.UpdateSlotRequest{EndTime: strPtr("08:40"), Room: strPtr("Lab 2")})
	require.NoError(t, err)
	assert.Equal(t, "08:40", updated.EndTime)
	require.NotNil(t, updated.Room)
	assert.Equal(t, "Lab 2", *updated.Room)

	stored, err := fixture.slots.FindByID(context.Background(), nil, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "08:40", stored.EndTime)
	assert.Equal(t, []string{models.AuditActionSlotUpdate}, fixture.audit.actions())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceUpdateRejectsOverlapWithAnotherSlot(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	second := mondayEnglish()
	second.StartTime, second.EndTime = "09:00", "09:40"
	fixture := newSlotFixture(t, tx, mondayEnglish(), second)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := fixture.service.Update(context.Background(), adminActor("school-1"), "slot-2", dto.UpdateSlotRequest{StartTime: strPtr("08:20")})
	requireAppErrorCode(t, err, appErrors.ErrTeacherConflict.Code)

	stored, err := fixture.slots.FindByID(context.Background(), nil, "slot-2")
	require.NoError(t, err)
	assert.Equal(t, "09:00", stored.StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceUpdateMovesDay(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx, mondayEnglish())

	mock.ExpectBegin()
	mock.ExpectCommit()

	updated, err := fixture.service.Update(context.Background(), adminActor("school-1"), "slot-1", dto.UpdateSlotRequest{DayOfWeek: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.DayOfWeek)
	assert.Equal(t, "08:00", updated.StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceUpdateMissingSlot(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx)

	_, err := fixture.service.Update(context.Background(), adminActor("school-1"), "slot-9", dto.UpdateSlotRequest{EndTime: strPtr("09:00")})
	requireAppErrorCode(t, err, appErrors.ErrNotFound.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceDelete(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx, mondayEnglish())

	deleted, err := fixture.service.Delete(context.Background(), adminActor("school-1"), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", deleted.TeacherID)
	assert.Zero(t, fixture.slots.count())
	assert.Equal(t, []string{models.AuditActionSlotDelete}, fixture.audit.actions())

	_, err = fixture.service.Get(context.Background(), adminActor("school-1"), "slot-1")
	requireAppErrorCode(t, err, appErrors.ErrNotFound.Code)
}

func TestTimetableSlotServiceGetChecksSchool(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx, mondayEnglish())

	_, err := fixture.service.Get(context.Background(), adminActor("school-2"), "slot-1")
	requireAppErrorCode(t, err, appErrors.ErrForbidden.Code)
}

func TestTimetableSlotServiceList(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	tuesday := mondayEnglish()
	tuesday.DayOfWeek = 2
	fixture := newSlotFixture(t, tx, mondayEnglish(), tuesday)

	slots, pagination, err := fixture.service.List(context.Background(), adminActor("school-1"), dto.SlotQuery{TermID: "term-1", DayOfWeek: 2})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].DayOfWeek)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 100, TotalCount: 1}, pagination)

	_, _, err = fixture.service.List(context.Background(), adminActor("school-1"), dto.SlotQuery{DayOfWeek: 7})
	requireAppErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestTimetableSlotServiceReadsDefaultToCurrentTerm(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	tuesday := mondayEnglish()
	tuesday.DayOfWeek = 2
	fixture := newSlotFixture(t, tx, mondayEnglish(), tuesday)
	ctx := context.Background()

	slots, pagination, err := fixture.service.List(ctx, adminActor("school-1"), dto.SlotQuery{})
	require.NoError(t, err)
	assert.Len(t, slots, 2)
	assert.Equal(t, 2, pagination.TotalCount)

	view, _, err := fixture.service.ClassTimetable(ctx, adminActor("school-1"), "", "class-a")
	require.NoError(t, err)
	assert.Equal(t, "term-1", view.TermID)
	assert.Equal(t, 2, view.Total)
	assert.True(t, fixture.cache.has(ClassViewKey("term-1", "class-a")))

	// school-2 has no term flagged current
	_, _, err = fixture.service.TeacherTimetable(ctx, adminActor("school-2"), "", "teacher-1")
	requireAppErrorCode(t, err, appErrors.ErrNotFound.Code)
	_, _, err = fixture.service.List(ctx, adminActor("school-2"), dto.SlotQuery{})
	requireAppErrorCode(t, err, appErrors.ErrNotFound.Code)

	_, _, err = fixture.service.List(ctx, models.Actor{UserID: "u-1"}, dto.SlotQuery{})
	requireAppErrorCode(t, err, appErrors.ErrForbidden.Code)
}

func TestTimetableSlotServiceWriteWithUnknownReference(t *testing.T) {
	tx, mock := newSQLMockTx(t)
	fixture := newSlotFixture(t, tx, mondayEnglish())
	fixture.slots.writeErr = fmt.Errorf("create timetable slot: %w", models.ErrInvalidSlotReference)

	mock.ExpectBegin()
	mock.ExpectRollback()
	req := dto.CreateSlotRequest{
		TermID: "term-1", TeacherID: "not-a-teacher", ClassID: "class-a", SubjectID: "eng-id",
		DayOfWeek: 2, StartTime: "08:00", EndTime: "08:40",
	}
	_, err := fixture.service.Create(context.Background(), adminActor("school-1"), req)
	requireAppErrorCode(t, err, appErrors.ErrValidation.Code)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = fixture.service.Update(context.Background(), adminActor("school-1"), "slot-1", dto.UpdateSlotRequest{SubjectID: strPtr("bogus")})
	requireAppErrorCode(t, err, appErrors.ErrValidation.Code)

	assert.Empty(t, fixture.audit.actions())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotServiceWeeklyViewsUseCache(t *testing.T) {
	tx, _ := newSQLMockTx(t)
	wednesday := mondayEnglish()
	wednesday.DayOfWeek, wednesday.ClassID = 3, "class-b"
	fixture := newSlotFixture(t, tx, mondayEnglish(), wednesday)

	view, hit, err := fixture.service.TeacherTimetable(context.Background(), adminActor("school-1"), "term-1", "teacher-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, view.Total)
	assert.Len(t, view.Days[1], 1)
	assert.Len(t, view.Days[3], 1)
	assert.Empty(t, view.Days[5])
	assert.True(t, fixture.cache.has(TeacherViewKey("term-1", "teacher-1")))

	cached, hit, err := fixture.service.TeacherTimetable(context.Background(), adminActor("school-1"), "term-1", "teacher-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, cached.Total)

	classView, _, err := fixture.service.ClassTimetable(context.Background(), adminActor("school-1"), "term-1", "class-b")
	require.NoError(t, err)
	assert.Equal(t, ViewKindClass, classView.Kind)
	assert.Equal(t, 1, classView.Total)

	_, _, err = fixture.service.ClassTimetable(context.Background(), adminActor("school-1"), "term-1", "")
	requireAppErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestTimetableSlotServicePreviewGrid(t *testing.T) {
	fixture := newSlotFixture(t, nil)

	grid, err := fixture.service.PreviewGrid(dto.GridConfig{Template: dto.TemplateContinuous, StartTime: "08:00", PeriodsPerDay: 6, PeriodMinutes: 40})
	require.NoError(t, err)
	assert.Len(t, grid, 6)

	_, err = fixture.service.PreviewGrid(dto.GridConfig{Template: dto.TemplateKenyaFixed})
	requireAppErrorCode(t, err, appErrors.ErrValidation.Code)
}
