package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableSlotStore interface {
	slotDayReader
	AcquireTermLock(ctx context.Context, exec sqlx.ExtContext, key string) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableSlot, error)
	Create(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) error
	Update(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
	List(ctx context.Context, filter models.TimetableSlotFilter) ([]models.TimetableSlot, int, error)
	ListByClass(ctx context.Context, termID, classID string) ([]models.TimetableSlot, error)
	ListByTeacher(ctx context.Context, termID, teacherID string) ([]models.TimetableSlot, error)
}

// Weekly view kinds.
const (
	ViewKindClass   = "class"
	ViewKindTeacher = "teacher"
)

// TimetableSlotService manages individual slots. Every write is validated against persisted
// slots inside a transaction holding the term lock.
type TimetableSlotService struct {
	terms     timetableTermReader
	slots     timetableSlotStore
	checker   *SlotConflictChecker
	tx        txProvider
	audit     AuditEmitter
	metrics   *MetricsService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableSlotService wires slot dependencies.
func NewTimetableSlotService(
	terms timetableTermReader,
	slots timetableSlotStore,
	tx txProvider,
	audit AuditEmitter,
	metrics *MetricsService,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
) *TimetableSlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = noopAuditEmitter{}
	}
	return &TimetableSlotService{
		terms:     terms,
		slots:     slots,
		checker:   NewSlotConflictChecker(slots),
		tx:        tx,
		audit:     audit,
		metrics:   metrics,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Create stores a new slot after checking it against the teacher's and class's persisted slots.
func (s *TimetableSlotService) Create(ctx context.Context, actor models.Actor, req dto.CreateSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable slot payload")
	}
	slot := &models.TimetableSlot{
		TermID:    req.TermID,
		TeacherID: req.TeacherID,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		DayOfWeek: req.DayOfWeek,
		StartTime: strings.TrimSpace(req.StartTime),
		EndTime:   strings.TrimSpace(req.EndTime),
		Room:      normalizeRoom(req.Room),
	}
	if err := validateSlotRange(slot.StartTime, slot.EndTime); err != nil {
		return nil, err
	}
	if _, err := loadOwnedTerm(ctx, s.terms, actor, req.TermID); err != nil {
		return nil, err
	}

	err := s.withTermLock(ctx, actor.SchoolID, slot.TermID, func(tx *sqlx.Tx) error {
		if err := s.checkConflict(ctx, tx, *slot, ""); err != nil {
			return err
		}
		if err := s.slots.Create(ctx, tx, slot); err != nil {
			if errors.Is(err, models.ErrInvalidSlotReference) {
				return invalidSlotReference(err)
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable slot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, actor, models.AuditActionSlotCreate, slot)
	return slot, nil
}

// Update applies the non-nil fields of req and re-validates the whole slot, ignoring its own row.
func (s *TimetableSlotService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable slot payload")
	}
	current, err := s.ownedSlot(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var updated *models.TimetableSlot
	err = s.withTermLock(ctx, actor.SchoolID, current.TermID, func(tx *sqlx.Tx) error {
		fresh, err := s.slots.FindByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
		}
		candidate := applySlotUpdate(*fresh, req)
		if err := validateSlotRange(candidate.StartTime, candidate.EndTime); err != nil {
			return err
		}
		if err := s.checkConflict(ctx, tx, candidate, id); err != nil {
			return err
		}
		if err := s.slots.Update(ctx, tx, &candidate); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
			}
			if errors.Is(err, models.ErrInvalidSlotReference) {
				return invalidSlotReference(err)
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable slot")
		}
		updated = &candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, actor, models.AuditActionSlotUpdate, updated)
	return updated, nil
}

// Delete removes the slot and returns it as it was.
func (s *TimetableSlotService) Delete(ctx context.Context, actor models.Actor, id string) (*models.TimetableSlot, error) {
	slot, err := s.ownedSlot(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.slots.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable slot")
	}
	s.afterWrite(ctx, actor, models.AuditActionSlotDelete, slot)
	return slot, nil
}

// Get returns a slot of the actor's school.
func (s *TimetableSlotService) Get(ctx context.Context, actor models.Actor, id string) (*models.TimetableSlot, error) {
	return s.ownedSlot(ctx, actor, id)
}

// List returns a page of the term's slots; a blank termId means the current term.
func (s *TimetableSlotService) List(ctx context.Context, actor models.Actor, query dto.SlotQuery) ([]models.TimetableSlot, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot query")
	}
	term, err := resolveTerm(ctx, s.terms, actor, query.TermID)
	if err != nil {
		return nil, nil, err
	}
	filter := models.TimetableSlotFilter{
		TermID:    term.ID,
		ClassID:   query.ClassID,
		TeacherID: query.TeacherID,
		DayOfWeek: query.DayOfWeek,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	slots, total, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	return slots, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// PreviewGrid returns the day grid a generation request would use, without persisting anything.
func (s *TimetableSlotService) PreviewGrid(cfg dto.GridConfig) ([]dto.TimeSlotRange, error) {
	if err := s.validator.Struct(cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grid configuration")
	}
	return BuildTimeGrid(cfg)
}

// ClassTimetable returns the class's week for the term, or for the current term when
// termID is blank. The bool reports a cache hit.
func (s *TimetableSlotService) ClassTimetable(ctx context.Context, actor models.Actor, termID, classID string) (*dto.WeeklyTimetable, bool, error) {
	return s.weeklyView(ctx, actor, termID, classID, ViewKindClass)
}

// TeacherTimetable returns the teacher's week like ClassTimetable.
func (s *TimetableSlotService) TeacherTimetable(ctx context.Context, actor models.Actor, termID, teacherID string) (*dto.WeeklyTimetable, bool, error) {
	return s.weeklyView(ctx, actor, termID, teacherID, ViewKindTeacher)
}

func (s *TimetableSlotService) weeklyView(ctx context.Context, actor models.Actor, termID, ownerID, kind string) (*dto.WeeklyTimetable, bool, error) {
	if ownerID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, kind+" id is required")
	}
	term, err := resolveTerm(ctx, s.terms, actor, termID)
	if err != nil {
		return nil, false, err
	}
	termID = term.ID

	key := ClassViewKey(termID, ownerID)
	if kind == ViewKindTeacher {
		key = TeacherViewKey(termID, ownerID)
	}
	var cached dto.WeeklyTimetable
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	var slots []models.TimetableSlot
	if kind == ViewKindTeacher {
		slots, err = s.slots.ListByTeacher(ctx, termID, ownerID)
	} else {
		slots, err = s.slots.ListByClass(ctx, termID, ownerID)
	}
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	view := buildWeeklyTimetable(termID, ownerID, kind, slots)
	_ = s.cache.Set(ctx, key, view, 0)
	return view, false, nil
}

func (s *TimetableSlotService) ownedSlot(ctx context.Context, actor models.Actor, id string) (*models.TimetableSlot, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot id is required")
	}
	slot, err := s.slots.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}
	if _, err := loadOwnedTerm(ctx, s.terms, actor, slot.TermID); err != nil {
		return nil, err
	}
	return slot, nil
}

// withTermLock runs fn in a transaction holding the same advisory lock as generation.
func (s *TimetableSlotService) withTermLock(ctx context.Context, schoolID, termID string, fn func(tx *sqlx.Tx) error) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.slots.AcquireTermLock(ctx, tx, termLockKey(schoolID, termID)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock term timetable")
	}
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable slot")
	}
	return nil
}

func (s *TimetableSlotService) checkConflict(ctx context.Context, exec sqlx.ExtContext, candidate models.TimetableSlot, ignoreID string) error {
	err := s.checker.Check(ctx, exec, candidate, ignoreID)
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case appErrors.ErrTeacherConflict.Code:
			s.metrics.RecordSlotConflict(models.ConflictDimensionTeacher)
		case appErrors.ErrClassConflict.Code:
			s.metrics.RecordSlotConflict(models.ConflictDimensionClass)
		}
	}
	return err
}

func (s *TimetableSlotService) afterWrite(ctx context.Context, actor models.Actor, action string, slot *models.TimetableSlot) {
	s.audit.Emit(ctx, models.AuditEvent{
		UserID:     actor.UserID,
		SchoolID:   actor.SchoolID,
		Action:     action,
		Resource:   "timetable_slot",
		ResourceID: slot.ID,
		Payload: map[string]interface{}{
			"term_id":     slot.TermID,
			"teacher_id":  slot.TeacherID,
			"class_id":    slot.ClassID,
			"subject_id":  slot.SubjectID,
			"day_of_week": slot.DayOfWeek,
			"start_time":  slot.StartTime,
			"end_time":    slot.EndTime,
			"room":        slot.Room,
		},
	})
	s.cache.InvalidateTerm(ctx, slot.TermID)
	s.logger.Debug("timetable slot written", zap.String("action", action), zap.String("slot_id", slot.ID))
}

func invalidSlotReference(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "teacherId, classId or subjectId does not match an existing record")
}

func applySlotUpdate(slot models.TimetableSlot, req dto.UpdateSlotRequest) models.TimetableSlot {
	if req.TeacherID != nil {
		slot.TeacherID = *req.TeacherID
	}
	if req.ClassID != nil {
		slot.ClassID = *req.ClassID
	}
	if req.SubjectID != nil {
		slot.SubjectID = *req.SubjectID
	}
	if req.DayOfWeek != nil {
		slot.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		slot.StartTime = strings.TrimSpace(*req.StartTime)
	}
	if req.EndTime != nil {
		slot.EndTime = strings.TrimSpace(*req.EndTime)
	}
	if req.Room != nil {
		slot.Room = normalizeRoom(req.Room)
	}
	return slot
}

func validateSlotRange(start, end string) error {
	from, err := parseClock(start)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "startTime must be HH:MM")
	}
	to, err := parseClock(end)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be HH:MM")
	}
	if to <= from {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	return nil
}

// normalizeRoom maps blank rooms to nil.
func normalizeRoom(room *string) *string {
	if room == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*room)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func buildWeeklyTimetable(termID, ownerID, kind string, slots []models.TimetableSlot) *dto.WeeklyTimetable {
	view := &dto.WeeklyTimetable{
		TermID:  termID,
		OwnerID: ownerID,
		Kind:    kind,
		Days:    make(map[int][]dto.WeeklyTimetableRow, TeachingDays),
		Total:   len(slots),
	}
	for day := 1; day <= TeachingDays; day++ {
		view.Days[day] = []dto.WeeklyTimetableRow{}
	}
	for _, slot := range slots {
		view.Days[slot.DayOfWeek] = append(view.Days[slot.DayOfWeek], dto.WeeklyTimetableRow{
			SlotID:    slot.ID,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			ClassID:   slot.ClassID,
			SubjectID: slot.SubjectID,
			TeacherID: slot.TeacherID,
			Room:      slot.Room,
		})
	}
	return view
}
