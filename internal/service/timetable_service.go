package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const emptyGenerationMessage = "no slots were generated; check teacher assignments, fallback teachers and the workload cap"

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type timetableTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindCurrent(ctx context.Context, schoolID string) (*models.Term, error)
}

type seniorClassReader interface {
	ListActiveSenior(ctx context.Context, exec sqlx.ExtContext, schoolID string) ([]models.Class, error)
}

type termAssignmentReader interface {
	ListByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) ([]models.TeacherAssignment, error)
}

type generatedSlotWriter interface {
	AcquireTermLock(ctx context.Context, exec sqlx.ExtContext, key string) error
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error
	DeleteByTermClasses(ctx context.Context, exec sqlx.ExtContext, termID string, classIDs []string) (int64, error)
}

type termViewInvalidator interface {
	InvalidateTerm(ctx context.Context, termID string)
}

// TimetableConfig tunes generation defaults.
type TimetableConfig struct {
	DefaultMaxPeriodsPerTeacher int
}

// TimetableService generates weekly timetables for a school's senior classes.
type TimetableService struct {
	terms       timetableTermReader
	classes     seniorClassReader
	scope       *subjectScopeResolver
	assignments termAssignmentReader
	slots       generatedSlotWriter
	tx          txProvider
	audit       AuditEmitter
	metrics     *MetricsService
	views       termViewInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	locks       *keyedMutex
	cfg         TimetableConfig
}

// NewTimetableService wires generation dependencies.
func NewTimetableService(
	terms timetableTermReader,
	classes seniorClassReader,
	subjects scopeSubjectReader,
	classSubjects scopeClassSubjectStore,
	assignments termAssignmentReader,
	slots generatedSlotWriter,
	tx txProvider,
	audit AuditEmitter,
	metrics *MetricsService,
	views termViewInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = noopAuditEmitter{}
	}
	if cfg.DefaultMaxPeriodsPerTeacher < 1 || cfg.DefaultMaxPeriodsPerTeacher > 60 {
		cfg.DefaultMaxPeriodsPerTeacher = 30
	}
	return &TimetableService{
		terms:       terms,
		classes:     classes,
		scope:       newSubjectScopeResolver(subjects, classSubjects),
		assignments: assignments,
		slots:       slots,
		tx:          tx,
		audit:       audit,
		metrics:     metrics,
		views:       views,
		validator:   validate,
		logger:      logger,
		locks:       newKeyedMutex(),
		cfg:         cfg,
	}
}

// Build generates and persists the term's timetable. Generation for one (school, term) pair is
// serialised in process and across replicas; persistence is all-or-nothing.
func (s *TimetableService) Build(ctx context.Context, actor models.Actor, req dto.BuildTimetableRequest) (*dto.GenerationResult, error) {
	started := time.Now()
	result, err := s.build(ctx, actor, req)
	s.metrics.RecordGeneration(result, err, time.Since(started))
	return result, err
}

func (s *TimetableService) build(ctx context.Context, actor models.Actor, req dto.BuildTimetableRequest) (*dto.GenerationResult, error) {
	if req.Regeneration == "" {
		req.Regeneration = dto.RegenerationUpsert
	}
	if req.MaxPeriodsPerTeacherWeek == 0 {
		req.MaxPeriodsPerTeacherWeek = s.cfg.DefaultMaxPeriodsPerTeacher
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	grid, err := BuildTimeGrid(req.Grid)
	if err != nil {
		return nil, err
	}
	if _, err := loadOwnedTerm(ctx, s.terms, actor, req.TermID); err != nil {
		return nil, err
	}

	key := termLockKey(actor.SchoolID, req.TermID)
	unlock := s.locks.Lock(key)
	defer unlock()

	result, err := s.generate(ctx, actor, req, grid, key)
	if err != nil {
		return nil, err
	}

	s.logger.Info("timetable generated",
		zap.String("school_id", actor.SchoolID),
		zap.String("term_id", req.TermID),
		zap.String("scope", req.Scope.Mode),
		zap.String("template", req.Grid.Template),
		zap.Int("created", result.Created),
		zap.Int("skipped_missing_teacher", result.SkippedMissingTeacher),
		zap.Int("skipped_conflict", result.SkippedConflict),
		zap.Int("skipped_workload_cap", result.SkippedWorkloadCap),
	)
	s.audit.Emit(ctx, models.AuditEvent{
		UserID:     actor.UserID,
		SchoolID:   actor.SchoolID,
		Action:     models.AuditActionTimetableGenerate,
		Resource:   "timetable",
		ResourceID: req.TermID,
		Payload: map[string]interface{}{
			"scope":                   req.Scope.Mode,
			"template":                req.Grid.Template,
			"periods_per_day":         len(grid),
			"max_periods_per_teacher": req.MaxPeriodsPerTeacherWeek,
			"regeneration":            req.Regeneration,
			"created":                 result.Created,
			"replaced":                result.Replaced,
			"skipped_missing_teacher": result.SkippedMissingTeacher,
			"skipped_conflict":        result.SkippedConflict,
			"skipped_workload_cap":    result.SkippedWorkloadCap,
		},
	})
	if s.views != nil {
		s.views.InvalidateTerm(ctx, req.TermID)
	}
	return result, nil
}

func (s *TimetableService) generate(ctx context.Context, actor models.Actor, req dto.BuildTimetableRequest, grid []dto.TimeSlotRange, lockKey string) (result *dto.GenerationResult, err error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.slots.AcquireTermLock(ctx, tx, lockKey); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock term timetable")
	}

	classes, err := s.classes.ListActiveSenior(ctx, tx, actor.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	if len(classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoClasses, "no active grade 10-12 classes for this school")
	}

	subjects, err := s.scope.Resolve(ctx, tx, actor.SchoolID, req.Scope, classes)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListByTerm(ctx, tx, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}

	allocation := allocateTimetable(allocationInput{
		TermID:               req.TermID,
		Grid:                 grid,
		Classes:              classes,
		Subjects:             subjects,
		Teachers:             newTeacherResolver(assignments, req.FallbackTeachers),
		MaxPeriodsPerTeacher: req.MaxPeriodsPerTeacherWeek,
	})

	var replaced int64
	if req.Regeneration == dto.RegenerationReplace {
		classIDs := make([]string, 0, len(classes))
		for _, class := range classes {
			classIDs = append(classIDs, class.ID)
		}
		if replaced, err = s.slots.DeleteByTermClasses(ctx, tx, req.TermID, classIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous timetable")
		}
	}

	if err = s.slots.UpsertBatch(ctx, tx, allocation.Slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slots")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
	}

	result = &dto.GenerationResult{
		TermID:                req.TermID,
		Created:               len(allocation.Slots),
		SkippedMissingTeacher: allocation.SkippedMissingTeacher,
		SkippedConflict:       allocation.SkippedConflict,
		SkippedWorkloadCap:    allocation.SkippedWorkloadCap,
		Replaced:              int(replaced),
	}
	if result.Created == 0 {
		result.Message = emptyGenerationMessage
	}
	return result, nil
}

// resolveTerm loads termID, or the school's current term when termID is blank.
func resolveTerm(ctx context.Context, terms timetableTermReader, actor models.Actor, termID string) (*models.Term, error) {
	if termID != "" {
		return loadOwnedTerm(ctx, terms, actor, termID)
	}
	if actor.SchoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "caller is not scoped to a school")
	}
	term, err := terms.FindCurrent(ctx, actor.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school has no current term; pass termId")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current term")
	}
	if !term.OwnedBy(actor.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "term belongs to another school")
	}
	return term, nil
}

// loadOwnedTerm loads the term and checks it belongs to the actor's school.
func loadOwnedTerm(ctx context.Context, terms timetableTermReader, actor models.Actor, termID string) (*models.Term, error) {
	if actor.SchoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "caller is not scoped to a school")
	}
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}
	term, err := terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if !term.OwnedBy(actor.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "term belongs to another school")
	}
	return term, nil
}
