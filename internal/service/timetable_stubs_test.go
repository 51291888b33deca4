package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type sqlmockTx struct {
	db *sqlx.DB
}

func (p *sqlmockTx) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

func newSQLMockTx(t *testing.T) (*sqlmockTx, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &sqlmockTx{db: sqlx.NewDb(db, "sqlmock")}, mock
}

type termStoreStub struct {
	terms map[string]*models.Term
	err   error
}

func (s termStoreStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	term, ok := s.terms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *term
	return &found, nil
}

func (s termStoreStub) FindCurrent(ctx context.Context, schoolID string) (*models.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, term := range s.terms {
		if term.SchoolID == schoolID && term.IsCurrent {
			found := *term
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newTermStore(terms ...models.Term) termStoreStub {
	store := termStoreStub{terms: make(map[string]*models.Term, len(terms))}
	for i := range terms {
		store.terms[terms[i].ID] = &terms[i]
	}
	return store
}

type classStoreStub struct {
	classes []models.Class
	err     error
}

func (s classStoreStub) ListActiveSenior(ctx context.Context, exec sqlx.ExtContext, schoolID string) ([]models.Class, error) {
	if s.err != nil {
		return nil, s.err
	}
	var result []models.Class
	for _, class := range s.classes {
		if class.SchoolID == schoolID && class.IsSenior() {
			result = append(result, class)
		}
	}
	return result, nil
}

func (s classStoreStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	for _, class := range s.classes {
		if class.ID == id {
			found := class
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type subjectStoreStub struct {
	subjects []models.Subject
}

func (s subjectStoreStub) FindByCodes(ctx context.Context, exec sqlx.ExtContext, schoolID string, codes []string) ([]models.Subject, error) {
	var result []models.Subject
	for _, subject := range s.subjects {
		if subject.SchoolID == schoolID && containsString(codes, subject.Code) {
			result = append(result, subject)
		}
	}
	return result, nil
}

func (s subjectStoreStub) FindByIDs(ctx context.Context, exec sqlx.ExtContext, schoolID string, ids []string) ([]models.Subject, error) {
	var result []models.Subject
	for _, subject := range s.subjects {
		if subject.SchoolID == schoolID && containsString(ids, subject.ID) {
			result = append(result, subject)
		}
	}
	return result, nil
}

// coreCatalog returns the four core subjects for the school with ids "<code>-id".
func coreCatalog(schoolID string) []models.Subject {
	subjects := make([]models.Subject, 0, len(CoreSubjectCodes))
	for _, code := range CoreSubjectCodes {
		subjects = append(subjects, models.Subject{ID: strings.ToLower(code) + "-id", SchoolID: schoolID, Code: code, Name: code, IsCompulsory: true})
	}
	return subjects
}

type classSubjectStoreStub struct {
	mappings []models.ClassSubject
	upserted []models.ClassSubject
}

func (s *classSubjectStoreStub) ListByClasses(ctx context.Context, exec sqlx.ExtContext, classIDs []string) ([]models.ClassSubject, error) {
	var result []models.ClassSubject
	for _, mapping := range s.mappings {
		if containsString(classIDs, mapping.ClassID) {
			result = append(result, mapping)
		}
	}
	return result, nil
}

func (s *classSubjectStoreStub) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, mappings []models.ClassSubject) error {
	s.upserted = append(s.upserted, mappings...)
	return nil
}

type assignmentStoreStub struct {
	assignments []models.TeacherAssignment
}

func (s assignmentStoreStub) ListByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) ([]models.TeacherAssignment, error) {
	var result []models.TeacherAssignment
	for _, assignment := range s.assignments {
		if assignment.TermID == termID {
			result = append(result, assignment)
		}
	}
	return result, nil
}

// memorySlotStore keeps slots in memory and mirrors the repository's natural key upsert.
type memorySlotStore struct {
	mu        sync.Mutex
	slots     []models.TimetableSlot
	seq       int
	lockKeys  []string
	upsertErr error
	writeErr  error
}

func (s *memorySlotStore) nextID() string {
	s.seq++
	return fmt.Sprintf("slot-%d", s.seq)
}

func (s *memorySlotStore) AcquireTermLock(ctx context.Context, exec sqlx.ExtContext, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockKeys = append(s.lockKeys, key)
	return nil
}

func (s *memorySlotStore) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for _, slot := range slots {
		replaced := false
		for i := range s.slots {
			existing := &s.slots[i]
			if existing.TermID == slot.TermID && existing.TeacherID == slot.TeacherID && existing.ClassID == slot.ClassID &&
				existing.SubjectID == slot.SubjectID && existing.DayOfWeek == slot.DayOfWeek && existing.StartTime == slot.StartTime {
				existing.EndTime = slot.EndTime
				existing.Room = slot.Room
				replaced = true
				break
			}
		}
		if !replaced {
			slot.ID = s.nextID()
			s.slots = append(s.slots, slot)
		}
	}
	return nil
}

func (s *memorySlotStore) DeleteByTermClasses(ctx context.Context, exec sqlx.ExtContext, termID string, classIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.slots[:0]
	var removed int64
	for _, slot := range s.slots {
		if slot.TermID == termID && containsString(classIDs, slot.ClassID) {
			removed++
			continue
		}
		kept = append(kept, slot)
	}
	s.slots = kept
	return removed, nil
}

func (s *memorySlotStore) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.slots {
		if slot.ID == id {
			found := slot
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memorySlotStore) ListByTeacherDay(ctx context.Context, exec sqlx.ExtContext, termID, teacherID string, day int) ([]models.TimetableSlot, error) {
	return s.filter(func(slot models.TimetableSlot) bool {
		return slot.TermID == termID && slot.TeacherID == teacherID && slot.DayOfWeek == day
	}), nil
}

func (s *memorySlotStore) ListByClassDay(ctx context.Context, exec sqlx.ExtContext, termID, classID string, day int) ([]models.TimetableSlot, error) {
	return s.filter(func(slot models.TimetableSlot) bool {
		return slot.TermID == termID && slot.ClassID == classID && slot.DayOfWeek == day
	}), nil
}

func (s *memorySlotStore) Create(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	slot.ID = s.nextID()
	s.slots = append(s.slots, *slot)
	return nil
}

func (s *memorySlotStore) Update(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	for i := range s.slots {
		if s.slots[i].ID == slot.ID {
			s.slots[i] = *slot
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *memorySlotStore) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		if s.slots[i].ID == id {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *memorySlotStore) List(ctx context.Context, filter models.TimetableSlotFilter) ([]models.TimetableSlot, int, error) {
	result := s.filter(func(slot models.TimetableSlot) bool {
		if slot.TermID != filter.TermID {
			return false
		}
		if filter.ClassID != "" && slot.ClassID != filter.ClassID {
			return false
		}
		if filter.TeacherID != "" && slot.TeacherID != filter.TeacherID {
			return false
		}
		return filter.DayOfWeek == 0 || slot.DayOfWeek == filter.DayOfWeek
	})
	return result, len(result), nil
}

func (s *memorySlotStore) ListByClass(ctx context.Context, termID, classID string) ([]models.TimetableSlot, error) {
	return s.filter(func(slot models.TimetableSlot) bool {
		return slot.TermID == termID && slot.ClassID == classID
	}), nil
}

func (s *memorySlotStore) ListByTeacher(ctx context.Context, termID, teacherID string) ([]models.TimetableSlot, error) {
	return s.filter(func(slot models.TimetableSlot) bool {
		return slot.TermID == termID && slot.TeacherID == teacherID
	}), nil
}

func (s *memorySlotStore) filter(keep func(models.TimetableSlot) bool) []models.TimetableSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.TimetableSlot
	for _, slot := range s.slots {
		if keep(slot) {
			result = append(result, slot)
		}
	}
	return result
}

func (s *memorySlotStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (r *recordingAudit) Emit(ctx context.Context, event models.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.events))
	for _, event := range r.events {
		actions = append(actions, event.Action)
	}
	return actions
}

// memoryCacheRepo stores JSON payloads in a map and treats a trailing "*" as a prefix match.
type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (r *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (r *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = payload
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range r.entries {
		if strings.HasPrefix(key, prefix) {
			delete(r.entries, key)
		}
	}
	return nil
}

func (r *memoryCacheRepo) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	return ok
}

func adminActor(schoolID string) models.Actor {
	return models.Actor{UserID: "admin-1", SchoolID: schoolID, Role: models.RoleAdmin}
}

func requireAppErrorCode(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, code, appErr.Code, "unexpected error: %v", err)
	return appErr
}
