package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

type auditLogRecorder struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (r *auditLogRecorder) Create(ctx context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.logs = append(r.logs, log)
	return nil
}

func (r *auditLogRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

type rejectingQueue struct{}

func (rejectingQueue) TryEnqueue(job jobs.Job) error {
	return jobs.ErrQueueFull
}

func TestAuditJobHandlerPersistsEvent(t *testing.T) {
	repo := &auditLogRecorder{}
	handler := AuditJobHandler(repo)
	occurred := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)

	err := handler(context.Background(), jobs.Job{ID: "job-1", Type: AuditJobType, Payload: models.AuditEvent{
		UserID:     "admin-1",
		SchoolID:   "school-1",
		Action:     models.AuditActionTimetableGenerate,
		Resource:   "timetable",
		ResourceID: "term-1",
		Payload:    map[string]interface{}{"created": 100},
		OccurredAt: occurred,
	}})
	require.NoError(t, err)
	require.Len(t, repo.logs, 1)

	entry := repo.logs[0]
	assert.Equal(t, models.AuditActionTimetableGenerate, entry.Action)
	require.NotNil(t, entry.SchoolID)
	assert.Equal(t, "school-1", *entry.SchoolID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "term-1", *entry.ResourceID)
	assert.Equal(t, occurred, entry.CreatedAt)

	var values map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.NewValues, &values))
	assert.Equal(t, float64(100), values["created"])
}

func TestAuditJobHandlerRejectsUnknownPayload(t *testing.T) {
	handler := AuditJobHandler(&auditLogRecorder{})
	err := handler(context.Background(), jobs.Job{ID: "job-1", Payload: "not an event"})
	assert.Error(t, err)
}

func TestAuditServiceEmitsThroughQueue(t *testing.T) {
	repo := &auditLogRecorder{}
	queue := jobs.NewQueue("audit-test", AuditJobHandler(repo), jobs.QueueConfig{Workers: 1, BufferSize: 4})
	queue.Start(context.Background())
	defer queue.Stop()

	svc := NewAuditService(queue, nil, nil)
	svc.Emit(context.Background(), models.AuditEvent{UserID: "admin-1", SchoolID: "school-1", Action: models.AuditActionSlotCreate, Resource: "timetable_slot", ResourceID: "slot-1"})

	require.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.False(t, repo.logs[0].CreatedAt.IsZero())
}

func TestAuditServiceCountsDroppedEvents(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewAuditService(rejectingQueue{}, metrics, nil)

	assert.NotPanics(t, func() {
		svc.Emit(context.Background(), models.AuditEvent{Action: models.AuditActionSlotDelete})
	})

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var dropped float64
	for _, family := range families {
		if family.GetName() == "timetable_audit_dropped_total" {
			dropped = family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, dropped)
}

func TestAuditServiceSurvivesFailingStore(t *testing.T) {
	repo := &auditLogRecorder{err: errors.New("db down")}
	handler := AuditJobHandler(repo)
	err := handler(context.Background(), jobs.Job{ID: "job-1", Payload: models.AuditEvent{Action: models.AuditActionSlotUpdate}})
	assert.EqualError(t, err, "db down")
}
