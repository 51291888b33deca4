package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// AuditJobType labels audit jobs on the background queue.
const AuditJobType = "audit"

// AuditEmitter receives one event per timetable write. Emission never fails the caller.
type AuditEmitter interface {
	Emit(ctx context.Context, event models.AuditEvent)
}

type auditEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

type auditLogWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService hands audit events to the background queue.
type AuditService struct {
	queue   auditEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs the emitter.
func NewAuditService(queue auditEnqueuer, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{queue: queue, metrics: metrics, logger: logger}
}

// Emit enqueues the event without blocking. Dropped events are logged and counted.
func (s *AuditService) Emit(ctx context.Context, event models.AuditEvent) {
	if s == nil || s.queue == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	job := jobs.Job{ID: uuid.NewString(), Type: AuditJobType, Payload: event}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.metrics.RecordAuditDropped()
		s.logger.Warn("audit event dropped",
			zap.String("action", event.Action),
			zap.String("resource_id", event.ResourceID),
			zap.Error(err),
		)
	}
}

// AuditJobHandler persists queued audit events.
func AuditJobHandler(repo auditLogWriter) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(models.AuditEvent)
		if !ok {
			return fmt.Errorf("audit job %s: unexpected payload %T", job.ID, job.Payload)
		}
		body, err := json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("encode audit payload: %w", err)
		}
		entry := &models.AuditLog{
			Action:    event.Action,
			Resource:  event.Resource,
			NewValues: body,
			CreatedAt: event.OccurredAt,
		}
		if event.UserID != "" {
			entry.UserID = &event.UserID
		}
		if event.SchoolID != "" {
			entry.SchoolID = &event.SchoolID
		}
		if event.ResourceID != "" {
			entry.ResourceID = &event.ResourceID
		}
		return repo.Create(ctx, entry)
	}
}

type noopAuditEmitter struct{}

func (noopAuditEmitter) Emit(context.Context, models.AuditEvent) {}
