package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/jobdrop-api/internal/models"
	"github.com/noah-isme/jobdrop-api/pkg/config"
	"github.com/noah-isme/jobdrop-api/pkg/jobs"
)

const (
	eventJobRecord  = "approval.record"
	eventJobPublish = "approval.publish"
)

// EventPublisher forwards serialized events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, body []byte) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type eventEmitter interface {
	Emit(ctx context.Context, event models.ApprovalEvent)
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, models.ApprovalEvent) {}

// ApprovalEvents fans committed workflow changes out to the audit log, the
// summary cache and the optional broker. Delivery runs on a worker queue so a
// slow sink never blocks or undoes the decision that produced the event.
type ApprovalEvents struct {
	queue     *jobs.Queue
	audit     auditLogger
	cache     *CacheService
	publisher EventPublisher
	metrics   *MetricsService
	logger    *zap.Logger
}

// ApprovalEventsOption configures the dispatcher.
type ApprovalEventsOption func(*ApprovalEvents)

// WithEventPublisher enables broker delivery.
func WithEventPublisher(publisher EventPublisher) ApprovalEventsOption {
	return func(d *ApprovalEvents) {
		d.publisher = publisher
	}
}

// WithEventMetrics counts deliveries per sink.
func WithEventMetrics(metrics *MetricsService) ApprovalEventsOption {
	return func(d *ApprovalEvents) {
		d.metrics = metrics
	}
}

// NewApprovalEvents builds the dispatcher and its queue. Call Start before Emit.
func NewApprovalEvents(audit auditLogger, cache *CacheService, cfg config.EventsConfig, logger *zap.Logger, opts ...ApprovalEventsOption) *ApprovalEvents {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &ApprovalEvents{audit: audit, cache: cache, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	d.queue = jobs.NewQueue("approval-events", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			logger.Error("approval event dropped", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
		},
	})
	return d
}

// Start launches the workers.
func (d *ApprovalEvents) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains buffered events and stops the workers.
func (d *ApprovalEvents) Stop() {
	d.queue.Stop()
}

// Emit schedules delivery of event. When the queue is unavailable the record
// step runs inline so the audit trail is not lost.
func (d *ApprovalEvents) Emit(ctx context.Context, event models.ApprovalEvent) {
	if d == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	steps := []string{eventJobRecord}
	if d.publisher != nil {
		steps = append(steps, eventJobPublish)
	}
	for _, step := range steps {
		job := jobs.Job{ID: event.ID + ":" + step, Type: step, Payload: event}
		if err := d.queue.Enqueue(ctx, job); err != nil {
			d.logger.Warn("approval event not queued", zap.String("event_id", event.ID), zap.String("step", step), zap.Error(err))
			if step == eventJobRecord {
				if err := d.record(context.WithoutCancel(ctx), event); err != nil {
					d.logger.Error("approval event record failed", zap.String("event_id", event.ID), zap.Error(err))
				}
			}
		}
	}
}

func (d *ApprovalEvents) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.ApprovalEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	switch job.Type {
	case eventJobRecord:
		return d.record(ctx, event)
	case eventJobPublish:
		return d.publish(ctx, event)
	}
	return fmt.Errorf("unknown event step %s", job.Type)
}

// record appends the audit row and drops cached summaries. Cache failures are
// logged only; the TTL bounds staleness.
func (d *ApprovalEvents) record(ctx context.Context, event models.ApprovalEvent) error {
	if d.audit != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		actor := event.ActorID
		entityID := event.EntityID
		log := &models.AuditLog{
			UserID:     &actor,
			Action:     event.AuditAction(),
			Resource:   string(event.Entity),
			ResourceID: &entityID,
			NewValues:  payload,
			IPAddress:  "system",
			UserAgent:  "approval-events",
			CreatedAt:  event.OccurredAt,
		}
		err = d.audit.CreateAuditLog(ctx, log)
		d.metrics.RecordEvent("audit", err)
		if err != nil {
			return err
		}
	}
	if err := d.cache.InvalidateSummaries(ctx); err != nil {
		d.logger.Warn("summary cache not invalidated", zap.String("event_id", event.ID), zap.Error(err))
	}
	return nil
}

func (d *ApprovalEvents) publish(ctx context.Context, event models.ApprovalEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = d.publisher.Publish(ctx, event.RoutingKey(), body)
	d.metrics.RecordEvent("broker", err)
	return err
}
