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

	"github.com/noah-isme/jobdrop-api/internal/models"
	"github.com/noah-isme/jobdrop-api/pkg/config"
)

type publisherStub struct {
	mu     sync.Mutex
	keys   []string
	bodies [][]byte
	err    error
}

func (p *publisherStub) Publish(ctx context.Context, key string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.bodies = append(p.bodies, body)
	return nil
}

func (p *publisherStub) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type flakyAudit struct {
	auditStub
	failures int
	attempts int
}

func (f *flakyAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	f.attempts++
	fail := f.attempts <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("audit store unavailable")
	}
	return f.auditStub.CreateAuditLog(ctx, log)
}

var testEventsConfig = config.EventsConfig{Workers: 2, BufferSize: 16, Retries: 3, RetryDelay: 5 * time.Millisecond}

func decidedEvent() models.ApprovalEvent {
	note := "looks good"
	return models.ApprovalEvent{
		Type:       models.EventDecided,
		Entity:     models.EntityJob,
		EntityID:   "job-1",
		ActorID:    "admin1",
		OwnerID:    "mkt1",
		Status:     models.ApprovalApproved,
		Note:       &note,
		OccurredAt: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestApprovalEventsRecordsAndPublishes(t *testing.T) {
	audit := &auditStub{}
	store := newMemoryCache()
	require.NoError(t, store.Set(context.Background(), summaryCacheKey("all"), models.QueueSummary{}, time.Minute))
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	publisher := &publisherStub{}

	events := NewApprovalEvents(audit, cache, testEventsConfig, nil, WithEventPublisher(publisher), WithEventMetrics(NewMetricsService()))
	events.Start(context.Background())
	events.Emit(context.Background(), decidedEvent())
	events.Stop()

	require.Equal(t, 1, audit.count())
	log := audit.logs[0]
	assert.Equal(t, models.AuditActionDecide, log.Action)
	assert.Equal(t, "job", log.Resource)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "job-1", *log.ResourceID)

	var payload models.ApprovalEvent
	require.NoError(t, json.Unmarshal(log.NewValues, &payload))
	assert.NotEmpty(t, payload.ID)
	assert.Equal(t, models.ApprovalApproved, payload.Status)

	assert.Equal(t, []string{"job.decided"}, publisher.published())
	assert.Empty(t, store.keys())
}

func TestApprovalEventsRetriesAuditOnce(t *testing.T) {
	audit := &flakyAudit{failures: 1}
	events := NewApprovalEvents(audit, nil, testEventsConfig, nil)
	events.Start(context.Background())
	defer events.Stop()

	events.Emit(context.Background(), decidedEvent())
	assert.Eventually(t, func() bool { return audit.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, audit.count())
}

func TestApprovalEventsPublishFailureDoesNotDuplicateAudit(t *testing.T) {
	audit := &auditStub{}
	publisher := &publisherStub{err: errors.New("broker down")}
	cfg := testEventsConfig
	cfg.Retries = 1
	events := NewApprovalEvents(audit, nil, cfg, nil, WithEventPublisher(publisher))
	events.Start(context.Background())

	events.Emit(context.Background(), decidedEvent())
	assert.Eventually(t, func() bool { return audit.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	events.Stop()

	assert.Equal(t, 1, audit.count())
	assert.Empty(t, publisher.published())
}

func TestApprovalEventsRecordInlineWhenStopped(t *testing.T) {
	audit := &auditStub{}
	events := NewApprovalEvents(audit, nil, testEventsConfig, nil)

	events.Emit(context.Background(), decidedEvent())
	assert.Equal(t, 1, audit.count())

	var nilEvents *ApprovalEvents
	assert.NotPanics(t, func() { nilEvents.Emit(context.Background(), decidedEvent()) })
}
