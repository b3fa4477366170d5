package audit

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/domain/entity"
)

// Recorder is the persistent audit log collaborator. It receives
// already-masked records and is expected to append them durably.
type Recorder interface {
	Insert(ctx context.Context, record *entity.AuditRecord) error
}

// Config holds audit sink configuration
type Config struct {
	// QueueSize bounds the in-flight event buffer; events beyond it are
	// dropped (and counted) rather than blocking a business operation.
	QueueSize int

	// ForwardTimeout bounds each forward call to the recorder
	ForwardTimeout time.Duration
}

// DefaultConfig returns default sink configuration
func DefaultConfig() Config {
	return Config{
		QueueSize:      256,
		ForwardTimeout: 5 * time.Second,
	}
}

// Sink masks lifecycle events and forwards them to the recorder from a
// single background goroutine, so events for the same request are forwarded
// in the order the transitions occurred. Forwarding is best-effort by
// design: the business transition has already committed when an event
// reaches the sink, so forward failures are logged and counted but never
// propagated. Availability of the approval mechanism is favored over
// guaranteed completeness of audit mirroring.
type Sink struct {
	config   Config
	recorder Recorder
	logger   *zap.Logger

	queue   chan *entity.AuditEvent
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewSink creates an audit sink. Call Start before recording and Close on
// shutdown to drain the queue.
func NewSink(config Config, recorder Recorder, logger *zap.Logger) *Sink {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.ForwardTimeout <= 0 {
		config.ForwardTimeout = DefaultConfig().ForwardTimeout
	}
	return &Sink{
		config:   config,
		recorder: recorder,
		logger:   logger,
		queue:    make(chan *entity.AuditEvent, config.QueueSize),
		done:     make(chan struct{}),
	}
}

// Start launches the forwarding goroutine
func (s *Sink) Start() {
	go s.run()
}

// Close stops accepting events and blocks until queued events are drained
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.queue)
	})
	<-s.done
}

// Record masks the event and enqueues it for forwarding. It never blocks:
// if the queue is full the event is dropped with a local error log.
func (s *Sink) Record(event *entity.AuditEvent) {
	masked := &entity.AuditEvent{
		EntityID:     event.EntityID,
		ShortCode:    event.ShortCode,
		Action:       event.Action,
		ActorID:      event.ActorID,
		TimestampUTC: event.TimestampUTC,
		Details:      MaskDetails(event.Details),
	}

	select {
	case s.queue <- masked:
	default:
		s.dropped.Add(1)
		s.logger.Error("Audit queue full, dropping event",
			zap.String("entity_id", event.EntityID),
			zap.String("action", event.Action))
	}
}

// DroppedCount returns the number of events dropped due to a full queue
func (s *Sink) DroppedCount() int64 {
	return s.dropped.Load()
}

// FailedCount returns the number of forward attempts that errored or timed out
func (s *Sink) FailedCount() int64 {
	return s.failed.Load()
}

func (s *Sink) run() {
	defer close(s.done)

	for event := range s.queue {
		s.forward(event)
	}
}

func (s *Sink) forward(event *entity.AuditEvent) {
	record := &entity.AuditRecord{
		EntityID:     event.EntityID,
		ShortCode:    event.ShortCode,
		Action:       event.Action,
		ActorID:      event.ActorID,
		TimestampUTC: event.TimestampUTC,
	}
	if event.Details != nil {
		encoded, err := json.Marshal(event.Details)
		if err != nil {
			s.failed.Add(1)
			s.logger.Error("Failed to encode audit details",
				zap.String("entity_id", event.EntityID),
				zap.Error(err))
			return
		}
		record.Details = string(encoded)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ForwardTimeout)
	defer cancel()

	if err := s.recorder.Insert(ctx, record); err != nil {
		s.failed.Add(1)
		s.logger.Error("Failed to forward audit event",
			zap.String("entity_id", event.EntityID),
			zap.String("action", event.Action),
			zap.Error(err))
	}
}
