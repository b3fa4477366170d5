package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RetentionConfig holds the retention sweep parameters
type RetentionConfig struct {
	SweepInterval  time.Duration
	TerminalMaxAge time.Duration // decided requests kept in memory this long
	PendingMaxAge  time.Duration // pending requests auto-rejected after this
	AuditMaxAge    time.Duration // audit rows purged after this
}

// DefaultRetentionConfig returns default retention parameters. Pending
// requests auto-expire after 24h; the rejection carries the reason
// "expired" so the requester sees why their short code never arrived.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		SweepInterval:  10 * time.Minute,
		TerminalMaxAge: 24 * time.Hour,
		PendingMaxAge:  24 * time.Hour,
		AuditMaxAge:    90 * 24 * time.Hour,
	}
}

// Lifecycle is the slice of the approval controller the sweep needs
type Lifecycle interface {
	ExpirePendingOlderThan(ctx context.Context, age time.Duration) int
	CleanupTerminalOlderThan(age time.Duration) int
}

// AuditPurger removes audit records past their retention age
type AuditPurger interface {
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// RetentionWorker periodically expires stale pending requests, purges
// decided requests from the in-memory store and trims the audit trail.
type RetentionWorker struct {
	config    RetentionConfig
	lifecycle Lifecycle
	purger    AuditPurger
	logger    *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRetentionWorker creates a retention worker
func NewRetentionWorker(config RetentionConfig, lifecycle Lifecycle, purger AuditPurger, logger *zap.Logger) *RetentionWorker {
	return &RetentionWorker{
		config:    config,
		lifecycle: lifecycle,
		purger:    purger,
		logger:    logger,
	}
}

// Name returns the worker name
func (w *RetentionWorker) Name() string {
	return "retention-worker"
}

// Start begins the periodic sweep loop
func (w *RetentionWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("retention worker already running")
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true

	go w.loop(ctx)
	return nil
}

// Stop halts the sweep loop and waits for the current sweep to finish
func (w *RetentionWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (w *RetentionWorker) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one retention pass
func (w *RetentionWorker) Sweep(ctx context.Context) {
	expired := w.lifecycle.ExpirePendingOlderThan(ctx, w.config.PendingMaxAge)
	removed := w.lifecycle.CleanupTerminalOlderThan(w.config.TerminalMaxAge)

	var purged int64
	if w.purger != nil {
		var err error
		purged, err = w.purger.DeleteOlderThan(ctx, w.config.AuditMaxAge)
		if err != nil {
			w.logger.Error("Audit retention purge failed", zap.Error(err))
		}
	}

	if expired > 0 || removed > 0 || purged > 0 {
		w.logger.Info("Retention sweep completed",
			zap.Int("pending_expired", expired),
			zap.Int("terminal_removed", removed),
			zap.Int64("audit_purged", purged))
	}
}
