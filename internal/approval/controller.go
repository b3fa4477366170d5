// Package approval implements the lifecycle controller: the single writer
// governing creation, decision and consumption of approval requests.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/domain/entity"
	"github.com/adminchat/approvalgate/internal/domain/lifecycle"
	"github.com/adminchat/approvalgate/internal/identifier"
	"github.com/adminchat/approvalgate/internal/store"
)

// shortCodeAttempts bounds collision retries during creation. With a 36^6
// code space and low request volumes, exhausting this means something is
// badly wrong with the generator or the store is never cleaned up.
const shortCodeAttempts = 5

// systemActor is recorded as the decider for operator-less transitions
// such as pending-request expiry.
const systemActor = "system"

// EventSink receives lifecycle events for the audit trail. Recording must
// never block or fail the triggering operation.
type EventSink interface {
	Record(event *entity.AuditEvent)
}

// Controller is the approval lifecycle state machine owner. All request
// mutations flow through it; the store serializes the actual writes.
type Controller struct {
	store  *store.RequestStore
	sink   EventSink
	logger *zap.Logger
}

// NewController creates a lifecycle controller
func NewController(requestStore *store.RequestStore, sink EventSink, logger *zap.Logger) *Controller {
	return &Controller{
		store:  requestStore,
		sink:   sink,
		logger: logger,
	}
}

// Create allocates an id and a short code, inserts a pending request and
// emits a request_created audit event. Each call produces a distinct
// request even for semantically identical payloads; duplicate suppression
// is a caller concern.
func (c *Controller) Create(ctx context.Context, payload entity.Payload, requestedBy string) (*entity.ApprovalRequest, error) {
	if payload == nil || !payload.Kind().IsValid() {
		return nil, ErrInvalidKind
	}

	req := &entity.ApprovalRequest{
		ID:          identifier.NewRequestID(),
		Kind:        payload.Kind(),
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
		Status:      entity.StatusPending,
		Payload:     payload,
	}

	inserted := false
	for attempt := 0; attempt < shortCodeAttempts; attempt++ {
		code, err := identifier.NewShortCode()
		if err != nil {
			return nil, fmt.Errorf("generate short code: %w", err)
		}
		req.ShortCode = code

		err = c.store.Insert(req)
		if err == nil {
			inserted = true
			break
		}
		if errors.Is(err, store.ErrDuplicateShortCode) {
			c.logger.Warn("Short code collision, regenerating",
				zap.String("request_id", req.ID),
				zap.Int("attempt", attempt+1))
			continue
		}
		// Duplicate id after a fresh generation is an internal invariant
		// violation, not a user-facing condition.
		return nil, fmt.Errorf("insert request: %w", err)
	}
	if !inserted {
		return nil, ErrShortCodeExhausted
	}

	c.sink.Record(&entity.AuditEvent{
		EntityID:     req.ID,
		ShortCode:    req.ShortCode,
		Action:       entity.AuditActionRequestCreated,
		ActorID:      requestedBy,
		TimestampUTC: req.RequestedAt,
		Details:      payload.AuditFields(),
	})

	c.logger.Info("Approval request created",
		zap.String("request_id", req.ID),
		zap.String("kind", req.Kind.String()),
		zap.String("short_code", req.ShortCode),
		zap.String("requested_by", requestedBy))

	return req.Clone(), nil
}

// Approve moves a pending request to approved and returns it, short code
// included, for the caller to relay to the action gate.
func (c *Controller) Approve(ctx context.Context, id, approvedBy, reason string) (*entity.ApprovalRequest, error) {
	return c.decide(ctx, id, approvedBy, reason, lifecycle.TriggerApprove)
}

// Reject moves a pending request to rejected. The reason is mandatory.
func (c *Controller) Reject(ctx context.Context, id, rejectedBy, reason string) (*entity.ApprovalRequest, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}
	return c.decide(ctx, id, rejectedBy, reason, lifecycle.TriggerReject)
}

func (c *Controller) decide(ctx context.Context, id, actor, reason string, trigger lifecycle.Trigger) (*entity.ApprovalRequest, error) {
	decidedAt := time.Now().UTC()

	updated, err := c.store.Update(id, func(req *entity.ApprovalRequest) error {
		next, err := lifecycle.Fire(req.Status, trigger)
		if err != nil {
			return ErrAlreadyDecided
		}
		req.Status = next
		req.Decision = &entity.Decision{
			DecidedBy: actor,
			DecidedAt: decidedAt,
			Reason:    reason,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	action := entity.AuditActionApproved
	if trigger == lifecycle.TriggerReject {
		action = entity.AuditActionRejected
	}
	c.sink.Record(&entity.AuditEvent{
		EntityID:     updated.ID,
		ShortCode:    updated.ShortCode,
		Action:       action,
		ActorID:      actor,
		TimestampUTC: decidedAt,
		Details:      map[string]interface{}{"reason": reason},
	})

	c.logger.Info("Approval request decided",
		zap.String("request_id", updated.ID),
		zap.String("short_code", updated.ShortCode),
		zap.String("status", updated.Status.String()),
		zap.String("decided_by", actor))

	return updated, nil
}

// ValidateShortCode returns true iff a request with that code exists, is
// approved and has not yet been consumed.
func (c *Controller) ValidateShortCode(code string) bool {
	req := c.store.GetByShortCode(code)
	return req != nil && req.Status == entity.StatusApproved && !req.Consumed
}

// Consume atomically marks an approved, not-yet-consumed request as spent
// and returns it for execution. At most one concurrent caller succeeds for
// a given code.
func (c *Controller) Consume(code string) (*entity.ApprovalRequest, error) {
	req, err := c.store.Consume(code)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, store.ErrNotApproved):
			return nil, ErrNotApproved
		case errors.Is(err, store.ErrAlreadyConsumed):
			return nil, ErrAlreadyConsumed
		}
		return nil, err
	}

	c.sink.Record(&entity.AuditEvent{
		EntityID:     req.ID,
		ShortCode:    req.ShortCode,
		Action:       entity.AuditActionConsumed,
		ActorID:      req.Decision.DecidedBy,
		TimestampUTC: *req.ConsumedAt,
	})

	c.logger.Info("Short code consumed",
		zap.String("request_id", req.ID),
		zap.String("short_code", req.ShortCode))

	return req, nil
}

// Get returns the request with the given id, or ErrNotFound
func (c *Controller) Get(id string) (*entity.ApprovalRequest, error) {
	req := c.store.Get(id)
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

// GetByShortCode returns the request holding the code, or nil if absent
func (c *Controller) GetByShortCode(code string) *entity.ApprovalRequest {
	return c.store.GetByShortCode(code)
}

// ListPending returns pending requests, optionally filtered by requester
func (c *Controller) ListPending(requestedBy string) []*entity.ApprovalRequest {
	return c.store.ListPending(requestedBy)
}

// ExpirePendingOlderThan rejects pending requests older than the given age
// with a system-generated reason. Returns the number of requests expired.
func (c *Controller) ExpirePendingOlderThan(ctx context.Context, age time.Duration) int {
	cutoff := time.Now().Add(-age)
	expired := 0
	for _, req := range c.store.ListPending("") {
		if req.RequestedAt.After(cutoff) {
			continue
		}
		if _, err := c.Reject(ctx, req.ID, systemActor, "expired"); err != nil {
			// A concurrent decision beat the sweep; nothing to do.
			if !errors.Is(err, ErrAlreadyDecided) && !errors.Is(err, ErrNotFound) {
				c.logger.Error("Failed to expire pending request",
					zap.String("request_id", req.ID),
					zap.Error(err))
			}
			continue
		}
		expired++
	}
	return expired
}

// CleanupTerminalOlderThan purges decided requests older than the given
// age from the in-memory store. The audit trail keeps the durable record.
func (c *Controller) CleanupTerminalOlderThan(age time.Duration) int {
	return c.store.RemoveTerminalOlderThan(age)
}
