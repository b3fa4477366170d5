package entity

import "time"

// Audit actions emitted by the lifecycle controller
const (
	AuditActionRequestCreated = "request_created"
	AuditActionApproved       = "approved"
	AuditActionRejected       = "rejected"
	AuditActionConsumed       = "consumed"
)

// AuditEvent is one lifecycle event bound for the persistent audit trail.
// Details are masked by the sink before the event leaves the process.
type AuditEvent struct {
	EntityID     string                 `json:"entity_id"`
	ShortCode    string                 `json:"short_code"`
	Action       string                 `json:"action"`
	ActorID      string                 `json:"actor_id"`
	TimestampUTC time.Time              `json:"timestamp_utc"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// AuditRecord is a persisted, already-masked audit event
type AuditRecord struct {
	ID           int64     `json:"id"`
	EntityID     string    `json:"entity_id"`
	ShortCode    string    `json:"short_code"`
	Action       string    `json:"action"`
	ActorID      string    `json:"actor_id"`
	TimestampUTC time.Time `json:"timestamp_utc"`
	Details      string    `json:"details,omitempty"` // masked, JSON-encoded
}
