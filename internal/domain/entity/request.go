package entity

import (
	"time"
)

// ActionKind identifies the category of external communication a request gates.
type ActionKind string

const (
	KindSendEmail       ActionKind = "SEND_EMAIL"
	KindScheduleMeeting ActionKind = "SCHEDULE_MEETING"
	KindPostToTeams     ActionKind = "POST_TO_TEAMS"
)

var validKinds = map[ActionKind]bool{
	KindSendEmail:       true,
	KindScheduleMeeting: true,
	KindPostToTeams:     true,
}

// IsValid returns true if the kind is a known action kind
func (k ActionKind) IsValid() bool {
	return validKinds[k]
}

// String returns the string representation of the kind
func (k ActionKind) String() string {
	return string(k)
}

// Status represents the lifecycle status of an approval request
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsTerminal returns true once a decision has been recorded (no further transitions)
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// Decision records the terminal verdict on a request
type Decision struct {
	DecidedBy string    `json:"decided_by"`
	DecidedAt time.Time `json:"decided_at"`
	Reason    string    `json:"reason,omitempty"`
}

// ApprovalRequest is one human-gated request to perform an external action.
// The id is assigned at creation and immutable; the short code is the
// human-facing correlation token and the one-time execution credential.
type ApprovalRequest struct {
	ID          string     `json:"id"`
	Kind        ActionKind `json:"kind"`
	RequestedBy string     `json:"requested_by"`
	RequestedAt time.Time  `json:"requested_at"`
	Status      Status     `json:"status"`
	ShortCode   string     `json:"short_code"`
	Payload     Payload    `json:"payload"`
	Decision    *Decision  `json:"decision,omitempty"`
	Consumed    bool       `json:"consumed"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty"`
}

// Clone returns a deep copy so store callers never share mutable state
func (r *ApprovalRequest) Clone() *ApprovalRequest {
	cp := *r
	if r.Decision != nil {
		d := *r.Decision
		cp.Decision = &d
	}
	if r.ConsumedAt != nil {
		t := *r.ConsumedAt
		cp.ConsumedAt = &t
	}
	return &cp
}
