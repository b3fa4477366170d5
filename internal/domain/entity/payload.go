package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the kind-specific content of an approval request. The workflow
// engine treats it as opaque beyond masking its audit fields and handing it
// to the external executor after approval.
type Payload interface {
	Kind() ActionKind

	// AuditFields returns the payload as a flat map for the audit trail.
	// Values pass through the masker before leaving the process.
	AuditFields() map[string]interface{}
}

// EmailPayload carries the content of a gated outbound email
type EmailPayload struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

func (p EmailPayload) Kind() ActionKind { return KindSendEmail }

func (p EmailPayload) AuditFields() map[string]interface{} {
	return map[string]interface{}{
		"recipients": append([]string(nil), p.Recipients...),
		"subject":    p.Subject,
		"body":       p.Body,
	}
}

// MeetingPayload carries the content of a gated meeting invitation
type MeetingPayload struct {
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Location  string    `json:"location,omitempty"`
	Attendees []string  `json:"attendees"`
}

func (p MeetingPayload) Kind() ActionKind { return KindScheduleMeeting }

func (p MeetingPayload) AuditFields() map[string]interface{} {
	return map[string]interface{}{
		"title":     p.Title,
		"start":     p.Start.UTC().Format(time.RFC3339),
		"end":       p.End.UTC().Format(time.RFC3339),
		"location":  p.Location,
		"attendees": append([]string(nil), p.Attendees...),
	}
}

// TeamsPayload carries the content of a gated Teams channel post
type TeamsPayload struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

func (p TeamsPayload) Kind() ActionKind { return KindPostToTeams }

func (p TeamsPayload) AuditFields() map[string]interface{} {
	return map[string]interface{}{
		"channel": p.Channel,
		"message": p.Message,
	}
}

// DecodePayload unmarshals raw JSON into the payload variant for the given
// kind, eliminating invalid field combinations at the boundary.
func DecodePayload(kind ActionKind, raw json.RawMessage) (Payload, error) {
	switch kind {
	case KindSendEmail:
		var p EmailPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode email payload: %w", err)
		}
		return p, nil
	case KindScheduleMeeting:
		var p MeetingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode meeting payload: %w", err)
		}
		return p, nil
	case KindPostToTeams:
		var p TeamsPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode teams payload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown action kind: %s", kind)
	}
}
