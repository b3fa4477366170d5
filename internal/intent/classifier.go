// Package intent routes free-text chat input to an action kind by keyword
// matching. This is deliberately not natural-language understanding: the
// chat front end only needs a category suggestion to pre-fill the approval
// request form, and a wrong guess costs one corrected dropdown.
package intent

import (
	"strings"

	"github.com/adminchat/approvalgate/internal/domain/entity"
)

// Result is the classifier verdict for one input
type Result struct {
	Kind             entity.ActionKind `json:"kind"`
	Confidence       float64           `json:"confidence"`
	SuggestedActions []string          `json:"suggested_actions"`
}

// kindKeywords maps each action kind to the phrases that vote for it.
// Multi-word phrases are matched as substrings of the lowercased input.
var kindKeywords = map[entity.ActionKind][]string{
	entity.KindSendEmail: {
		"email", "e-mail", "mail", "send a message to", "write to", "reply to",
		"inbox", "cc", "subject line",
	},
	entity.KindScheduleMeeting: {
		"meeting", "schedule", "calendar", "invite", "appointment", "book a room",
		"call with", "sync with", "catch up with",
	},
	entity.KindPostToTeams: {
		"teams", "channel", "post", "announce", "share with the team", "broadcast",
	},
}

var suggestedActions = map[entity.ActionKind][]string{
	entity.KindSendEmail:       {"draft_email", "request_email_approval"},
	entity.KindScheduleMeeting: {"propose_times", "request_meeting_approval"},
	entity.KindPostToTeams:     {"draft_post", "request_teams_approval"},
}

// Classifier scores free text against per-kind keyword lists
type Classifier struct{}

// NewClassifier creates a keyword intent classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the best-matching kind with a confidence in [0,1].
// Confidence 0 with an empty kind means no keyword matched at all; the
// caller should ask the user instead of guessing.
func (c *Classifier) Classify(text string) Result {
	lower := strings.ToLower(text)

	var best entity.ActionKind
	bestHits := 0
	totalHits := 0
	for kind, keywords := range kindKeywords {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		totalHits += hits
		if hits > bestHits {
			bestHits = hits
			best = kind
		}
	}

	if bestHits == 0 {
		return Result{}
	}

	// Share of all keyword hits that voted for the winner. A single
	// unambiguous hit scores 1.0; mixed signals pull the score down.
	confidence := float64(bestHits) / float64(totalHits)

	return Result{
		Kind:             best,
		Confidence:       confidence,
		SuggestedActions: append([]string(nil), suggestedActions[best]...),
	}
}
