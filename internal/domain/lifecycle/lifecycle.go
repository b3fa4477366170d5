// Package lifecycle defines the approval request state machine: which
// decision triggers are permitted from which status, and nothing else.
// The controller owns persistence and audit; this package only answers
// "is this transition legal".
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/adminchat/approvalgate/internal/domain/entity"
)

// Trigger represents an event that can cause a status transition
type Trigger string

const (
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// ErrInvalidTransition is returned when a status transition is not allowed
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions maps each non-terminal status to its permitted triggers.
// Terminal statuses have no entries: once decided, a request never moves.
var transitions = map[entity.Status]map[Trigger]entity.Status{
	entity.StatusPending: {
		TriggerApprove: entity.StatusApproved,
		TriggerReject:  entity.StatusRejected,
	},
}

// CanFire returns true if the trigger is permitted from the given status
func CanFire(from entity.Status, trigger Trigger) bool {
	_, ok := transitions[from][trigger]
	return ok
}

// Fire returns the status reached by firing the trigger from the given
// status, or ErrInvalidTransition if the transition is not permitted.
func Fire(from entity.Status, trigger Trigger) (entity.Status, error) {
	to, ok := transitions[from][trigger]
	if !ok {
		return from, fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, from)
	}
	return to, nil
}

// PermittedTriggers returns all triggers that can be fired from the status
func PermittedTriggers(from entity.Status) []Trigger {
	perms := transitions[from]
	triggers := make([]Trigger, 0, len(perms))
	for t := range perms {
		triggers = append(triggers, t)
	}
	return triggers
}
