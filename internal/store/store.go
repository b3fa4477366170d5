// Package store holds the in-process collection of approval requests. All
// methods are safe for concurrent use and work with copies to eliminate
// data races between goroutines; the store lock is the serialization point
// for every status mutation, including consumption.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/adminchat/approvalgate/internal/domain/entity"
)

var (
	// ErrDuplicateID is returned when inserting a request whose id is already present
	ErrDuplicateID = errors.New("duplicate request id")

	// ErrDuplicateShortCode is returned when inserting a request whose short
	// code collides with an active one; the caller regenerates and retries
	ErrDuplicateShortCode = errors.New("duplicate short code")

	// ErrNotFound is returned when no request matches the given id or short code
	ErrNotFound = errors.New("request not found")

	// ErrInvalidTransition is returned when a mutator would move a request
	// out of a terminal status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotApproved is returned when consuming a request that is not approved
	ErrNotApproved = errors.New("request not approved")

	// ErrAlreadyConsumed is returned when a spent short code is replayed
	ErrAlreadyConsumed = errors.New("short code already consumed")
)

// RequestStore is the single shared mutable resource of the workflow engine
type RequestStore struct {
	mu     sync.Mutex
	byID   map[string]*entity.ApprovalRequest
	byCode map[string]string // short code -> request id
}

// New creates an empty request store
func New() *RequestStore {
	return &RequestStore{
		byID:   make(map[string]*entity.ApprovalRequest),
		byCode: make(map[string]string),
	}
}

// Insert adds a new request. It fails with ErrDuplicateID if the id is
// already present and ErrDuplicateShortCode if the short code is held by
// any request still in the store.
func (s *RequestStore) Insert(req *entity.ApprovalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[req.ID]; ok {
		return ErrDuplicateID
	}
	if _, ok := s.byCode[req.ShortCode]; ok {
		return ErrDuplicateShortCode
	}

	s.byID[req.ID] = req.Clone()
	s.byCode[req.ShortCode] = req.ID
	return nil
}

// Get returns a copy of the request with the given id, or nil if absent
func (s *RequestStore) Get(id string) *entity.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[id]
	if !ok {
		return nil
	}
	return req.Clone()
}

// GetByShortCode returns a copy of the request holding the given short
// code, or nil if absent. The copy reflects the most recent state.
func (s *RequestStore) GetByShortCode(code string) *entity.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byCode[code]
	if !ok {
		return nil
	}
	return s.byID[id].Clone()
}

// Update applies a state transition in place under the store lock. The
// mutator receives the live request; any error it returns aborts the
// update. Moving a request out of a terminal status fails with
// ErrInvalidTransition regardless of what the mutator did.
func (s *RequestStore) Update(id string, mutate func(*entity.ApprovalRequest) error) (*entity.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	prev := req.Status
	draft := req.Clone()
	if err := mutate(draft); err != nil {
		return nil, err
	}
	if prev.IsTerminal() && draft.Status != prev {
		return nil, ErrInvalidTransition
	}

	s.byID[id] = draft
	return draft.Clone(), nil
}

// ListPending returns all requests currently pending, optionally filtered
// by requester identity (empty string means no filter).
func (s *RequestStore) ListPending(requestedBy string) []*entity.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*entity.ApprovalRequest
	for _, req := range s.byID {
		if req.Status != entity.StatusPending {
			continue
		}
		if requestedBy != "" && req.RequestedBy != requestedBy {
			continue
		}
		pending = append(pending, req.Clone())
	}
	return pending
}

// Consume atomically marks an approved, not-yet-consumed request as spent
// and returns a copy for execution. Exactly one of any number of
// concurrent callers with the same code succeeds.
func (s *RequestStore) Consume(code string) (*entity.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	req := s.byID[id]
	if req.Status != entity.StatusApproved {
		return nil, ErrNotApproved
	}
	if req.Consumed {
		return nil, ErrAlreadyConsumed
	}

	now := time.Now().UTC()
	req.Consumed = true
	req.ConsumedAt = &now
	return req.Clone(), nil
}

// RemoveTerminalOlderThan purges requests whose status is terminal and
// whose decision precedes now minus the given age. The terminal record was
// already audited at decision time, so this is side-effect only. Returns
// the number of requests removed.
func (s *RequestStore) RemoveTerminalOlderThan(age time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-age)
	removed := 0
	for id, req := range s.byID {
		if !req.Status.IsTerminal() || req.Decision == nil {
			continue
		}
		if req.Decision.DecidedAt.After(cutoff) {
			continue
		}
		delete(s.byID, id)
		delete(s.byCode, req.ShortCode)
		removed++
	}
	return removed
}

// Len returns the number of requests currently held
func (s *RequestStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
