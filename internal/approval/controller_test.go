package approval

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/domain/entity"
	"github.com/adminchat/approvalgate/internal/store"
)

type recordingSink struct {
	mu     sync.Mutex
	events []*entity.AuditEvent
}

func (s *recordingSink) Record(event *entity.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

func newController() (*Controller, *recordingSink) {
	sink := &recordingSink{}
	return NewController(store.New(), sink, zap.NewNop()), sink
}

func emailPayload() entity.Payload {
	return entity.EmailPayload{Recipients: []string{"a@b.com"}, Subject: "S", Body: "B"}
}

func TestCreate(t *testing.T) {
	c, sink := newController()
	ctx := context.Background()

	req, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPending, req.Status)
	assert.Equal(t, entity.KindSendEmail, req.Kind)
	assert.Equal(t, "alice", req.RequestedBy)
	assert.Len(t, req.ShortCode, 6)

	byCode := c.GetByShortCode(req.ShortCode)
	require.NotNil(t, byCode)
	assert.Equal(t, req.ID, byCode.ID)

	assert.Equal(t, []string{entity.AuditActionRequestCreated}, sink.actions())
}

func TestCreateNilPayload(t *testing.T) {
	c, _ := newController()

	_, err := c.Create(context.Background(), nil, "alice")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestCreateDistinctRequests(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()

	// Identical payloads are deliberately not deduplicated
	first, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)
	second, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.ShortCode, second.ShortCode)
}

func TestCreateManyDistinctShortCodes(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()

	codes := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		req, err := c.Create(ctx, emailPayload(), "alice")
		require.NoError(t, err)
		codes[req.ShortCode] = true
	}

	assert.Len(t, codes, 1000, "active short codes must be unique")
}

func TestApprove(t *testing.T) {
	c, sink := newController()
	ctx := context.Background()

	req, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)

	approved, err := c.Approve(ctx, req.ID, "bob", "looks fine")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, approved.Status)
	require.NotNil(t, approved.Decision)
	assert.Equal(t, "bob", approved.Decision.DecidedBy)
	assert.Equal(t, req.ShortCode, approved.ShortCode)

	_, err = c.Approve(ctx, req.ID, "bob", "")
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	assert.Equal(t, []string{entity.AuditActionRequestCreated, entity.AuditActionApproved}, sink.actions())
}

func TestRejectThenApprove(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()

	req, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)

	rejected, err := c.Reject(ctx, req.ID, "bob", "wrong recipient")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, rejected.Status)
	assert.Equal(t, "wrong recipient", rejected.Decision.Reason)

	_, err = c.Approve(ctx, req.ID, "bob", "")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestRejectRequiresReason(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()

	req, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)

	_, err = c.Reject(ctx, req.ID, "bob", "")
	assert.ErrorIs(t, err, ErrMissingReason)

	// Request must remain pending after the failed rejection
	current, err := c.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, current.Status)
}

func TestDecideUnknownRequest(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()

	_, err := c.Approve(ctx, "missing", "bob", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Reject(ctx, "missing", "bob", "why")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateAndConsume(t *testing.T) {
	c, sink := newController()
	ctx := context.Background()

	req, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)

	assert.False(t, c.ValidateShortCode(req.ShortCode), "pending code is not executable")

	_, err = c.Consume(req.ShortCode)
	assert.ErrorIs(t, err, ErrNotApproved)

	_, err = c.Approve(ctx, req.ID, "bob", "")
	require.NoError(t, err)
	assert.True(t, c.ValidateShortCode(req.ShortCode))

	consumed, err := c.Consume(req.ShortCode)
	require.NoError(t, err)
	assert.True(t, consumed.Consumed)

	assert.False(t, c.ValidateShortCode(req.ShortCode))
	_, err = c.Consume(req.ShortCode)
	assert.ErrorIs(t, err, ErrAlreadyConsumed)

	_, err = c.Consume("ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{
		entity.AuditActionRequestCreated,
		entity.AuditActionApproved,
		entity.AuditActionConsumed,
	}, sink.actions())
}

func TestRejectedCodeNeverValidates(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()

	req, err := c.Create(ctx, entity.TeamsPayload{Channel: "general", Message: "hi"}, "alice")
	require.NoError(t, err)

	_, err = c.Reject(ctx, req.ID, "bob", "wrong channel")
	require.NoError(t, err)

	assert.False(t, c.ValidateShortCode(req.ShortCode))
	_, err = c.Consume(req.ShortCode)
	assert.ErrorIs(t, err, ErrNotApproved)
}

func TestConsumeConcurrent(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()

	req, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)
	_, err = c.Approve(ctx, req.ID, "bob", "")
	require.NoError(t, err)

	const callers = 25
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Consume(req.ShortCode)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyConsumed)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestExpirePendingOlderThan(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()

	stale, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)
	fresh, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)

	// Zero age expires everything created before this instant
	expired := c.ExpirePendingOlderThan(ctx, 0)
	assert.Equal(t, 2, expired)

	for _, id := range []string{stale.ID, fresh.ID} {
		req, err := c.Get(id)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusRejected, req.Status)
		assert.Equal(t, "expired", req.Decision.Reason)
		assert.Equal(t, "system", req.Decision.DecidedBy)
	}

	// Nothing left to expire
	assert.Equal(t, 0, c.ExpirePendingOlderThan(ctx, 0))
}

func TestCleanupTerminalOlderThan(t *testing.T) {
	c, _ := newController()
	ctx := context.Background()

	req, err := c.Create(ctx, emailPayload(), "alice")
	require.NoError(t, err)
	_, err = c.Approve(ctx, req.ID, "bob", "")
	require.NoError(t, err)

	assert.Equal(t, 0, c.CleanupTerminalOlderThan(time.Hour), "fresh decisions stay")
	assert.Equal(t, 1, c.CleanupTerminalOlderThan(0))

	_, err = c.Get(req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
