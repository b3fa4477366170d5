package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/domain/entity"
)

type mockConsumer struct {
	consumeFunc func(code string) (*entity.ApprovalRequest, error)
}

func (m *mockConsumer) Consume(code string) (*entity.ApprovalRequest, error) {
	return m.consumeFunc(code)
}

func approvedRequest(code string) *entity.ApprovalRequest {
	return &entity.ApprovalRequest{
		ID:        "r1",
		Kind:      entity.KindSendEmail,
		Status:    entity.StatusApproved,
		ShortCode: code,
		Consumed:  true,
		Payload:   entity.EmailPayload{Recipients: []string{"a@b.com"}, Subject: "S", Body: "B"},
	}
}

func TestExecuteIfApproved(t *testing.T) {
	consumer := &mockConsumer{
		consumeFunc: func(code string) (*entity.ApprovalRequest, error) {
			return approvedRequest(code), nil
		},
	}
	g := NewGate(consumer, zap.NewNop())

	calls := 0
	var received entity.Payload
	executor := func(ctx context.Context, payload entity.Payload) error {
		calls++
		received = payload
		return nil
	}

	req, err := g.ExecuteIfApproved(context.Background(), "ABC123", executor)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "executor runs exactly once")
	assert.Equal(t, req.Payload, received, "executor receives the original payload")
}

func TestExecuteConsumeFails(t *testing.T) {
	sentinel := errors.New("short code already consumed")
	consumer := &mockConsumer{
		consumeFunc: func(code string) (*entity.ApprovalRequest, error) {
			return nil, sentinel
		},
	}
	g := NewGate(consumer, zap.NewNop())

	calls := 0
	_, err := g.ExecuteIfApproved(context.Background(), "ABC123", func(ctx context.Context, payload entity.Payload) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, sentinel, "consume errors pass through unchanged")
	assert.Zero(t, calls, "executor must not run when consume fails")
}

func TestExecuteExecutorFails(t *testing.T) {
	consumer := &mockConsumer{
		consumeFunc: func(code string) (*entity.ApprovalRequest, error) {
			return approvedRequest(code), nil
		},
	}
	g := NewGate(consumer, zap.NewNop())

	cause := errors.New("smtp timeout")
	req, err := g.ExecuteIfApproved(context.Background(), "ABC123", func(ctx context.Context, payload entity.Payload) error {
		return cause
	})

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "ABC123", execErr.ShortCode, "short code surfaces for manual verification")
	assert.ErrorIs(t, err, cause, "underlying cause is wrapped")

	// The request comes back even on failure; the code stays spent
	require.NotNil(t, req)
	assert.True(t, req.Consumed)
}
