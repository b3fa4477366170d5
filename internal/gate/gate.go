// Package gate is the enforcement point between an approved request and
// its external side effect. Consumption happens before execution, so a
// short code grants at most one execution even if the process dies while
// the executor call is in flight.
package gate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/domain/entity"
)

// Executor performs the real external action for a payload. It is an
// opaque capability; network transport, retries below the gate and
// authentication all live behind it.
type Executor func(ctx context.Context, payload entity.Payload) error

// Consumer is the slice of the lifecycle controller the gate depends on
type Consumer interface {
	Consume(code string) (*entity.ApprovalRequest, error)
}

// ExecutionError reports an executor failure after the short code was
// already spent. The code is carried so an operator can check whether the
// side effect partially happened; retry requires a fresh approval.
type ExecutionError struct {
	ShortCode string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed for short code %s: %v", e.ShortCode, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Gate validates short codes and dispatches approved payloads to executors
type Gate struct {
	consumer Consumer
	logger   *zap.Logger
}

// NewGate creates an action gate backed by the given consumer
func NewGate(consumer Consumer, logger *zap.Logger) *Gate {
	return &Gate{
		consumer: consumer,
		logger:   logger,
	}
}

// ExecuteIfApproved consumes the short code and, on success, invokes the
// executor exactly once with the original payload. Consumption is not
// rolled back if the executor fails; the failure surfaces as an
// *ExecutionError wrapping the cause. Consume failures are returned
// unchanged and the executor is never invoked.
func (g *Gate) ExecuteIfApproved(ctx context.Context, shortCode string, execute Executor) (*entity.ApprovalRequest, error) {
	req, err := g.consumer.Consume(shortCode)
	if err != nil {
		return nil, err
	}

	if err := execute(ctx, req.Payload); err != nil {
		g.logger.Error("Executor failed after consumption",
			zap.String("request_id", req.ID),
			zap.String("short_code", shortCode),
			zap.String("kind", req.Kind.String()),
			zap.Error(err))
		return req, &ExecutionError{ShortCode: shortCode, Err: err}
	}

	g.logger.Info("Approved action executed",
		zap.String("request_id", req.ID),
		zap.String("short_code", shortCode),
		zap.String("kind", req.Kind.String()))

	return req, nil
}
