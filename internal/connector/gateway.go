// Package connector is the outbound execution facade: one HTTP endpoint
// per action kind, invoked by the action gate after a short code is
// consumed. The gateway knows nothing about approvals; it just delivers
// payloads.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/domain/entity"
	"github.com/adminchat/approvalgate/internal/gate"
)

// Config holds connector endpoint configuration
type Config struct {
	EmailURL   string
	MeetingURL string
	TeamsURL   string
	Timeout    time.Duration
}

// Gateway posts payloads to the configured connector endpoints
type Gateway struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewGateway creates a connector gateway with a shared HTTP client
func NewGateway(config Config, logger *zap.Logger) *Gateway {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Gateway{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Executor returns the gate executor that delivers payloads of the given
// kind, or an error if no endpoint is configured for it.
func (g *Gateway) Executor(kind entity.ActionKind) (gate.Executor, error) {
	url, err := g.endpoint(kind)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, payload entity.Payload) error {
		return g.post(ctx, url, payload)
	}, nil
}

func (g *Gateway) endpoint(kind entity.ActionKind) (string, error) {
	var url string
	switch kind {
	case entity.KindSendEmail:
		url = g.config.EmailURL
	case entity.KindScheduleMeeting:
		url = g.config.MeetingURL
	case entity.KindPostToTeams:
		url = g.config.TeamsURL
	default:
		return "", fmt.Errorf("no connector for kind %s", kind)
	}
	if url == "" {
		return "", fmt.Errorf("connector endpoint not configured for kind %s", kind)
	}
	return url, nil
}

func (g *Gateway) post(ctx context.Context, url string, payload entity.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build connector request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("call connector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("connector returned status %d", resp.StatusCode)
	}

	g.logger.Info("Connector call succeeded",
		zap.String("url", url),
		zap.String("kind", payload.Kind().String()))
	return nil
}
