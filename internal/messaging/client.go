package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap"
)

// Client is the content side of the messaging boundary
type Client struct {
	transport Transport
	logger    *zap.Logger
}

// NewClient creates a new messaging client
func NewClient(transport Transport, logger *zap.Logger) *Client {
	return &Client{
		transport: transport,
		logger:    logger,
	}
}

// AnalyzeEmail asks the host to classify an email. Any failure to obtain a
// verdict wraps core.ErrTransportFailure.
func (c *Client) AnalyzeEmail(ctx context.Context, features *core.EmailFeatures) (*core.ThreatVerdict, error) {
	var verdict core.ThreatVerdict
	if err := c.call(ctx, ActionAnalyzeEmail, features, &verdict); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, wrapTransport(err)
	}
	if !verdict.ThreatLevel.Valid() {
		return nil, fmt.Errorf("%w: invalid verdict level %q", core.ErrTransportFailure, verdict.ThreatLevel)
	}
	return &verdict, nil
}

// Settings fetches the current settings. Defaults are returned when the host
// cannot answer.
func (c *Client) Settings(ctx context.Context) core.Settings {
	settings, err := c.GetSettings(ctx)
	if err != nil {
		c.logger.Warn("Using default settings", zap.Error(err))
		return core.DefaultSettings()
	}
	return settings
}

// GetSettings fetches the current settings
func (c *Client) GetSettings(ctx context.Context) (core.Settings, error) {
	settings := core.DefaultSettings()
	if err := c.call(ctx, ActionGetSettings, nil, &settings); err != nil {
		return core.Settings{}, fmt.Errorf("%w: %w", core.ErrConfigUnavailable, err)
	}
	return settings, nil
}

// UpdateSettings sends a partial settings update. Only the keys present in
// patch are changed.
func (c *Client) UpdateSettings(ctx context.Context, patch map[string]interface{}) error {
	return c.call(ctx, ActionUpdateSettings, patch, nil)
}

// ModelReady reports whether the host has a model classifier
func (c *Client) ModelReady(ctx context.Context) (bool, error) {
	var status AIStatus
	if err := c.call(ctx, ActionCheckAIStatus, nil, &status); err != nil {
		return false, err
	}
	return status.Ready, nil
}

func (c *Client) call(ctx context.Context, action string, data, result interface{}) error {
	req := &Request{
		ID:     uuid.NewString(),
		Action: action,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", action, err)
		}
		req.Data = raw
	}

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s failed: %s", action, resp.Error)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", action, err)
		}
	}
	return nil
}

func wrapTransport(err error) error {
	if errors.Is(err, core.ErrTransportFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrTransportFailure, err)
}
