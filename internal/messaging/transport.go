package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap"
)

// InProcessTransport hands requests straight to a dispatcher
type InProcessTransport struct {
	dispatcher *Dispatcher
}

// NewInProcessTransport creates a transport for a host in the same process
func NewInProcessTransport(dispatcher *Dispatcher) *InProcessTransport {
	return &InProcessTransport{dispatcher: dispatcher}
}

// Send dispatches the request
func (t *InProcessTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.dispatcher.Handle(ctx, req), nil
}

// HTTPTransport posts requests to a host server
type HTTPTransport struct {
	endpoint string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHTTPTransport creates a transport for the host at baseURL
func NewHTTPTransport(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPTransport {
	return &HTTPTransport{
		endpoint: strings.TrimRight(baseURL, "/") + messagePath,
		timeout:  timeout,
		logger:   logger,
	}
}

// Send posts the request and decodes the host's response
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, context.DeadlineExceeded
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Post(t.endpoint).JSON(req)
	if timeout > 0 {
		agent.Timeout(timeout)
	}

	t.logger.Debug("Sending host request",
		zap.String("endpoint", t.endpoint),
		zap.String("action", req.Action),
		zap.String("request_id", req.ID))

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrTransportFailure, errors.Join(errs...))
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: status %d: %w", core.ErrTransportFailure, status, err)
	}
	if status != fiber.StatusOK && resp.Success {
		return nil, fmt.Errorf("%w: unexpected status %d", core.ErrTransportFailure, status)
	}

	return &resp, nil
}
