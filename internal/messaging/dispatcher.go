package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/ports"
	"go.uber.org/zap"
)

// SettingsListener is notified after the settings changed
type SettingsListener func(ctx context.Context, settings core.Settings)

// Dispatcher answers host requests
type Dispatcher struct {
	service  *core.ThreatAnalysisService
	settings ports.SettingsStore
	logger   *zap.Logger

	mu        sync.RWMutex
	listeners []SettingsListener
}

// NewDispatcher creates a new request dispatcher
func NewDispatcher(service *core.ThreatAnalysisService, settings ports.SettingsStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		service:  service,
		settings: settings,
		logger:   logger,
	}
}

// OnSettingsChanged registers a listener for settings updates
func (d *Dispatcher) OnSettingsChanged(listener SettingsListener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners = append(d.listeners, listener)
}

// Handle answers one request. Failures are reported in the response.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) *Response {
	logger := d.logger.With(zap.String("action", req.Action), zap.String("request_id", req.ID))

	switch req.Action {
	case ActionAnalyzeEmail:
		verdict, err := d.analyze(ctx, req.Data)
		if err != nil {
			logger.Error("Email analysis failed", zap.Error(err))
			return failure(err)
		}
		return success(verdict)

	case ActionGetSettings:
		settings, err := d.settings.Get(ctx)
		if err != nil {
			logger.Error("Failed to load settings", zap.Error(err))
			return failure(err)
		}
		return success(settings)

	case ActionUpdateSettings:
		settings, err := d.updateSettings(ctx, req.Data)
		if err != nil {
			logger.Warn("Failed to update settings", zap.Error(err))
			return failure(err)
		}
		d.notify(ctx, settings)
		return success(nil)

	case ActionCheckAIStatus:
		return success(AIStatus{Ready: d.service.ModelReady()})

	default:
		logger.Warn("Unknown message action")
		return failure(fmt.Errorf("unknown action %q", req.Action))
	}
}

func (d *Dispatcher) analyze(ctx context.Context, data json.RawMessage) (*core.ThreatVerdict, error) {
	var in core.EmailFeatures
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("invalid email data: %w", err)
	}

	features, err := core.NewEmailFeatures(in.Platform, in.From, in.Subject, in.Body, in.Links, in.Attachments)
	if err != nil {
		return nil, err
	}

	return d.service.AnalyzeEmail(ctx, features)
}

// updateSettings merges the fields present in data into the current settings
func (d *Dispatcher) updateSettings(ctx context.Context, data json.RawMessage) (core.Settings, error) {
	settings, err := d.settings.Get(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return core.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	if err := d.settings.Set(ctx, settings); err != nil {
		return core.Settings{}, err
	}
	return settings, nil
}

func (d *Dispatcher) notify(ctx context.Context, settings core.Settings) {
	d.mu.RLock()
	listeners := append([]SettingsListener(nil), d.listeners...)
	d.mu.RUnlock()

	for _, listener := range listeners {
		listener(ctx, settings)
	}
}
