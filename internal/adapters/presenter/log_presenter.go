package presenter

import (
	"context"
	"sync"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap"
)

// LogPresenter reports verdicts through the structured logger
type LogPresenter struct {
	logger *zap.Logger

	mu    sync.Mutex
	shown map[core.ElementID]core.ThreatLevel
}

// NewLogPresenter creates a new log presenter
func NewLogPresenter(logger *zap.Logger) *LogPresenter {
	return &LogPresenter{
		logger: logger,
		shown:  make(map[core.ElementID]core.ThreatLevel),
	}
}

// Show logs the verdict of one element
func (p *LogPresenter) Show(_ context.Context, id core.ElementID, placement core.Placement, verdict *core.ThreatVerdict) error {
	p.mu.Lock()
	p.shown[id] = verdict.ThreatLevel
	p.mu.Unlock()

	fields := []zap.Field{
		zap.String("element", string(id)),
		zap.String("placement", string(placement)),
		zap.String("threat_level", string(verdict.ThreatLevel)),
		zap.String("threat_type", string(verdict.ThreatType)),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("action", string(verdict.RecommendedAction)),
		zap.Strings("red_flags", verdict.RedFlags),
		zap.String("explanation", verdict.Explanation),
	}

	if verdict.ThreatLevel.AtLeast(core.LevelHigh) {
		p.logger.Warn("Threat detected", fields...)
	} else {
		p.logger.Info("Email verdict", fields...)
	}
	return nil
}

// Clear drops the indicator of one element
func (p *LogPresenter) Clear(id core.ElementID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.shown[id]; ok {
		delete(p.shown, id)
		p.logger.Debug("Indicator removed", zap.String("element", string(id)))
	}
}

// ClearAll drops every indicator
func (p *LogPresenter) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.shown) > 0 {
		p.logger.Debug("Indicators cleared", zap.Int("count", len(p.shown)))
	}
	p.shown = make(map[core.ElementID]core.ThreatLevel)
}

// Shown returns the level currently shown for an element
func (p *LogPresenter) Shown(id core.ElementID) (core.ThreatLevel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	level, ok := p.shown[id]
	return level, ok
}
