// Package notify sends threat alerts by mail.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// SettingsProvider supplies the user settings
type SettingsProvider interface {
	Settings(ctx context.Context) core.Settings
}

// Alert is one threat notification
type Alert struct {
	Subject string
	Text    string
	Level   core.ThreatLevel
}

// Sender delivers alerts
type Sender interface {
	Send(ctx context.Context, alert *Alert) error
	Name() string
}

// Notifier raises an alert when a verdict reaches the user's threat
// threshold and notifications are on. Alerts are delivered in the
// background, at most one per element and level.
type Notifier struct {
	sender   Sender
	settings SettingsProvider
	logger   *zap.Logger

	mu       sync.Mutex
	notified map[core.ElementID]core.ThreatLevel
	wg       sync.WaitGroup
}

// NewNotifier creates a new notifier delivering through sender
func NewNotifier(sender Sender, settings SettingsProvider, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender:   sender,
		settings: settings,
		logger:   logger,
		notified: make(map[core.ElementID]core.ThreatLevel),
	}
}

// Show queues an alert for the verdict when the settings ask for one
func (n *Notifier) Show(ctx context.Context, id core.ElementID, placement core.Placement, verdict *core.ThreatVerdict) error {
	settings := n.settings.Settings(ctx)
	if !settings.ShowNotifications || verdict.ThreatLevel == core.LevelSafe {
		return nil
	}
	if !verdict.ThreatLevel.AtLeast(settings.ThreatThreshold) {
		return nil
	}

	n.mu.Lock()
	if previous, ok := n.notified[id]; ok && previous.AtLeast(verdict.ThreatLevel) {
		n.mu.Unlock()
		return nil
	}
	n.notified[id] = verdict.ThreatLevel
	n.mu.Unlock()

	alert := Compose(id, placement, verdict)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := n.sender.Send(sendCtx, alert); err != nil {
			n.logger.Error("Failed to send threat alert",
				zap.String("sender", n.sender.Name()),
				zap.String("element", string(id)),
				zap.Error(err))
			return
		}
		n.logger.Info("Threat alert sent",
			zap.String("sender", n.sender.Name()),
			zap.String("element", string(id)),
			zap.String("threat_level", string(verdict.ThreatLevel)))
	}()

	return nil
}

// Clear is a no-op, an alert cannot be recalled
func (n *Notifier) Clear(core.ElementID) {}

// ClearAll is a no-op, an alert cannot be recalled
func (n *Notifier) ClearAll() {}

// Close waits for pending alerts
func (n *Notifier) Close() error {
	n.wg.Wait()
	return nil
}

// Compose builds the alert for one verdict
func Compose(id core.ElementID, placement core.Placement, verdict *core.ThreatVerdict) *Alert {
	var text strings.Builder

	fmt.Fprintf(&text, "Element: %s (%s)\r\n", id, placement)
	fmt.Fprintf(&text, "Threat type: %s\r\n", verdict.ThreatType)
	fmt.Fprintf(&text, "Recommended action: %s\r\n", verdict.RecommendedAction)
	fmt.Fprintf(&text, "Confidence: %.2f\r\n", verdict.Confidence)
	for _, flag := range verdict.RedFlags {
		fmt.Fprintf(&text, "- %s\r\n", flag)
	}
	fmt.Fprintf(&text, "\r\n%s\r\n", verdict.Explanation)

	return &Alert{
		Subject: fmt.Sprintf("[Threat: %s] %s email detected", verdict.ThreatLevel, verdict.ThreatType),
		Text:    text.String(),
		Level:   verdict.ThreatLevel,
	}
}
