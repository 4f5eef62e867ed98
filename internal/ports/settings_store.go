package ports

import (
	"context"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

// SettingsStore holds the user settings on the host side
type SettingsStore interface {
	// Get returns the current settings
	Get(ctx context.Context) (core.Settings, error)

	// Set replaces the settings
	Set(ctx context.Context, settings core.Settings) error
}
