// Package presenter contains the adapters that show verdicts.
package presenter

import (
	"context"
	"errors"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/ports"
)

// Multi fans every call out to several presenters
type Multi []ports.Presenter

// Show calls every presenter and joins their errors
func (m Multi) Show(ctx context.Context, id core.ElementID, placement core.Placement, verdict *core.ThreatVerdict) error {
	var errs []error
	for _, p := range m {
		if err := p.Show(ctx, id, placement, verdict); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear calls every presenter
func (m Multi) Clear(id core.ElementID) {
	for _, p := range m {
		p.Clear(id)
	}
}

// ClearAll calls every presenter
func (m Multi) ClearAll() {
	for _, p := range m {
		p.ClearAll()
	}
}
