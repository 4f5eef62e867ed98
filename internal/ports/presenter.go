package ports

import (
	"context"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

// Presenter shows verdicts next to the email elements they belong to
type Presenter interface {
	// Show displays a verdict for an element, replacing any previous one
	Show(ctx context.Context, id core.ElementID, placement core.Placement, verdict *core.ThreatVerdict) error

	// Clear removes the indicator of one element
	Clear(id core.ElementID)

	// ClearAll removes every indicator
	ClearAll()
}
