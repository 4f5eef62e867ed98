package presenter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

// ConsolePresenter prints a readable summary of each verdict
type ConsolePresenter struct {
	out     io.Writer
	verbose bool
	mu      sync.Mutex
}

// NewConsolePresenter creates a new console presenter
func NewConsolePresenter(out io.Writer, verbose bool) *ConsolePresenter {
	return &ConsolePresenter{
		out:     out,
		verbose: verbose,
	}
}

// Show prints the verdict of one element
func (p *ConsolePresenter) Show(_ context.Context, id core.ElementID, placement core.Placement, verdict *core.ThreatVerdict) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n=== %s (%s) ===\n", id, placement)
	fmt.Fprintf(&sb, "Threat level: %s\n", verdict.ThreatLevel)
	fmt.Fprintf(&sb, "Threat type: %s\n", verdict.ThreatType)
	fmt.Fprintf(&sb, "Confidence: %.2f\n", verdict.Confidence)
	fmt.Fprintf(&sb, "Action: %s\n", verdict.RecommendedAction)
	if len(verdict.RedFlags) > 0 {
		fmt.Fprintf(&sb, "Red flags: %s\n", strings.Join(verdict.RedFlags, ", "))
	}
	if p.verbose {
		fmt.Fprintf(&sb, "Explanation: %s\n", verdict.Explanation)
	}

	_, err := io.WriteString(p.out, sb.String())
	return err
}

// Clear is a no-op for the console presenter
func (p *ConsolePresenter) Clear(core.ElementID) {}

// ClearAll is a no-op for the console presenter
func (p *ConsolePresenter) ClearAll() {}
