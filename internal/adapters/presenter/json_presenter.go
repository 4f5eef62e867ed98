package presenter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

// Event is one line written by the JSON presenter
type Event struct {
	Type      string              `json:"type"`
	Element   core.ElementID      `json:"element,omitempty"`
	Placement core.Placement      `json:"placement,omitempty"`
	Verdict   *core.ThreatVerdict `json:"verdict,omitempty"`
	Time      time.Time           `json:"time"`
}

// Event types
const (
	EventShow     = "show"
	EventClear    = "clear"
	EventClearAll = "clear_all"
)

// JSONPresenter writes indicator changes as JSON lines, for a browser bridge
// or another process that draws the badges
type JSONPresenter struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

// NewJSONPresenter creates a presenter writing to w
func NewJSONPresenter(w io.Writer) *JSONPresenter {
	return &JSONPresenter{
		enc: json.NewEncoder(w),
		now: time.Now,
	}
}

// Show writes a show event
func (p *JSONPresenter) Show(_ context.Context, id core.ElementID, placement core.Placement, verdict *core.ThreatVerdict) error {
	return p.write(Event{Type: EventShow, Element: id, Placement: placement, Verdict: verdict})
}

// Clear writes a clear event
func (p *JSONPresenter) Clear(id core.ElementID) {
	_ = p.write(Event{Type: EventClear, Element: id})
}

// ClearAll writes a clear_all event
func (p *JSONPresenter) ClearAll() {
	_ = p.write(Event{Type: EventClearAll})
}

func (p *JSONPresenter) write(ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ev.Time = p.now().UTC()
	if err := p.enc.Encode(ev); err != nil {
		return fmt.Errorf("failed to write %s event: %w", ev.Type, err)
	}
	return nil
}
