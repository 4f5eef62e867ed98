package presenter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/ports"
	"go.uber.org/zap/zaptest"
)

var phishingVerdict = &core.ThreatVerdict{
	ThreatLevel:       core.LevelHigh,
	ThreatType:        core.TypePhishing,
	Confidence:        0.9,
	Explanation:       "This email may be attempting to steal your credentials or personal information.",
	RedFlags:          []string{"Contains phishing indicators"},
	RecommendedAction: core.ActionBlock,
}

func TestLogPresenterTracksIndicators(t *testing.T) {
	p := NewLogPresenter(zaptest.NewLogger(t))
	ctx := context.Background()

	_ = p.Show(ctx, "t1", core.PlacementRow, phishingVerdict)
	_ = p.Show(ctx, "t2", core.PlacementOpen, core.NotAnalyzedVerdict())

	if level, ok := p.Shown("t1"); !ok || level != core.LevelHigh {
		t.Errorf("t1: got %q ok=%v, want high", level, ok)
	}

	p.Clear("t1")
	if _, ok := p.Shown("t1"); ok {
		t.Error("t1 still shown after Clear")
	}

	p.ClearAll()
	if _, ok := p.Shown("t2"); ok {
		t.Error("t2 still shown after ClearAll")
	}
}

func TestConsolePresenter(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsolePresenter(&buf, true)

	if err := p.Show(context.Background(), "t1", core.PlacementRow, phishingVerdict); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"=== t1 (row) ===",
		"Threat level: high",
		"Confidence: 0.90",
		"Red flags: Contains phishing indicators",
		"Explanation: This email may be attempting",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJSONPresenter(t *testing.T) {
	var buf bytes.Buffer
	p := NewJSONPresenter(&buf)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	_ = p.Show(context.Background(), "t1", core.PlacementRow, phishingVerdict)
	p.Clear("t1")
	p.ClearAll()

	var got []Event
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			t.Fatal(err)
		}
		got = append(got, ev)
	}

	want := []Event{
		{Type: EventShow, Element: "t1", Placement: core.PlacementRow, Verdict: phishingVerdict, Time: fixed},
		{Type: EventClear, Element: "t1", Time: fixed},
		{Type: EventClearAll, Time: fixed},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

type failingPresenter struct {
	cleared int
}

func (f *failingPresenter) Show(context.Context, core.ElementID, core.Placement, *core.ThreatVerdict) error {
	return errors.New("badge rejected")
}
func (f *failingPresenter) Clear(core.ElementID) { f.cleared++ }
func (f *failingPresenter) ClearAll()            { f.cleared++ }

func TestMultiFanOut(t *testing.T) {
	var buf bytes.Buffer
	failing := &failingPresenter{}
	logs := NewLogPresenter(zaptest.NewLogger(t))
	var m ports.Presenter = Multi{logs, failing, NewJSONPresenter(&buf)}

	err := m.Show(context.Background(), "t1", core.PlacementRow, phishingVerdict)
	if err == nil || !strings.Contains(err.Error(), "badge rejected") {
		t.Errorf("Show() error = %v, want joined presenter error", err)
	}
	if _, ok := logs.Shown("t1"); !ok {
		t.Error("log presenter skipped after a failing presenter")
	}
	if buf.Len() == 0 {
		t.Error("json presenter skipped after a failing presenter")
	}

	m.Clear("t1")
	m.ClearAll()
	if failing.cleared != 2 {
		t.Errorf("clear calls: got %d, want 2", failing.cleared)
	}
}
