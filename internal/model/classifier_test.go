package model

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/utils"
	"go.uber.org/zap/zaptest"
)

type fakeGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	systems  []string
}

func (g *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.systems = append(g.systems, system)
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

func (g *fakeGenerator) Name() string { return "fake" }

func newTestClassifier(t *testing.T, gen *fakeGenerator, opts Options) *Classifier {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewClassifier(gen, utils.NewTextProcessor(logger), opts, logger)
}

func TestClassifyParsesResponse(t *testing.T) {
	gen := &fakeGenerator{response: "Here is my analysis:\n```json\n" +
		`{"threat_level":"high","threat_type":"malware","confidence":0.85,` +
		`"explanation":"Attachment looks like a dropper","red_flags":["Executable attachment"],` +
		`"recommended_action":"safe"}` + "\n```"}
	c := newTestClassifier(t, gen, DefaultOptions())

	got, err := c.Classify(context.Background(), &core.EmailFeatures{Subject: "Invoice"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	want := &core.ThreatVerdict{
		ThreatLevel:       core.LevelHigh,
		ThreatType:        core.TypeMalware,
		Confidence:        0.85,
		Explanation:       "Attachment looks like a dropper",
		RedFlags:          []string{"Executable attachment"},
		RecommendedAction: core.ActionBlock,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
	}
	if gen.systems[0] != SystemPrompt {
		t.Errorf("system prompt not passed to generator")
	}
}

func TestClassifyFallback(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"no json", "I cannot help with that."},
		{"broken json", `{"threat_level": "high", `},
		{"unknown level", `{"threat_level":"severe","threat_type":"spam","confidence":0.4}`},
		{"unknown type", `{"threat_level":"low","threat_type":"adware","confidence":0.4}`},
		{"confidence too high", `{"threat_level":"low","threat_type":"spam","confidence":1.5}`},
		{"confidence missing", `{"threat_level":"low","threat_type":"spam"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClassifier(t, &fakeGenerator{response: tc.response}, DefaultOptions())
			got, err := c.Classify(context.Background(), &core.EmailFeatures{Subject: "Hi"})
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if diff := cmp.Diff(core.FallbackVerdict(), got); diff != "" {
				t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyGeneratesMissingExplanation(t *testing.T) {
	gen := &fakeGenerator{response: `{"threat_level":"low","threat_type":"spam","confidence":0.3,"red_flags":["Bulk sender"]}`}
	c := newTestClassifier(t, gen, DefaultOptions())

	got, err := c.Classify(context.Background(), &core.EmailFeatures{Subject: "Deals"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	want := "This email contains promotional content and spam indicators. Red flags detected: Bulk sender."
	if got.Explanation != want {
		t.Errorf("Explanation: got %q, want %q", got.Explanation, want)
	}
	if got.RecommendedAction != core.ActionCaution {
		t.Errorf("RecommendedAction: got %q, want %q", got.RecommendedAction, core.ActionCaution)
	}
}

func TestClassifyBackendError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	c := newTestClassifier(t, gen, DefaultOptions())

	_, err := c.Classify(context.Background(), &core.EmailFeatures{Subject: "Hi"})
	if !errors.Is(err, core.ErrBackendUnavailable) {
		t.Fatalf("Classify() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestClassifyBreakerOpens(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	opts := DefaultOptions()
	opts.RequestsPerSecond = 0
	opts.BreakerFailures = 2
	c := newTestClassifier(t, gen, opts)

	for i := 0; i < 4; i++ {
		_, err := c.Classify(context.Background(), &core.EmailFeatures{Subject: "Hi"})
		if !errors.Is(err, core.ErrBackendUnavailable) {
			t.Fatalf("call %d: error = %v, want ErrBackendUnavailable", i, err)
		}
	}
	if len(gen.prompts) != 2 {
		t.Errorf("generator calls: got %d, want 2", len(gen.prompts))
	}
}

func TestBuildPromptPlaceholders(t *testing.T) {
	prompt := buildPrompt(&core.EmailFeatures{}, "")
	for _, want := range []string{
		"Subject: No subject",
		"From: Unknown sender",
		"Body: No content",
		"Links: None",
		"Attachments: None",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	prompt = buildPrompt(&core.EmailFeatures{
		From:        "a@example.com",
		Subject:     "Report",
		Links:       []string{"https://a.example", "https://b.example"},
		Attachments: []string{"report.pdf"},
	}, "see attached")
	for _, want := range []string{
		"Subject: Report",
		"From: a@example.com",
		"Body: see attached",
		"Links: https://a.example, https://b.example",
		"Attachments: report.pdf",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestClassifyTruncatesBody(t *testing.T) {
	gen := &fakeGenerator{response: `{"threat_level":"safe","threat_type":"safe","confidence":0.1}`}
	opts := DefaultOptions()
	opts.MaxBodySize = 8
	c := newTestClassifier(t, gen, opts)

	if _, err := c.Classify(context.Background(), &core.EmailFeatures{Body: strings.Repeat("x", 100)}); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if strings.Contains(gen.prompts[0], strings.Repeat("x", 9)) {
		t.Errorf("body was not truncated in prompt")
	}
}
