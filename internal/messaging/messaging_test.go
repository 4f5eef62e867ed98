package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/rules"
	"github.com/mikey/llm-threat-scanner/internal/settings"
	"github.com/mikey/llm-threat-scanner/internal/whitelist"
	"go.uber.org/zap/zaptest"
)

var phishing = &core.EmailFeatures{
	Platform: core.PlatformGmail,
	From:     "admin@free.ga",
	Subject:  "Urgent: verify your account now",
	Body:     "click here immediately to avoid suspension",
	Links:    []string{"http://bit.ly/x"},
}

func newDispatcher(t *testing.T) (*Dispatcher, *settings.Store) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := settings.NewStore(core.DefaultSettings(), logger)
	service := core.NewThreatAnalysisService(
		rules.NewClassifier(logger),
		nil,
		store,
		whitelist.NewChecker([]string{"trusted.example"}, logger),
		logger,
	)
	return NewDispatcher(service, store, logger), store
}

func request(t *testing.T, action string, data interface{}) *Request {
	t.Helper()
	req := &Request{ID: "req-1", Action: action}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			t.Fatal(err)
		}
		req.Data = raw
	}
	return req
}

func TestDispatcherAnalyzeEmail(t *testing.T) {
	d, _ := newDispatcher(t)

	resp := d.Handle(context.Background(), request(t, ActionAnalyzeEmail, phishing))
	if !resp.Success {
		t.Fatalf("analyzeEmail failed: %s", resp.Error)
	}

	var verdict core.ThreatVerdict
	if err := json.Unmarshal(resp.Result, &verdict); err != nil {
		t.Fatal(err)
	}
	if verdict.ThreatLevel != core.LevelHigh || verdict.ThreatType != core.TypePhishing {
		t.Errorf("verdict: got %s/%s, want high/phishing", verdict.ThreatLevel, verdict.ThreatType)
	}
	if verdict.RecommendedAction != core.ActionBlock {
		t.Errorf("action: got %q, want %q", verdict.RecommendedAction, core.ActionBlock)
	}
}

func TestDispatcherWhitelistedSender(t *testing.T) {
	d, _ := newDispatcher(t)

	f := *phishing
	f.From = "Billing <billing@trusted.example>"
	resp := d.Handle(context.Background(), request(t, ActionAnalyzeEmail, &f))
	if !resp.Success {
		t.Fatalf("analyzeEmail failed: %s", resp.Error)
	}

	var verdict core.ThreatVerdict
	if err := json.Unmarshal(resp.Result, &verdict); err != nil {
		t.Fatal(err)
	}
	if verdict.ThreatLevel != core.LevelSafe {
		t.Errorf("level: got %q, want safe", verdict.ThreatLevel)
	}
}

func TestDispatcherRejectsEmptyEmail(t *testing.T) {
	d, _ := newDispatcher(t)

	resp := d.Handle(context.Background(), request(t, ActionAnalyzeEmail, &core.EmailFeatures{Links: []string{"http://x"}}))
	if resp.Success {
		t.Fatal("expected failure for an email with no sender, subject or body")
	}
	if resp.Error == "" {
		t.Error("expected an error message")
	}
}

func TestDispatcherSettings(t *testing.T) {
	d, store := newDispatcher(t)

	var notified []core.Settings
	d.OnSettingsChanged(func(_ context.Context, s core.Settings) {
		notified = append(notified, s)
	})

	resp := d.Handle(context.Background(), request(t, ActionUpdateSettings, map[string]interface{}{
		"privacy_mode":     true,
		"threat_threshold": "high",
	}))
	if !resp.Success {
		t.Fatalf("updateSettings failed: %s", resp.Error)
	}

	want := core.DefaultSettings()
	want.PrivacyMode = true
	want.ThreatThreshold = core.LevelHigh

	got, _ := store.Get(context.Background())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored settings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]core.Settings{want}, notified); diff != "" {
		t.Errorf("notified settings mismatch (-want +got):\n%s", diff)
	}

	resp = d.Handle(context.Background(), request(t, ActionGetSettings, nil))
	if !resp.Success {
		t.Fatalf("getSettings failed: %s", resp.Error)
	}
	var fetched core.Settings
	if err := json.Unmarshal(resp.Result, &fetched); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, fetched); diff != "" {
		t.Errorf("fetched settings mismatch (-want +got):\n%s", diff)
	}

	resp = d.Handle(context.Background(), request(t, ActionUpdateSettings, map[string]interface{}{
		"threat_threshold": "extreme",
	}))
	if resp.Success {
		t.Error("expected failure for an unknown threshold")
	}
	if len(notified) != 1 {
		t.Errorf("listeners called %d times, want 1", len(notified))
	}
}

func TestDispatcherCheckAIStatusAndUnknownAction(t *testing.T) {
	d, _ := newDispatcher(t)

	resp := d.Handle(context.Background(), request(t, ActionCheckAIStatus, nil))
	if !resp.Success {
		t.Fatalf("checkAIStatus failed: %s", resp.Error)
	}
	var status AIStatus
	if err := json.Unmarshal(resp.Result, &status); err != nil {
		t.Fatal(err)
	}
	if status.Ready {
		t.Error("ready: got true, want false without a model")
	}

	resp = d.Handle(context.Background(), request(t, "reticulateSplines", nil))
	if resp.Success {
		t.Error("expected failure for an unknown action")
	}
}

type fakeRescanner struct {
	mu    sync.Mutex
	calls int
}

func (r *fakeRescanner) Rescan(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func TestServerRoutes(t *testing.T) {
	d, _ := newDispatcher(t)
	rescanner := &fakeRescanner{}
	s := NewServer(d, rescanner, zaptest.NewLogger(t))

	body, _ := json.Marshal(request(t, ActionAnalyzeEmail, phishing))
	req := httptest.NewRequest(fiber.MethodPost, "/message", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	res, err := s.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("status: got %d, want 200", res.StatusCode)
	}
	raw, _ := io.ReadAll(res.Body)
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Errorf("message failed: %s", resp.Error)
	}

	req = httptest.NewRequest(fiber.MethodPost, "/message", bytes.NewReader([]byte("{not json")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	res, err = s.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Errorf("bad body status: got %d, want 400", res.StatusCode)
	}

	res, err = s.App().Test(httptest.NewRequest(fiber.MethodPost, "/rescan", nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK || rescanner.calls != 1 {
		t.Errorf("rescan: got status %d and %d calls", res.StatusCode, rescanner.calls)
	}

	res, err = s.App().Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Errorf("health status: got %d, want 200", res.StatusCode)
	}
}

func TestServerRescanWithoutScanner(t *testing.T) {
	d, _ := newDispatcher(t)
	s := NewServer(d, nil, zaptest.NewLogger(t))

	res, err := s.App().Test(httptest.NewRequest(fiber.MethodPost, "/rescan", nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusNotFound {
		t.Errorf("status: got %d, want 404", res.StatusCode)
	}
}

func TestClientOverHTTP(t *testing.T) {
	d, _ := newDispatcher(t)
	logger := zaptest.NewLogger(t)
	s := NewServer(d, nil, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = s.App().Listener(ln) }()
	defer func() { _ = s.Shutdown() }()

	client := NewClient(NewHTTPTransport("http://"+ln.Addr().String()+"/", 5*time.Second, logger), logger)
	ctx := context.Background()

	verdict, err := client.AnalyzeEmail(ctx, phishing)
	if err != nil {
		t.Fatalf("AnalyzeEmail() error = %v", err)
	}
	if verdict.ThreatType != core.TypePhishing {
		t.Errorf("type: got %q, want phishing", verdict.ThreatType)
	}

	if err := client.UpdateSettings(ctx, map[string]interface{}{"scan_attachments": false}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if got := client.Settings(ctx); got.ScanAttachments {
		t.Error("scan_attachments: got true after update")
	}

	ready, err := client.ModelReady(ctx)
	if err != nil || ready {
		t.Errorf("ModelReady(): got %v, %v", ready, err)
	}
}

type failingTransport struct{ err error }

func (f failingTransport) Send(context.Context, *Request) (*Response, error) {
	return nil, f.err
}

func TestClientFailures(t *testing.T) {
	logger := zaptest.NewLogger(t)
	client := NewClient(failingTransport{err: errors.New("connection refused")}, logger)
	ctx := context.Background()

	if _, err := client.AnalyzeEmail(ctx, phishing); !errors.Is(err, core.ErrTransportFailure) {
		t.Errorf("AnalyzeEmail() error = %v, want ErrTransportFailure", err)
	}
	if diff := cmp.Diff(core.DefaultSettings(), client.Settings(ctx)); diff != "" {
		t.Errorf("fallback settings mismatch (-want +got):\n%s", diff)
	}
	if _, err := client.GetSettings(ctx); !errors.Is(err, core.ErrConfigUnavailable) {
		t.Errorf("GetSettings() error = %v, want ErrConfigUnavailable", err)
	}

	canceled := NewClient(failingTransport{err: context.Canceled}, logger)
	if _, err := canceled.AnalyzeEmail(ctx, phishing); !errors.Is(err, context.Canceled) || errors.Is(err, core.ErrTransportFailure) {
		t.Errorf("AnalyzeEmail() error = %v, want bare context.Canceled", err)
	}

	d, _ := newDispatcher(t)
	inproc := NewClient(NewInProcessTransport(d), logger)
	if _, err := inproc.AnalyzeEmail(ctx, &core.EmailFeatures{}); !errors.Is(err, core.ErrTransportFailure) {
		t.Errorf("AnalyzeEmail() error = %v, want ErrTransportFailure for a host failure", err)
	}
}
