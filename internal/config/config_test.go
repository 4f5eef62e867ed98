package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mikey/llm-threat-scanner/internal/core"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	scan, err := cfg.GetScan()
	if err != nil {
		t.Fatalf("GetScan() error = %v", err)
	}
	if scan.Platform != core.PlatformGmail {
		t.Errorf("Platform: got %q, want %q", scan.Platform, core.PlatformGmail)
	}
	if scan.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce: got %v, want 500ms", scan.Debounce)
	}

	if diff := cmp.Diff(core.DefaultSettings(), cfg.GetSettings()); diff != "" {
		t.Errorf("GetSettings() mismatch (-want +got):\n%s", diff)
	}

	llm, err := cfg.GetLLM()
	if err != nil {
		t.Fatalf("GetLLM() error = %v", err)
	}
	if llm.Provider != "none" {
		t.Errorf("Provider: got %q, want %q", llm.Provider, "none")
	}
}

func TestOverrides(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scan.platform", "Outlook")
	v.Set("settings.threat_threshold", "extreme")
	v.Set("settings.privacy_mode", true)
	v.Set("openai.base_url", "http://localhost:11434/v1")
	cfg := NewFromViper(v)

	scan, err := cfg.GetScan()
	if err != nil {
		t.Fatalf("GetScan() error = %v", err)
	}
	if scan.Platform != core.PlatformOutlook {
		t.Errorf("Platform: got %q, want %q", scan.Platform, core.PlatformOutlook)
	}

	settings := cfg.GetSettings()
	if settings.ThreatThreshold != core.LevelMedium {
		t.Errorf("ThreatThreshold: got %q, want %q", settings.ThreatThreshold, core.LevelMedium)
	}
	if !settings.PrivacyMode {
		t.Errorf("PrivacyMode: got false, want true")
	}
	if got := cfg.GetOpenAI().BaseURL; got != "http://localhost:11434/v1" {
		t.Errorf("BaseURL: got %q", got)
	}
}

func TestInvalidValues(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scan.platform", "yahoo")
	if _, err := NewFromViper(v).GetScan(); err == nil {
		t.Errorf("GetScan() with unknown platform: got nil error")
	}

	v = NewEmptyViper()
	v.Set("llm.breaker_timeout", "soon")
	if _, err := NewFromViper(v).GetLLM(); err == nil {
		t.Errorf("GetLLM() with bad duration: got nil error")
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	content := "scan:\n  platform: outlook\nsettings:\n  threat_threshold: high\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}

	scan, err := cfg.GetScan()
	if err != nil {
		t.Fatal(err)
	}
	if scan.Platform != core.PlatformOutlook {
		t.Errorf("platform: got %q, want outlook", scan.Platform)
	}
	if got := cfg.GetSettings().ThreatThreshold; got != core.LevelHigh {
		t.Errorf("threshold: got %q, want high", got)
	}
	if got := cfg.GetString("logging.level"); got != "info" {
		t.Errorf("logging.level default: got %q, want info", got)
	}

	if _, err := NewFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
