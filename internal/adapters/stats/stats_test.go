package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/ports"
	"go.uber.org/zap/zaptest"
)

func verdict(level core.ThreatLevel, kind core.ThreatType) *core.ThreatVerdict {
	return &core.ThreatVerdict{ThreatLevel: level, ThreatType: kind, RecommendedAction: core.ActionFor(level)}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func exerciseRepository(t *testing.T, repo ports.StatsRepository, clk *clock) {
	t.Helper()
	ctx := context.Background()

	clk.t = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for _, v := range []*core.ThreatVerdict{
		verdict(core.LevelSafe, core.TypeSafe),
		verdict(core.LevelLow, core.TypeSpam),
		verdict(core.LevelHigh, core.TypePhishing),
		verdict(core.LevelCritical, core.TypeScam),
	} {
		if err := repo.Record(ctx, v); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	want := core.Stats{
		EmailsScanned:  4,
		ThreatsBlocked: 2,
		SpamCount:      1,
		PhishingCount:  1,
		ScamCount:      1,
		LastScanDate:   "2024-05-01",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}

	// A new day resets the per-type counters only
	clk.t = clk.t.Add(24 * time.Hour)
	if err := repo.Record(ctx, verdict(core.LevelLow, core.TypeSpam)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	got, err = repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	want = core.Stats{
		EmailsScanned:  5,
		ThreatsBlocked: 2,
		SpamCount:      1,
		LastScanDate:   "2024-05-02",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Snapshot() after day change mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStats(t *testing.T) {
	clk := &clock{}
	repo := NewMemoryStats(zaptest.NewLogger(t))
	repo.now = clk.now
	exerciseRepository(t, repo, clk)
}

func TestSQLiteStats(t *testing.T) {
	clk := &clock{}
	repo, err := NewSQLiteStats(filepath.Join(t.TempDir(), "stats.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSQLiteStats() error = %v", err)
	}
	defer repo.Close()
	repo.now = clk.now
	exerciseRepository(t, repo, clk)
}

func TestSQLiteStatsEmpty(t *testing.T) {
	repo, err := NewSQLiteStats(":memory:", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSQLiteStats() error = %v", err)
	}
	defer repo.Close()

	got, err := repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if diff := cmp.Diff(core.Stats{}, got); diff != "" {
		t.Errorf("Snapshot() of empty store mismatch (-want +got):\n%s", diff)
	}
}
