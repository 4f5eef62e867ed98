package factory

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/mikey/llm-threat-scanner/internal/adapters/presenter"
	"github.com/mikey/llm-threat-scanner/internal/adapters/stats"
	"github.com/mikey/llm-threat-scanner/internal/config"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap/zaptest"
)

func newConfig(values map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for key, value := range values {
		v.Set(key, value)
	}
	return config.NewFromViper(v)
}

func TestCreateModelClassifier(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name      string
		values    map[string]interface{}
		wantModel bool
		wantErr   bool
	}{
		{name: "none", values: map[string]interface{}{"llm.provider": "none"}},
		{
			name:      "openai with local server",
			values:    map[string]interface{}{"llm.provider": "openai", "openai.base_url": "http://127.0.0.1:11434/v1"},
			wantModel: true,
		},
		{
			name:    "openai without key",
			values:  map[string]interface{}{"llm.provider": "openai", "openai.api_key": "", "openai.base_url": ""},
			wantErr: true,
		},
		{
			name:    "gemini without key",
			values:  map[string]interface{}{"llm.provider": "gemini", "gemini.api_key": ""},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			values:  map[string]interface{}{"llm.provider": "clippy"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewLLMFactory(newConfig(tt.values), logger)
			defer f.Close()

			classifier, err := f.CreateModelClassifier()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateModelClassifier() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := classifier != nil; got != tt.wantModel {
				t.Errorf("classifier present: got %v, want %v", got, tt.wantModel)
			}
		})
	}
}

func TestCreateStatsRepository(t *testing.T) {
	logger := zaptest.NewLogger(t)

	repo, err := NewStatsFactory(newConfig(nil), logger).CreateStatsRepository()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.(*stats.MemoryStats); !ok {
		t.Errorf("default repository: got %T, want *stats.MemoryStats", repo)
	}

	path := filepath.Join(t.TempDir(), "nested", "stats.db")
	repo, err = NewStatsFactory(newConfig(map[string]interface{}{
		"stats.type":        "sqlite",
		"stats.sqlite_path": path,
	}), logger).CreateStatsRepository()
	if err != nil {
		t.Fatalf("sqlite repository: %v", err)
	}
	defer repo.Close()
	if err := repo.Record(context.Background(), core.NotAnalyzedVerdict()); err != nil {
		t.Errorf("Record() error = %v", err)
	}

	if _, err := NewStatsFactory(newConfig(map[string]interface{}{"stats.type": "redis"}), logger).CreateStatsRepository(); err == nil {
		t.Error("expected error for an unsupported stats type")
	}
}

func TestCreatePresenter(t *testing.T) {
	logger := zaptest.NewLogger(t)

	f := NewPresenterFactory(newConfig(nil), logger)
	p, err := f.CreatePresenter(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*presenter.LogPresenter); !ok {
		t.Errorf("default presenter: got %T, want *presenter.LogPresenter", p)
	}

	var buf bytes.Buffer
	f = NewPresenterFactory(newConfig(map[string]interface{}{
		"presenter.types": []string{"log", "json"},
	}), logger)
	f.out = &buf
	p, err = f.CreatePresenter(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(presenter.Multi); !ok {
		t.Fatalf("presenter: got %T, want presenter.Multi", p)
	}
	if err := p.Show(context.Background(), "t1", core.PlacementRow, core.NotAnalyzedVerdict()); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("json presenter wrote nothing")
	}
	if err := f.Close(); err != nil {
		t.Error(err)
	}

	for _, types := range [][]string{{}, {"toast"}} {
		f := NewPresenterFactory(newConfig(map[string]interface{}{"presenter.types": types}), logger)
		if _, err := f.CreatePresenter(nil); err == nil {
			t.Errorf("types %v: expected error", types)
		}
	}
}
