// Package scan drives extraction and classification of the emails found in
// a live webmail document.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/dom"
	"github.com/mikey/llm-threat-scanner/internal/extract"
	"github.com/mikey/llm-threat-scanner/internal/ports"
	"go.uber.org/zap"
)

// State is the progress of one element through the pipeline
type State int

const (
	StateUnscanned State = iota
	StateExtracting
	StateClassified
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnscanned:
		return "unscanned"
	case StateExtracting:
		return "extracting"
	case StateClassified:
		return "classified"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Record tracks one email element of the document
type Record struct {
	ID          core.ElementID
	Placement   core.Placement
	State       State
	Fingerprint string
	Generation  uint64
	// Revision is the candidate state the record was extracted from
	Revision string
}

// Analyzer classifies features on the host. An error means no verdict could
// be obtained.
type Analyzer interface {
	AnalyzeEmail(ctx context.Context, features *core.EmailFeatures) (*core.ThreatVerdict, error)
}

// SettingsProvider supplies the user settings. It never fails and returns
// the defaults when the settings cannot be fetched.
type SettingsProvider interface {
	Settings(ctx context.Context) core.Settings
}

// Orchestrator owns the scan records and the verdict cache of one session
type Orchestrator struct {
	extractor *extract.Extractor
	analyzer  Analyzer
	settings  SettingsProvider
	cache     core.VerdictCache
	presenter ports.Presenter
	stats     ports.StatsRepository
	debounce  time.Duration
	logger    *zap.Logger
	session   string

	mu         sync.Mutex
	records    map[core.ElementID]*Record
	generation uint64
	halted     bool
	last       *dom.Snapshot

	inflight sync.WaitGroup
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	extractor *extract.Extractor,
	analyzer Analyzer,
	settings SettingsProvider,
	cache core.VerdictCache,
	presenter ports.Presenter,
	stats ports.StatsRepository,
	debounce time.Duration,
	logger *zap.Logger,
) *Orchestrator {
	session := uuid.NewString()
	return &Orchestrator{
		extractor: extractor,
		analyzer:  analyzer,
		settings:  settings,
		cache:     cache,
		presenter: presenter,
		stats:     stats,
		debounce:  debounce,
		logger:    logger.With(zap.String("session", session)),
		session:   session,
		records:   make(map[core.ElementID]*Record),
	}
}

// Session returns the identifier of the scan session
func (o *Orchestrator) Session() string {
	return o.session
}

// Run scans every snapshot of src until ctx is done, then waits for
// in-flight classifications to finish
func (o *Orchestrator) Run(ctx context.Context, src dom.Source) error {
	o.logger.Info("Starting scan orchestrator",
		zap.String("platform", string(o.extractor.Layout().Platform())),
		zap.Duration("debounce", o.debounce))

	for ev := range Watch(ctx, src, o.extractor.Layout(), o.debounce) {
		o.HandleEvent(ctx, ev)
	}

	o.inflight.Wait()
	o.logger.Info("Scan orchestrator stopped")
	return nil
}

// HandleEvent runs one scan pass for ev
func (o *Orchestrator) HandleEvent(ctx context.Context, ev Event) {
	settings := o.settings.Settings(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.last = ev.Snapshot
	if !o.applyEnabledLocked(settings.Enabled) {
		return
	}

	o.logger.Debug("Scanning document",
		zap.Stringer("event", ev.Kind),
		zap.Uint64("version", ev.Snapshot.Version()))

	if ev.Kind == EventOpen {
		o.scanOpenLocked(ctx, ev.Snapshot, settings)
	} else {
		o.scanRowsLocked(ctx, ev.Snapshot, settings)
	}
}

// Rescan clears the cache, every indicator and every record, then scans the
// last seen snapshot again
func (o *Orchestrator) Rescan(ctx context.Context) {
	settings := o.settings.Settings(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.resetLocked()
	o.logger.Info("Rescan requested", zap.Uint64("generation", o.generation))

	if !o.applyEnabledLocked(settings.Enabled) || o.last == nil {
		return
	}
	o.scanRowsLocked(ctx, o.last, settings)
	o.scanOpenLocked(ctx, o.last, settings)
}

// ApplySettings reacts to a settings change. Disabling halts scanning and
// clears every indicator, enabling again rescans the document.
func (o *Orchestrator) ApplySettings(ctx context.Context, settings core.Settings) {
	o.mu.Lock()
	wasHalted := o.halted
	o.applyEnabledLocked(settings.Enabled)
	o.mu.Unlock()

	if wasHalted && settings.Enabled {
		o.Rescan(ctx)
	}
}

// Records returns a copy of every record ordered by element identity
func (o *Orchestrator) Records() []Record {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Record, 0, len(o.records))
	for _, rec := range o.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Wait blocks until in-flight classifications are done
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

// applyEnabledLocked halts or resumes the orchestrator and reports whether
// scanning may proceed
func (o *Orchestrator) applyEnabledLocked(enabled bool) bool {
	switch {
	case !enabled && !o.halted:
		o.halted = true
		o.resetLocked()
		o.logger.Info("Scanning disabled")
	case enabled && o.halted:
		o.halted = false
		o.logger.Info("Scanning enabled")
	}
	return !o.halted
}

func (o *Orchestrator) resetLocked() {
	o.generation++
	o.cache.Clear()
	o.presenter.ClearAll()
	o.records = make(map[core.ElementID]*Record)
}

func (o *Orchestrator) scanRowsLocked(ctx context.Context, snap *dom.Snapshot, settings core.Settings) {
	rows := o.extractor.Layout().Rows(snap.Document())

	present := make(map[core.ElementID]bool, len(rows))
	for _, row := range rows {
		present[row.ID] = true
	}
	o.dropMissingLocked(core.PlacementRow, present)

	for _, row := range rows {
		o.processLocked(ctx, row, settings)
	}
}

func (o *Orchestrator) scanOpenLocked(ctx context.Context, snap *dom.Snapshot, settings core.Settings) {
	open, ok := o.extractor.Layout().OpenMessage(snap.Document())

	present := map[core.ElementID]bool{}
	if ok {
		present[open.ID] = true
	}
	o.dropMissingLocked(core.PlacementOpen, present)

	if ok {
		o.processLocked(ctx, open, settings)
	}
}

// dropMissingLocked destroys the records of elements that left the document
func (o *Orchestrator) dropMissingLocked(placement core.Placement, present map[core.ElementID]bool) {
	for id, rec := range o.records {
		if rec.Placement == placement && !present[id] {
			o.presenter.Clear(id)
			delete(o.records, id)
		}
	}
}

func (o *Orchestrator) processLocked(ctx context.Context, c extract.Candidate, settings core.Settings) {
	rec, ok := o.records[c.ID]
	if ok && c.Placement == core.PlacementOpen && rec.Revision != c.State {
		// Another message was opened in the same region
		o.presenter.Clear(c.ID)
		ok = false
	}
	if !ok {
		rec = &Record{ID: c.ID, Placement: c.Placement, State: StateUnscanned, Revision: c.State}
		o.records[c.ID] = rec
	}
	if rec.State != StateUnscanned {
		return
	}

	rec.State = StateExtracting
	features, err := o.extractor.Extract(c.Selection, c.Placement, settings.ScanAttachments)
	if err != nil {
		rec.State = StateUnscanned
		o.logger.Debug("Skipping element", zap.String("element", string(c.ID)), zap.Error(err))
		return
	}

	rec.Fingerprint = features.Fingerprint()
	rec.Generation = o.generation

	o.inflight.Add(1)
	go o.classify(ctx, *rec, features)
}

// classify runs the cache lookup and classification of one element and
// hands the verdict to the presenter unless a rescan happened meanwhile
func (o *Orchestrator) classify(ctx context.Context, rec Record, features *core.EmailFeatures) {
	defer o.inflight.Done()

	verdict, hit, err := o.cache.GetOrCompute(ctx, rec.Fingerprint, func(ctx context.Context) (*core.ThreatVerdict, error) {
		return o.analyzer.AnalyzeEmail(ctx, features)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		o.logger.Warn("Analysis not available",
			zap.String("element", string(rec.ID)),
			zap.Error(err))
		verdict = core.NotAnalyzedVerdict()
	}

	o.mu.Lock()
	current, ok := o.records[rec.ID]
	if !ok || current.Generation != rec.Generation || o.generation != rec.Generation || current.Revision != rec.Revision {
		o.mu.Unlock()
		o.logger.Debug("Discarding stale verdict", zap.String("element", string(rec.ID)))
		return
	}

	current.State = StateClassified
	if verdict.Displayable() {
		if err := o.presenter.Show(ctx, rec.ID, rec.Placement, verdict); err != nil {
			current.State = StateFailed
			o.logger.Error("Failed to present verdict",
				zap.String("element", string(rec.ID)),
				zap.Error(err))
		}
	}
	o.mu.Unlock()

	o.logger.Info("Email classified",
		zap.String("element", string(rec.ID)),
		zap.String("placement", string(rec.Placement)),
		zap.String("threat_level", string(verdict.ThreatLevel)),
		zap.String("threat_type", string(verdict.ThreatType)),
		zap.Float64("confidence", verdict.Confidence),
		zap.Bool("cached", hit))

	if err == nil && !hit {
		if err := o.stats.Record(ctx, verdict); err != nil {
			o.logger.Warn("Failed to record statistics", zap.Error(err))
		}
	}
}
