package scan

import (
	"context"
	"strings"
	"time"

	"github.com/mikey/llm-threat-scanner/internal/dom"
	"github.com/mikey/llm-threat-scanner/internal/extract"
)

// EventKind tells the orchestrator which part of the document changed
type EventKind int

const (
	// EventRows means the set of message list rows changed
	EventRows EventKind = iota
	// EventOpen means the open message appeared, changed or went away
	EventOpen
)

func (k EventKind) String() string {
	if k == EventOpen {
		return "open"
	}
	return "rows"
}

// Event carries the snapshot that triggered a scan
type Event struct {
	Kind     EventKind
	Snapshot *dom.Snapshot
}

// Watch turns document snapshots into scan events. Changes to the rows,
// whether rows come and go or a row's content is filled in, are debounced by
// delay and always carry the latest snapshot. Changes to
// the open message are emitted immediately. The first snapshot produces a
// rows event without delay. The channel is closed when ctx is done.
func Watch(ctx context.Context, src dom.Source, layout extract.Layout, delay time.Duration) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		snapshots := src.Subscribe(ctx)

		var (
			first     = true
			rowKey    string
			openState string
			latest    *dom.Snapshot
			timer     *time.Timer
			fire      <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		emit := func(ev Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				latest = snap
				doc := snap.Document()

				key := rowsKey(layout.Rows(doc))
				state := ""
				if open, ok := layout.OpenMessage(doc); ok {
					state = open.State
				}

				if first {
					first = false
					rowKey, openState = key, state
					if !emit(Event{Kind: EventRows, Snapshot: snap}) {
						return
					}
					if state != "" && !emit(Event{Kind: EventOpen, Snapshot: snap}) {
						return
					}
					continue
				}

				if state != openState {
					openState = state
					if !emit(Event{Kind: EventOpen, Snapshot: snap}) {
						return
					}
				}

				if key != rowKey {
					rowKey = key
					if timer != nil {
						timer.Stop()
					}
					timer = time.NewTimer(delay)
					fire = timer.C
				}

			case <-fire:
				timer, fire = nil, nil
				if !emit(Event{Kind: EventRows, Snapshot: latest}) {
					return
				}
			}
		}
	}()

	return out
}

// rowsKey identifies the rows and their text, so a row rendered empty and
// filled in later counts as a change
func rowsKey(rows []extract.Candidate) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		parts[i] = string(row.ID) + "\x00" + strings.TrimSpace(row.Selection.Text())
	}
	return strings.Join(parts, "\x01")
}
