package dom

import (
	"bytes"
	"context"
	"sync"
)

// Source produces successive snapshots of a live document
type Source interface {
	// Subscribe returns a channel that receives the current snapshot, if any,
	// and then every later one. Slow readers only see the latest snapshot.
	// The channel is closed when ctx is done.
	Subscribe(ctx context.Context) <-chan *Snapshot
}

// MemorySource is a document held in memory and replaced through Update
type MemorySource struct {
	mu          sync.Mutex
	current     *Snapshot
	version     uint64
	subscribers map[chan *Snapshot]struct{}
}

// NewMemorySource creates an empty in-memory document source
func NewMemorySource() *MemorySource {
	return &MemorySource{
		subscribers: make(map[chan *Snapshot]struct{}),
	}
}

// Update parses document and publishes it to every subscriber
func (s *MemorySource) Update(document []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := Parse(bytes.NewReader(document), s.version+1)
	if err != nil {
		return err
	}
	s.version++
	s.current = snap

	for ch := range s.subscribers {
		offer(ch, snap)
	}
	return nil
}

// UpdateString is Update over a string
func (s *MemorySource) UpdateString(document string) error {
	return s.Update([]byte(document))
}

// Current returns the latest snapshot, or nil before the first Update
func (s *MemorySource) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// Subscribe implements Source
func (s *MemorySource) Subscribe(ctx context.Context) <-chan *Snapshot {
	ch := make(chan *Snapshot, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	if s.current != nil {
		ch <- s.current
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// offer replaces any unread snapshot in ch with snap
func offer(ch chan *Snapshot, snap *Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
