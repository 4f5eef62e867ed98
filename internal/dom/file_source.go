package dom

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileSource publishes a snapshot each time an HTML file on disk changes.
// The file is typically written by a browser bridge that serializes the
// webmail page.
type FileSource struct {
	path   string
	memory *MemorySource
	logger *zap.Logger
}

// NewFileSource creates a source for the document at path
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{
		path:   filepath.Clean(path),
		memory: NewMemorySource(),
		logger: logger,
	}
}

// Subscribe implements Source
func (s *FileSource) Subscribe(ctx context.Context) <-chan *Snapshot {
	return s.memory.Subscribe(ctx)
}

// Run loads the file and reloads it on every change until ctx is done. The
// parent directory is watched so that files replaced by rename are seen.
func (s *FileSource) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	s.logger.Info("Watching document", zap.String("path", s.path))
	s.reload()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				s.reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (s *FileSource) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read document", zap.String("path", s.path), zap.Error(err))
		}
		return
	}
	if err := s.memory.Update(data); err != nil {
		s.logger.Warn("Failed to parse document", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.logger.Debug("Document reloaded",
		zap.String("path", s.path),
		zap.Int("bytes", len(data)))
}
