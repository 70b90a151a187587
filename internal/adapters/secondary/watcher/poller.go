// Package watcher polls the deck input files for changes.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// PollingWatcher detects changes by stat + checksum on every tick. Changes
// seen inside the debounce window are held back and reported once it ends.
type PollingWatcher struct {
	clock    ports.Clock
	interval time.Duration
	debounce time.Duration
	logger   ports.Logger

	mu      sync.Mutex
	files   map[string]fileState
	events  chan ports.FileChangeEvent
	wg      sync.WaitGroup
	stopped bool
	stopCh  chan struct{}
}

type fileState struct {
	exists   bool
	size     int64
	modTime  time.Time
	checksum string
}

// NewPollingWatcher creates a watcher
func NewPollingWatcher(clock ports.Clock, interval, debounce time.Duration, logger ports.Logger) *PollingWatcher {
	if clock == nil {
		clock = ports.NewRealClock()
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &PollingWatcher{
		clock:    clock,
		interval: interval,
		debounce: debounce,
		logger:   logger,
		files:    make(map[string]fileState),
		events:   make(chan ports.FileChangeEvent, 10),
		stopCh:   make(chan struct{}),
	}
}

// Watch scans paths once and starts polling them
func (w *PollingWatcher) Watch(ctx context.Context, paths ...string) (<-chan ports.FileChangeEvent, error) {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		state, err := scan(a)
		if err != nil {
			return nil, fmt.Errorf("initial scan: %w", err)
		}
		if !state.exists {
			return nil, fmt.Errorf("initial scan: %s does not exist", p)
		}
		w.mu.Lock()
		w.files[a] = state
		w.mu.Unlock()
		abs = append(abs, a)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil, fmt.Errorf("watcher stopped")
	}

	ticker := w.clock.NewTicker(w.interval)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()
		w.pollLoop(ctx, ticker, abs)
	}()

	return w.events, nil
}

// Stop ends every poll loop and closes the event channel
func (w *PollingWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.events)
	return nil
}

func (w *PollingWatcher) pollLoop(ctx context.Context, ticker ports.Ticker, paths []string) {
	lastSent := make(map[string]time.Time)
	pending := make(map[string]ports.ChangeType)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C():
		}

		now := w.clock.Now()
		for _, path := range paths {
			changeType, changed, err := w.check(path)
			if err != nil {
				w.logger.Warn("Watch error on %s: %v", path, err)
				continue
			}
			if changed {
				pending[path] = changeType
			}

			typ, ok := pending[path]
			if !ok || now.Sub(lastSent[path]) < w.debounce {
				continue
			}

			event := ports.FileChangeEvent{Path: path, Type: typ, Timestamp: now}
			select {
			case w.events <- event:
				lastSent[path] = now
				delete(pending, path)
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			}
		}
	}
}

// check compares path with its last known state. The checksum is only
// computed when size or modification time moved.
func (w *PollingWatcher) check(path string) (ports.ChangeType, bool, error) {
	w.mu.Lock()
	old := w.files[path]
	w.mu.Unlock()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if !old.exists {
			return 0, false, nil
		}
		w.store(path, fileState{})
		return ports.Deleted, true, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("stat file: %w", err)
	}

	if old.exists && old.size == info.Size() && old.modTime.Equal(info.ModTime()) {
		return 0, false, nil
	}

	checksum, err := checksumOf(path)
	if err != nil {
		return 0, false, fmt.Errorf("calculate checksum: %w", err)
	}

	current := fileState{exists: true, size: info.Size(), modTime: info.ModTime(), checksum: checksum}
	w.store(path, current)

	switch {
	case !old.exists:
		return ports.Created, true, nil
	case old.checksum != checksum:
		return ports.Modified, true, nil
	}
	return 0, false, nil
}

func (w *PollingWatcher) store(path string, state fileState) {
	w.mu.Lock()
	w.files[path] = state
	w.mu.Unlock()
}

func scan(path string) (fileState, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fileState{}, nil
	}
	if err != nil {
		return fileState{}, fmt.Errorf("stat file: %w", err)
	}
	checksum, err := checksumOf(path)
	if err != nil {
		return fileState{}, fmt.Errorf("calculate checksum: %w", err)
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime(), checksum: checksum}, nil
}

func checksumOf(path string) (string, error) {
	file, err := os.Open(path) // #nosec G304 - path is one of the watched inputs
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

var _ ports.FileWatcher = (*PollingWatcher)(nil)
