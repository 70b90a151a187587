package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// ReloadFunc reads the watched inputs again. It receives the current inputs
// so settings changed from the browser (theme, transition) survive a reload.
type ReloadFunc func(ctx context.Context, current ports.DeckInput) (ports.DeckInput, error)

// LiveReloadService rebuilds the workspace when a watched input file changes
// and tells the preview pages about it
type LiveReloadService struct {
	watcher   ports.FileWatcher
	workspace *Workspace
	reload    ReloadFunc
	notifier  ports.HTTPServer
	clock     ports.Clock
	logger    ports.Logger

	mu          sync.Mutex
	watching    bool
	watchCancel context.CancelFunc
	done        chan struct{}
}

// NewLiveReloadService creates a live reload service. notifier may be nil.
func NewLiveReloadService(
	watcher ports.FileWatcher,
	workspace *Workspace,
	reload ReloadFunc,
	notifier ports.HTTPServer,
	clock ports.Clock,
	logger ports.Logger,
) *LiveReloadService {
	if clock == nil {
		clock = ports.NewRealClock()
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}

	return &LiveReloadService{
		watcher:   watcher,
		workspace: workspace,
		reload:    reload,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
	}
}

// Start watches paths until Stop or ctx is done
func (s *LiveReloadService) Start(ctx context.Context, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watching {
		return errors.New("already watching")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events, err := s.watcher.Watch(watchCtx, paths...)
	if err != nil {
		cancel()
		return fmt.Errorf("starting watcher: %w", err)
	}

	s.watching = true
	s.watchCancel = cancel
	s.done = make(chan struct{})
	go s.handleEvents(watchCtx, events, s.done)

	s.logger.Info("Watching %d file(s) for changes", len(paths))
	return nil
}

// Stop ends watching and waits for the event loop to exit
func (s *LiveReloadService) Stop() error {
	s.mu.Lock()
	if !s.watching {
		s.mu.Unlock()
		return nil
	}
	s.watchCancel()
	s.watchCancel = nil
	s.watching = false
	done := s.done
	s.mu.Unlock()

	err := s.watcher.Stop()
	<-done
	return err
}

// IsWatching returns whether the service is currently watching
func (s *LiveReloadService) IsWatching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

func (s *LiveReloadService) handleEvents(ctx context.Context, events <-chan ports.FileChangeEvent, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			s.logger.Info("File %s %s", event.Path, event.Type)

			slides, err := s.reloadDeck(ctx)
			if err != nil {
				s.logger.Error("Failed to reload deck after %s changed: %v", event.Path, err)
				s.notify(ports.EventTypeError, map[string]interface{}{
					"file":    event.Path,
					"message": err.Error(),
				})
				continue
			}

			s.notify(ports.EventTypeFileChange, map[string]interface{}{
				"file":   event.Path,
				"type":   event.Type.String(),
				"slides": slides,
			})
		}
	}
}

func (s *LiveReloadService) reloadDeck(ctx context.Context) (int, error) {
	input, err := s.reload(ctx, s.workspace.Input())
	if err != nil {
		return 0, fmt.Errorf("reading inputs: %w", err)
	}
	deck, err := s.workspace.Load(ctx, input)
	if err != nil {
		return 0, err
	}
	s.logger.Success("Deck reloaded with %d slides", deck.SlideCount())
	return deck.SlideCount(), nil
}

func (s *LiveReloadService) notify(kind string, data map[string]interface{}) {
	if s.notifier == nil || !s.notifier.IsRunning() {
		return
	}
	event := ports.UpdateEvent{Type: kind, Timestamp: s.clock.Now(), Data: data}
	if err := s.notifier.NotifyClients(event); err != nil {
		s.logger.Warn("Failed to notify preview pages: %v", err)
	}
}
