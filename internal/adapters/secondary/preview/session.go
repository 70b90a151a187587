package preview

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Session is the state of one preview, from mount to unmount. Assets are
// loaded at most once per session.
type Session struct {
	ID string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	loaded map[string]bool
	closed bool
}

// NewSession creates a session bound to parent
func NewSession(parent context.Context) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:     uuid.New().String(),
		ctx:    ctx,
		cancel: cancel,
		loaded: make(map[string]bool),
	}
}

// Context is cancelled when the session closes
func (s *Session) Context() context.Context {
	return s.ctx
}

// MarkLoaded records an asset; it returns false if it was already loaded
func (s *Session) MarkLoaded(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded[url] {
		return false
	}
	s.loaded[url] = true
	return true
}

// IsLoaded reports whether url was loaded in this session
func (s *Session) IsLoaded(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[url]
}

// Close cancels the session context. It is safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
