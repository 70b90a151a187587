package http

import (
	"context"
	"errors"
	"sync"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// ErrHubStopped is returned when a page connects while the hub is not running
var ErrHubStopped = errors.New("connection hub is not running")

// InitPayload is the data of an engine.init event
type InitPayload struct {
	HTML   string             `json:"html"`
	Config ports.EngineConfig `json:"config"`
}

// PatchPayload is the data of an engine.patch event
type PatchPayload struct {
	HTML string `json:"html"`
}

// SyncPayload is the data of an engine.sync event
type SyncPayload struct {
	Reset bool `json:"reset"`
}

// WebSocketEngine drives the reveal.js instance of every connected preview
// page. The last init and patch are kept so a page that connects later
// shows the current deck.
type WebSocketEngine struct {
	hub   *ConnectionManager
	clock ports.Clock

	mu    sync.Mutex
	init  *ports.UpdateEvent
	patch *ports.UpdateEvent
}

// NewWebSocketEngine creates an engine broadcasting through hub
func NewWebSocketEngine(hub *ConnectionManager, clock ports.Clock) *WebSocketEngine {
	if clock == nil {
		clock = ports.NewRealClock()
	}
	return &WebSocketEngine{hub: hub, clock: clock}
}

// Ready is true while the hub runs
func (e *WebSocketEngine) Ready() bool {
	return e.hub.Running()
}

// Init replaces the engine instance on every page
func (e *WebSocketEngine) Init(ctx context.Context, html string, cfg ports.EngineConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.hub.Running() {
		return ErrHubStopped
	}
	ev := e.event(ports.EventTypeEngineInit, InitPayload{HTML: html, Config: cfg})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.init = &ev
	e.patch = nil
	e.hub.Broadcast(ev)
	return nil
}

// Patch swaps the slide markup of the running instance
func (e *WebSocketEngine) Patch(ctx context.Context, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := e.event(ports.EventTypeEnginePatch, PatchPayload{HTML: html})

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.init == nil {
		return errors.New("engine not initialized")
	}
	e.patch = &ev
	e.hub.Broadcast(ev)
	return nil
}

// Sync asks every page to recompute its layout
func (e *WebSocketEngine) Sync(ctx context.Context, resetToFirst bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.hub.Broadcast(e.event(ports.EventTypeEngineSync, SyncPayload{Reset: resetToFirst}))
	return nil
}

// Destroy tears the instance down on every page and forgets the cached init
func (e *WebSocketEngine) Destroy(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.init = nil
	e.patch = nil
	e.hub.Broadcast(e.event(ports.EventTypeEngineDestroy, nil))
	return nil
}

// Join registers conn with the hub after queueing the cached init and
// patch on it. Holding the lock across registration means the page either
// sees an event in the replay or receives it from the hub.
func (e *WebSocketEngine) Join(conn *Connection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hub.Running() {
		close(conn.Send)
		return ErrHubStopped
	}
	for _, ev := range []*ports.UpdateEvent{e.init, e.patch} {
		if ev != nil {
			conn.Send <- *ev
		}
	}
	if !e.hub.RegisterConnection(conn) {
		return ErrHubStopped
	}
	return nil
}

// Current returns the cached init event, if any
func (e *WebSocketEngine) Current() (ports.UpdateEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.init == nil {
		return ports.UpdateEvent{}, false
	}
	return *e.init, true
}

func (e *WebSocketEngine) event(kind string, data interface{}) ports.UpdateEvent {
	return ports.UpdateEvent{Type: kind, Timestamp: e.clock.Now(), Data: data}
}

var _ ports.SlideEngine = (*WebSocketEngine)(nil)
