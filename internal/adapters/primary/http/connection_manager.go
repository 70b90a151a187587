package http

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// sendBuffer is the number of events queued per page before it is dropped as too slow
const sendBuffer = 256

// Connection represents a WebSocket connection
type Connection struct {
	ID   string
	Send chan ports.UpdateEvent
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(id string) *Connection {
	return &Connection{ID: id, Send: make(chan ports.UpdateEvent, sendBuffer)}
}

// ConnectionManager is the hub every preview page is registered with
type ConnectionManager struct {
	connections map[string]*Connection
	broadcast   chan ports.UpdateEvent
	register    chan *Connection
	unregister  chan string
	mu          sync.RWMutex
	running     atomic.Bool
	started     sync.Once
	done        chan struct{}
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		broadcast:   make(chan ports.UpdateEvent, sendBuffer),
		register:    make(chan *Connection),
		unregister:  make(chan string),
		done:        make(chan struct{}),
	}
}

// Run starts the connection manager main loop. It returns when ctx is
// done, after closing every connection. A manager runs at most once.
func (cm *ConnectionManager) Run(ctx context.Context) {
	first := false
	cm.started.Do(func() { first = true })
	if !first {
		return
	}

	cm.running.Store(true)
	defer func() {
		cm.running.Store(false)
		cm.closeAll()
		close(cm.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-cm.register:
			cm.mu.Lock()
			cm.connections[conn.ID] = conn
			cm.mu.Unlock()

		case id := <-cm.unregister:
			cm.mu.Lock()
			if conn, ok := cm.connections[id]; ok {
				delete(cm.connections, id)
				close(conn.Send)
			}
			cm.mu.Unlock()

		case event := <-cm.broadcast:
			cm.mu.Lock()
			for id, conn := range cm.connections {
				select {
				case conn.Send <- event:
				default:
					// too slow, drop it
					close(conn.Send)
					delete(cm.connections, id)
				}
			}
			cm.mu.Unlock()
		}
	}
}

// Running reports whether the main loop is active
func (cm *ConnectionManager) Running() bool {
	return cm.running.Load()
}

// Done is closed once the main loop has exited
func (cm *ConnectionManager) Done() <-chan struct{} {
	return cm.done
}

// RegisterConnection adds a connection. It returns false when the manager
// is shutting down; the connection's queue is then closed.
func (cm *ConnectionManager) RegisterConnection(conn *Connection) bool {
	select {
	case cm.register <- conn:
		return true
	case <-cm.done:
		close(conn.Send)
		return false
	}
}

// Unregister removes a connection
func (cm *ConnectionManager) Unregister(connID string) {
	if !cm.Running() {
		return
	}
	select {
	case cm.unregister <- connID:
	case <-cm.done:
	}
}

// Broadcast sends an event to all connections. Events are dropped while
// the main loop is not running.
func (cm *ConnectionManager) Broadcast(event ports.UpdateEvent) {
	if !cm.Running() {
		return
	}
	select {
	case cm.broadcast <- event:
	case <-cm.done:
	}
}

// Count returns the number of registered connections
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for id, conn := range cm.connections {
		close(conn.Send)
		delete(cm.connections, id)
	}
}
