package ports

import (
	"context"
	"time"
)

// HTTPServer defines the interface for the preview server
type HTTPServer interface {
	Start(ctx context.Context, port int, host string) error
	Stop(ctx context.Context) error
	NotifyClients(event UpdateEvent) error
	IsRunning() bool
}

// UpdateEvent is a message pushed to the preview pages over the websocket
type UpdateEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// UpdateEvent types
const (
	EventTypeConnected     = "connected"
	EventTypeEngineInit    = "engine.init"
	EventTypeEnginePatch   = "engine.patch"
	EventTypeEngineSync    = "engine.sync"
	EventTypeEngineDestroy = "engine.destroy"
	EventTypeDeckUpdated   = "deck.updated"
	EventTypeSlideChanged  = "slide.changed"
	EventTypeFileChange    = "file_change"
	EventTypeError         = "error"
)
