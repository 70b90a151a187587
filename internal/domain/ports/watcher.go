package ports

import (
	"context"
	"time"
)

// FileWatcher reports changes to the deck input files
type FileWatcher interface {
	// Watch starts watching paths; every path must exist
	Watch(ctx context.Context, paths ...string) (<-chan FileChangeEvent, error)
	// Stop ends watching and closes the event channel
	Stop() error
}

// FileChangeEvent represents a file change event
type FileChangeEvent struct {
	Path      string
	Type      ChangeType
	Timestamp time.Time
}

// ChangeType represents the type of file change
type ChangeType int

const (
	Modified ChangeType = iota
	Created
	Deleted
)

func (c ChangeType) String() string {
	switch c {
	case Modified:
		return "modified"
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}
