// Package monitoring keeps in-process counters for the preview server:
// deck builds, exports, pages and memory use.
package monitoring

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// Health thresholds
const (
	maxHealthyMemory     = 500 * 1024 * 1024
	maxHealthyGoroutines = 1000
)

// smoothing weight of the newest sample in average durations
const alpha = 0.1

// Operation summarizes one kind of timed operation
type Operation struct {
	Count     int64 `json:"count"`
	Failures  int64 `json:"failures"`
	AverageMs int64 `json:"avg_ms"`
	LastMs    int64 `json:"last_ms"`
}

// Memory is a runtime memory reading
type Memory struct {
	AllocMB    int64  `json:"alloc_mb"`
	HeapMB     int64  `json:"heap_mb"`
	Goroutines int    `json:"goroutines"`
	GCCycles   uint32 `json:"gc_cycles"`
}

// Snapshot is a copy of the counters at one instant
type Snapshot struct {
	Healthy     bool                 `json:"healthy"`
	Uptime      string               `json:"uptime"`
	Requests    int64                `json:"http_requests"`
	Connections int64                `json:"websocket_connections"`
	Builds      Operation            `json:"builds"`
	Exports     map[string]Operation `json:"exports"`
	Memory      Memory               `json:"memory"`
}

type timing struct {
	count    int64
	failures int64
	average  time.Duration
	last     time.Duration
}

func (t *timing) record(d time.Duration, failed bool) {
	t.count++
	if failed {
		t.failures++
	}
	t.last = d
	if t.average == 0 {
		t.average = d
		return
	}
	t.average = time.Duration(float64(t.average)*(1-alpha) + float64(d)*alpha)
}

func (t *timing) operation() Operation {
	return Operation{
		Count:     t.count,
		Failures:  t.failures,
		AverageMs: t.average.Milliseconds(),
		LastMs:    t.last.Milliseconds(),
	}
}

// Stats collects server counters. It is safe for concurrent use.
type Stats struct {
	clock   ports.Clock
	started time.Time

	mu          sync.Mutex
	requests    int64
	connections int64
	builds      timing
	exports     map[string]*timing
}

// NewStats creates counters starting now
func NewStats(clock ports.Clock) *Stats {
	if clock == nil {
		clock = ports.NewRealClock()
	}
	return &Stats{
		clock:   clock,
		started: clock.Now(),
		exports: make(map[string]*timing),
	}
}

// RecordRequest counts one HTTP request
func (s *Stats) RecordRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
}

// RecordConnection counts one preview page connection
func (s *Stats) RecordConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections++
}

// RecordBuild records a deck build or rebuild
func (s *Stats) RecordBuild(d time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds.record(d, failed)
}

// RecordExport records one export in format
func (s *Stats) RecordExport(format string, d time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.exports[format]
	if !ok {
		t = &timing{}
		s.exports[format] = t
	}
	t.record(d, failed)
}

// Snapshot copies the counters and reads the runtime memory statistics
func (s *Stats) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	memory := Memory{
		AllocMB:    toInt64(mem.Alloc) / (1024 * 1024),
		HeapMB:     toInt64(mem.HeapAlloc) / (1024 * 1024),
		Goroutines: runtime.NumGoroutine(),
		GCCycles:   mem.NumGC,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exports := make(map[string]Operation, len(s.exports))
	for format, t := range s.exports {
		exports[format] = t.operation()
	}

	return Snapshot{
		Healthy:     toInt64(mem.Alloc) < maxHealthyMemory && memory.Goroutines < maxHealthyGoroutines,
		Uptime:      s.clock.Now().Sub(s.started).Round(time.Second).String(),
		Requests:    s.requests,
		Connections: s.connections,
		Builds:      s.builds.operation(),
		Exports:     exports,
		Memory:      memory,
	}
}

// toInt64 converts v, capping at the largest int64
func toInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
