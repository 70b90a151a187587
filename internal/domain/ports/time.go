package ports

import "time"

// Clock abstracts time for the preview renderer, the generation poller and
// the file watcher so tests can drive timers by hand
type Clock interface {
	Now() time.Time
	// AfterFunc runs f in its own goroutine after d
	AfterFunc(d time.Duration, f func()) Timer
	NewTicker(d time.Duration) Ticker
}

// Ticker abstracts time.Ticker
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Timer abstracts a timer created with AfterFunc
type Timer interface {
	Stop() bool
}

// RealClock implements Clock with the time package
type RealClock struct{}

// NewRealClock returns the wall clock
func NewRealClock() Clock {
	return RealClock{}
}

// Now returns the current time
func (RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewTicker wraps time.NewTicker
func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(d)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (t *realTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t *realTicker) Stop() {
	t.ticker.Stop()
}
