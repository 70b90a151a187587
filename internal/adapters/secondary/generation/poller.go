// Package generation follows long-running slide generation jobs.
package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// DefaultInterval is the delay between two status requests
const DefaultInterval = 2 * time.Second

var (
	ErrAlreadyPolling = errors.New("job is already being polled")
	ErrPollerClosed   = errors.New("poller closed")
	ErrJobFailed      = errors.New("generation job failed")
)

// Poller polls job status at a fixed interval until the job ends. Each job
// has at most one poll loop.
type Poller struct {
	source   ports.JobStatusSource
	clock    ports.Clock
	interval time.Duration
	logger   ports.Logger

	mu     sync.Mutex
	jobs   map[string]context.CancelFunc
	closed bool
}

// NewPoller creates a poller; interval <= 0 selects DefaultInterval
func NewPoller(source ports.JobStatusSource, clock ports.Clock, interval time.Duration, logger ports.Logger) *Poller {
	if clock == nil {
		clock = ports.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Poller{
		source:   source,
		clock:    clock,
		interval: interval,
		logger:   logger,
		jobs:     make(map[string]context.CancelFunc),
	}
}

// Wait blocks until jobID reaches SUCCESS or FAILURE, ctx is done or the
// poller closes. Failed status requests are logged and retried on the next tick.
func (p *Poller) Wait(ctx context.Context, jobID string) (ports.JobStatus, error) {
	ctx, ticker, err := p.register(ctx, jobID)
	if err != nil {
		return ports.JobStatus{}, err
	}
	defer p.unregister(jobID)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if p.isClosed() {
				return ports.JobStatus{}, ErrPollerClosed
			}
			return ports.JobStatus{}, ctx.Err()
		case <-ticker.C():
		}

		status, err := p.source.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("Status request for job %s failed: %v", jobID, err)
			continue
		}

		p.logger.Debug("Job %s is %s", jobID, status.State)

		switch status.State {
		case ports.JobSuccess:
			return status, nil
		case ports.JobFailure:
			msg := status.Error
			if msg == "" {
				msg = "no details"
			}
			return status, fmt.Errorf("%w: %s", ErrJobFailed, msg)
		}
	}
}

func (p *Poller) register(parent context.Context, jobID string) (context.Context, ports.Ticker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, nil, ErrPollerClosed
	}
	if _, ok := p.jobs[jobID]; ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyPolling, jobID)
	}

	ctx, cancel := context.WithCancel(parent)
	p.jobs[jobID] = cancel
	return ctx, p.clock.NewTicker(p.interval), nil
}

func (p *Poller) unregister(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.jobs[jobID]; ok {
		cancel()
		delete(p.jobs, jobID)
	}
}

func (p *Poller) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Active reports whether jobID is being polled
func (p *Poller) Active(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.jobs[jobID]
	return ok
}

// Close stops every poll loop
func (p *Poller) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, cancel := range p.jobs {
		cancel()
	}
}
