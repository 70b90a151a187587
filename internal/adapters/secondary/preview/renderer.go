package preview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
	"github.com/sydologie/diapoai/internal/domain/services"
)

// State is the lifecycle state of the renderer
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateInitializing
	StateReady
	StateReinitializing
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateReinitializing:
		return "reinitializing"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	DefaultMaxInitAttempts = 5
	DefaultRetryBase       = 300 * time.Millisecond
	retryFactor            = 1.5
)

// SyncDelays is the layout correction burst issued after each initialization
var SyncDelays = []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond, 2000 * time.Millisecond}

var (
	ErrNotMounted     = errors.New("renderer is not mounted")
	ErrAlreadyMounted = errors.New("renderer is already mounted")
	ErrDestroyed      = errors.New("renderer was destroyed")
	ErrInitExhausted  = errors.New("slide engine did not initialize")
	ErrEngineNotReady = errors.New("slide engine not ready")
	ErrNoDeck         = errors.New("no deck to render")
)

// Options configures a Renderer
type Options struct {
	Engine      ports.EngineConfig
	Assets      []string
	MaxAttempts int
	RetryBase   time.Duration
}

// Renderer owns one slide-engine instance and keeps it in step with the deck.
// Timers created for an older generation are ignored when they fire.
type Renderer struct {
	engine ports.SlideEngine
	assets ports.AssetLoader
	parser ports.DOMParser
	clock  ports.Clock
	logger ports.Logger
	opts   Options

	mu            sync.Mutex
	state         State
	session       *Session
	deck          *entities.SlideDocument
	generation    uint64
	attempt       int
	timers        []ports.Timer
	firstSyncDone bool
	lastErr       error
}

// NewRenderer creates a renderer. assets may be nil when the engine page
// loads its own scripts.
func NewRenderer(engine ports.SlideEngine, assets ports.AssetLoader, parser ports.DOMParser, clock ports.Clock, logger ports.Logger, opts Options) *Renderer {
	if clock == nil {
		clock = ports.NewRealClock()
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxInitAttempts
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = DefaultRetryBase
	}
	return &Renderer{
		engine: engine,
		assets: assets,
		parser: parser,
		clock:  clock,
		logger: logger,
		opts:   opts,
	}
}

// State returns the current lifecycle state
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the last initialization failure, if any
func (r *Renderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Session returns the current preview session
func (r *Renderer) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Deck returns the deck currently shown
func (r *Renderer) Deck() *entities.SlideDocument {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deck
}

// Mount starts a session, loads the engine assets and initializes the engine
func (r *Renderer) Mount(ctx context.Context, deck *entities.SlideDocument) error {
	if deck == nil {
		return ErrNoDeck
	}

	r.mu.Lock()
	switch r.state {
	case StateDestroyed:
		r.mu.Unlock()
		return ErrDestroyed
	case StateUninitialized:
	default:
		r.mu.Unlock()
		return ErrAlreadyMounted
	}
	r.session = NewSession(ctx)
	r.deck = deck
	r.state = StateLoading
	session := r.session
	r.mu.Unlock()

	r.loadAssets(session)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateLoading {
		return nil
	}
	r.state = StateInitializing
	r.startInitLocked()
	return nil
}

func (r *Renderer) loadAssets(session *Session) {
	if r.assets == nil {
		return
	}
	for _, url := range r.opts.Assets {
		if !session.MarkLoaded(url) {
			continue
		}
		if err := r.assets.Load(session.Context(), url); err != nil {
			r.logger.Warn("Failed to load preview asset %s: %v", url, err)
		}
	}
}

// Update replaces the deck and re-initializes the engine
func (r *Renderer) Update(ctx context.Context, deck *entities.SlideDocument) error {
	if deck == nil {
		return ErrNoDeck
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateUninitialized:
		return ErrNotMounted
	case StateDestroyed:
		return ErrDestroyed
	}

	r.deck = deck
	r.stopTimersLocked()
	r.state = StateReinitializing
	r.destroyEngineLocked(ctx)
	r.startInitLocked()
	return nil
}

// SetTheme re-renders the current deck with another palette
func (r *Renderer) SetTheme(ctx context.Context, theme entities.ColorTheme) error {
	deck, err := r.currentDeck()
	if err != nil {
		return err
	}
	next := *deck
	next.Theme = theme.WithDefaults()
	return r.Update(ctx, &next)
}

// SetTransition re-renders the current deck with another transition
func (r *Renderer) SetTransition(ctx context.Context, transition string) error {
	if !entities.IsTransition(transition) {
		return fmt.Errorf("unknown transition %q", transition)
	}
	deck, err := r.currentDeck()
	if err != nil {
		return err
	}
	next := *deck
	next.Transition = transition
	return r.Update(ctx, &next)
}

func (r *Renderer) currentDeck() (*entities.SlideDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.state == StateDestroyed:
		return nil, ErrDestroyed
	case r.state == StateUninitialized || r.deck == nil:
		return nil, ErrNotMounted
	}
	return r.deck, nil
}

// Unmount destroys the engine, clears every pending timer and closes the session
func (r *Renderer) Unmount() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateDestroyed {
		return
	}
	r.stopTimersLocked()
	r.generation++
	if r.state != StateUninitialized {
		r.destroyEngineLocked(context.Background())
	}
	if r.session != nil {
		r.session.Close()
	}
	r.state = StateDestroyed
}

func (r *Renderer) destroyEngineLocked(ctx context.Context) {
	if err := r.engine.Destroy(ctx); err != nil {
		r.logger.Warn("Slide engine teardown failed: %v", err)
	}
}

func (r *Renderer) stopTimersLocked() {
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
}

func (r *Renderer) startInitLocked() {
	r.generation++
	r.attempt = 0
	r.lastErr = nil
	r.tryInitLocked(r.generation)
}

// tryInitLocked makes one initialization attempt and schedules the next on failure
func (r *Renderer) tryInitLocked(gen uint64) {
	ctx := r.session.Context()
	err := ErrEngineNotReady
	if r.engine.Ready() {
		err = r.engine.Init(ctx, r.deck.HTML, r.engineConfig())
	}
	if err == nil {
		r.onInitializedLocked(ctx, gen)
		return
	}

	r.attempt++
	if r.attempt >= r.opts.MaxAttempts {
		r.lastErr = fmt.Errorf("%w after %d attempts: %v", ErrInitExhausted, r.attempt, err)
		r.logger.Error("Preview stays inactive: %v", r.lastErr)
		return
	}

	delay := r.retryDelay(r.attempt - 1)
	r.logger.Debug("Slide engine init attempt %d failed (%v), retrying in %s", r.attempt, err, delay)
	r.scheduleLocked(gen, delay, func() { r.tryInitLocked(gen) })
}

func (r *Renderer) retryDelay(attempt int) time.Duration {
	return time.Duration(float64(r.opts.RetryBase) * math.Pow(retryFactor, float64(attempt)))
}

func (r *Renderer) onInitializedLocked(ctx context.Context, gen uint64) {
	r.state = StateReady

	if r.parser != nil {
		themed := services.ApplyInlineThemeHTML(r.parser, r.deck.HTML, r.deck.Theme)
		if err := r.engine.Patch(ctx, themed); err != nil {
			r.logger.Warn("Failed to push theme colors: %v", err)
		}
	}

	for _, d := range SyncDelays {
		r.scheduleLocked(gen, d, func() { r.syncLocked(ctx) })
	}
	r.logger.Debug("Slide engine ready with %d slides", r.deck.SlideCount())
}

func (r *Renderer) syncLocked(ctx context.Context) {
	reset := !r.firstSyncDone
	r.firstSyncDone = true
	if err := r.engine.Sync(ctx, reset); err != nil {
		r.logger.Debug("Slide engine sync failed: %v", err)
	}
}

// scheduleLocked runs fn under the lock after d unless the generation moved on
func (r *Renderer) scheduleLocked(gen uint64, d time.Duration, fn func()) {
	t := r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if gen != r.generation || r.state == StateDestroyed {
			return
		}
		fn()
	})
	r.timers = append(r.timers, t)
}

func (r *Renderer) engineConfig() ports.EngineConfig {
	cfg := r.opts.Engine
	if r.deck != nil && r.deck.Transition != "" {
		cfg.Transition = r.deck.Transition
	}
	if cfg.Transition == "" {
		cfg.Transition = "slide"
	}
	return cfg
}
