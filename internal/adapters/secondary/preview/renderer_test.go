package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/adapters/secondary/dom"
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
	"github.com/sydologie/diapoai/internal/test/builders"
)

// fakeEngine records every call in order
type fakeEngine struct {
	mu         sync.Mutex
	calls      []string
	notReady   int
	initErr    error
	destroyErr error
	patched    []string
	syncs      []bool
	inits      []ports.EngineConfig
}

func (e *fakeEngine) record(call string) {
	e.calls = append(e.calls, call)
}

func (e *fakeEngine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("ready")
	if e.notReady > 0 {
		e.notReady--
		return false
	}
	return true
}

func (e *fakeEngine) Init(_ context.Context, _ string, cfg ports.EngineConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("init")
	e.inits = append(e.inits, cfg)
	return e.initErr
}

func (e *fakeEngine) Patch(_ context.Context, html string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("patch")
	e.patched = append(e.patched, html)
	return nil
}

func (e *fakeEngine) Sync(_ context.Context, resetToFirst bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("sync")
	e.syncs = append(e.syncs, resetToFirst)
	return nil
}

func (e *fakeEngine) Destroy(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("destroy")
	return e.destroyErr
}

func (e *fakeEngine) count(call string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c == call {
			n++
		}
	}
	return n
}

type MockAssetLoader struct {
	mock.Mock
}

func (m *MockAssetLoader) Load(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

type recordingLogger struct {
	ports.NopLogger
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(msg, args...))
}

func (l *recordingLogger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(msg, args...))
}

func newTestRenderer(engine *fakeEngine, assets ports.AssetLoader, logger ports.Logger, opts Options) (*Renderer, *builders.FakeClock) {
	clock := builders.NewFakeClock()
	return NewRenderer(engine, assets, dom.MustParser("html"), clock, logger, opts), clock
}

func TestRenderer_Mount(t *testing.T) {
	engine := &fakeEngine{}
	r, clock := newTestRenderer(engine, nil, nil, Options{Engine: ports.EngineConfig{Controls: true}})
	deck := builders.NewDeckBuilder().WithSlideCount(2).WithTransition("fade").Build()

	require.NoError(t, r.Mount(context.Background(), deck))

	assert.Equal(t, StateReady, r.State())
	assert.Equal(t, []string{"ready", "init", "patch"}, engine.calls)
	require.Len(t, engine.inits, 1)
	assert.Equal(t, "fade", engine.inits[0].Transition)
	assert.True(t, engine.inits[0].Controls)

	require.Len(t, engine.patched, 1)
	assert.Contains(t, engine.patched[0], "color: "+entities.DefaultPrimaryColor)
	assert.Equal(t, SyncDelays, clock.Pending())

	clock.Advance(2 * time.Second)
	assert.Equal(t, []bool{true, false, false}, engine.syncs)
	assert.Empty(t, clock.Pending())
	assert.NoError(t, r.Err())
	assert.NotEmpty(t, r.Session().ID)
}

func TestRenderer_MountTwice(t *testing.T) {
	r, _ := newTestRenderer(&fakeEngine{}, nil, nil, Options{})
	require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))

	assert.ErrorIs(t, r.Mount(context.Background(), builders.MinimalDeck()), ErrAlreadyMounted)
}

func TestRenderer_InitRetry(t *testing.T) {
	t.Run("backoff until ready", func(t *testing.T) {
		engine := &fakeEngine{notReady: 2}
		r, clock := newTestRenderer(engine, nil, nil, Options{})

		require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))
		assert.Equal(t, StateInitializing, r.State())
		assert.Equal(t, []time.Duration{300 * time.Millisecond}, clock.Pending())

		clock.Advance(300 * time.Millisecond)
		assert.Equal(t, []time.Duration{450 * time.Millisecond}, clock.Pending())

		clock.Advance(450 * time.Millisecond)
		assert.Equal(t, StateReady, r.State())
		assert.Equal(t, 1, engine.count("init"))
	})

	t.Run("gives up after five attempts", func(t *testing.T) {
		engine := &fakeEngine{notReady: 100}
		logger := &recordingLogger{}
		r, clock := newTestRenderer(engine, nil, logger, Options{})

		require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))
		clock.Advance(time.Minute)

		assert.Equal(t, DefaultMaxInitAttempts, engine.count("ready"))
		assert.Zero(t, engine.count("init"))
		assert.ErrorIs(t, r.Err(), ErrInitExhausted)
		assert.Equal(t, StateInitializing, r.State())
		assert.Len(t, logger.errors, 1)
		assert.Empty(t, clock.Pending())
	})

	t.Run("init errors are retried", func(t *testing.T) {
		engine := &fakeEngine{initErr: errors.New("no container")}
		r, clock := newTestRenderer(engine, nil, nil, Options{MaxAttempts: 3, RetryBase: 100 * time.Millisecond})

		require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))
		clock.Advance(time.Second)

		assert.Equal(t, 3, engine.count("init"))
		assert.ErrorIs(t, r.Err(), ErrInitExhausted)
	})

	t.Run("delays grow by half", func(t *testing.T) {
		r, _ := newTestRenderer(&fakeEngine{}, nil, nil, Options{})
		assert.Equal(t, 300*time.Millisecond, r.retryDelay(0))
		assert.Equal(t, 675*time.Millisecond, r.retryDelay(2))
	})
}

func TestRenderer_Update(t *testing.T) {
	t.Run("destroys before re-initializing", func(t *testing.T) {
		engine := &fakeEngine{destroyErr: errors.New("already gone")}
		logger := &recordingLogger{}
		r, clock := newTestRenderer(engine, nil, logger, Options{})

		require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))
		engine.calls = nil

		next := builders.NewDeckBuilder().WithSlideCount(3).Build()
		require.NoError(t, r.Update(context.Background(), next))

		assert.Equal(t, []string{"destroy", "ready", "init", "patch"}, engine.calls)
		assert.Equal(t, StateReady, r.State())
		assert.Same(t, next, r.Deck())
		assert.Len(t, logger.warns, 1)
		assert.Equal(t, SyncDelays, clock.Pending())
	})

	t.Run("pending timers of the previous instance are dropped", func(t *testing.T) {
		engine := &fakeEngine{}
		r, clock := newTestRenderer(engine, nil, nil, Options{})

		require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))
		clock.Advance(600 * time.Millisecond)
		require.Equal(t, []bool{true}, engine.syncs)

		require.NoError(t, r.Update(context.Background(), builders.MinimalDeck()))
		clock.Advance(5 * time.Second)

		assert.Equal(t, []bool{true, false, false, false}, engine.syncs)
	})

	t.Run("theme and transition", func(t *testing.T) {
		engine := &fakeEngine{}
		r, _ := newTestRenderer(engine, nil, nil, Options{})
		require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))

		theme := entities.ColorTheme{Primary: "#112233"}
		require.NoError(t, r.SetTheme(context.Background(), theme))
		assert.Equal(t, "#112233", r.Deck().Theme.Primary)
		assert.Equal(t, entities.DefaultTextColor, r.Deck().Theme.Text)
		assert.Contains(t, engine.patched[len(engine.patched)-1], "#112233")

		require.NoError(t, r.SetTransition(context.Background(), "zoom"))
		assert.Equal(t, "zoom", engine.inits[len(engine.inits)-1].Transition)

		assert.Error(t, r.SetTransition(context.Background(), "spin"))
	})

	t.Run("not mounted", func(t *testing.T) {
		r, _ := newTestRenderer(&fakeEngine{}, nil, nil, Options{})
		assert.ErrorIs(t, r.Update(context.Background(), builders.MinimalDeck()), ErrNotMounted)
		assert.ErrorIs(t, r.SetTransition(context.Background(), "fade"), ErrNotMounted)
	})

	t.Run("nil deck", func(t *testing.T) {
		engine := &fakeEngine{}
		r, _ := newTestRenderer(engine, nil, nil, Options{})
		assert.ErrorIs(t, r.Mount(context.Background(), nil), ErrNoDeck)
		assert.Equal(t, StateUninitialized, r.State())

		require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))
		assert.ErrorIs(t, r.Update(context.Background(), nil), ErrNoDeck)
		assert.NotNil(t, r.Deck())
	})
}

func TestRenderer_Unmount(t *testing.T) {
	engine := &fakeEngine{notReady: 1}
	r, clock := newTestRenderer(engine, nil, nil, Options{})

	require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))
	require.NotEmpty(t, clock.Pending())
	session := r.Session()

	r.Unmount()

	assert.Equal(t, StateDestroyed, r.State())
	assert.Empty(t, clock.Pending())
	assert.Equal(t, 1, engine.count("destroy"))
	assert.True(t, session.Closed())
	assert.Error(t, session.Context().Err())

	clock.Advance(time.Minute)
	assert.Zero(t, engine.count("init"))

	r.Unmount()
	assert.Equal(t, 1, engine.count("destroy"))
	assert.ErrorIs(t, r.Update(context.Background(), builders.MinimalDeck()), ErrDestroyed)
	assert.ErrorIs(t, r.Mount(context.Background(), builders.MinimalDeck()), ErrDestroyed)
}

func TestRenderer_Assets(t *testing.T) {
	t.Run("each asset once per session", func(t *testing.T) {
		loader := &MockAssetLoader{}
		loader.On("Load", mock.Anything, "https://cdn/a.js").Return(nil).Once()
		loader.On("Load", mock.Anything, "https://cdn/b.css").Return(nil).Once()

		r, _ := newTestRenderer(&fakeEngine{}, loader, nil, Options{
			Assets: []string{"https://cdn/a.js", "https://cdn/b.css", "https://cdn/a.js"},
		})
		require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))
		require.NoError(t, r.Update(context.Background(), builders.MinimalDeck()))

		loader.AssertExpectations(t)
		assert.True(t, r.Session().IsLoaded("https://cdn/b.css"))
	})

	t.Run("load failures are logged", func(t *testing.T) {
		loader := &MockAssetLoader{}
		loader.On("Load", mock.Anything, mock.Anything).Return(errors.New("offline"))
		logger := &recordingLogger{}

		r, _ := newTestRenderer(&fakeEngine{}, loader, logger, Options{Assets: []string{"https://cdn/a.js"}})
		require.NoError(t, r.Mount(context.Background(), builders.MinimalDeck()))

		assert.Equal(t, StateReady, r.State())
		assert.Len(t, logger.warns, 1)
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "reinitializing", StateReinitializing.String())
	assert.Equal(t, "state(42)", State(42).String())
}
