package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

var (
	// ErrNoDeck is returned when an edit arrives before any slides were loaded
	ErrNoDeck = errors.New("no deck loaded")
	// ErrInvalidInput wraps every rejected outline, theme or transition
	ErrInvalidInput = errors.New("invalid input")
)

// Workspace holds the inputs of the presentation being edited and the deck
// built from them. Every edit rebuilds the deck and pushes it to the preview.
type Workspace struct {
	builder ports.DeckBuilder
	preview ports.PreviewRenderer
	logger  ports.Logger

	mu      sync.Mutex
	input   ports.DeckInput
	deck    *entities.SlideDocument
	mounted bool
}

// NewWorkspace creates a workspace. preview may be nil when nothing is shown live.
func NewWorkspace(builder ports.DeckBuilder, preview ports.PreviewRenderer, logger ports.Logger) *Workspace {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Workspace{
		builder: builder,
		preview: preview,
		logger:  logger,
		input:   ports.DeckInput{Theme: entities.DefaultColorTheme()},
	}
}

// Load replaces every input at once
func (w *Workspace) Load(ctx context.Context, input ports.DeckInput) (*entities.SlideDocument, error) {
	if err := input.Outline.Validate(); err != nil {
		return nil, fmt.Errorf("%w: outline: %v", ErrInvalidInput, err)
	}
	input.Theme = input.Theme.WithDefaults()
	if err := input.Theme.Validate(); err != nil {
		return nil, fmt.Errorf("%w: theme: %v", ErrInvalidInput, err)
	}
	if input.Transition != "" && !entities.IsTransition(input.Transition) {
		return nil, fmt.Errorf("%w: unknown transition %q", ErrInvalidInput, input.Transition)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rebuildLocked(ctx, input)
}

// SetHTML replaces the generated slide markup
func (w *Workspace) SetHTML(ctx context.Context, html string) (*entities.SlideDocument, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	input := w.input
	input.HTML = html
	return w.rebuildLocked(ctx, input)
}

// SetOutline restructures the deck after the outline was edited
func (w *Workspace) SetOutline(ctx context.Context, outline entities.Outline) (*entities.SlideDocument, error) {
	if err := outline.Validate(); err != nil {
		return nil, fmt.Errorf("%w: outline: %v", ErrInvalidInput, err)
	}
	return w.edit(ctx, func(in *ports.DeckInput) { in.Outline = outline.Clone() })
}

// SetTheme replaces the palette
func (w *Workspace) SetTheme(ctx context.Context, theme entities.ColorTheme) (*entities.SlideDocument, error) {
	if err := theme.Validate(); err != nil {
		return nil, fmt.Errorf("%w: theme: %v", ErrInvalidInput, err)
	}
	return w.edit(ctx, func(in *ports.DeckInput) { in.Theme = theme })
}

// SetTransition changes the slide-show transition
func (w *Workspace) SetTransition(ctx context.Context, transition string) (*entities.SlideDocument, error) {
	if !entities.IsTransition(transition) {
		return nil, fmt.Errorf("%w: unknown transition %q", ErrInvalidInput, transition)
	}
	return w.edit(ctx, func(in *ports.DeckInput) { in.Transition = transition })
}

func (w *Workspace) edit(ctx context.Context, apply func(*ports.DeckInput)) (*entities.SlideDocument, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.deck == nil {
		return nil, ErrNoDeck
	}
	input := w.input
	apply(&input)
	return w.rebuildLocked(ctx, input)
}

func (w *Workspace) rebuildLocked(ctx context.Context, input ports.DeckInput) (*entities.SlideDocument, error) {
	deck, err := w.builder.Build(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("building deck: %w", err)
	}
	w.input = input
	w.deck = deck
	w.logger.Debug("Workspace deck rebuilt: %d slides, transition %q", deck.SlideCount(), input.Transition)

	if w.preview == nil {
		return deck, nil
	}
	if !w.mounted {
		// the preview session outlives the request that created it
		if err := w.preview.Mount(context.WithoutCancel(ctx), deck); err != nil {
			return deck, fmt.Errorf("mounting preview: %w", err)
		}
		w.mounted = true
		return deck, nil
	}
	if err := w.preview.Update(ctx, deck); err != nil {
		return deck, fmt.Errorf("updating preview: %w", err)
	}
	return deck, nil
}

// Deck returns the current deck, or nil before the first load
func (w *Workspace) Deck() *entities.SlideDocument {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deck
}

// Input returns a copy of the current inputs
func (w *Workspace) Input() ports.DeckInput {
	w.mu.Lock()
	defer w.mu.Unlock()
	in := w.input
	in.Outline = in.Outline.Clone()
	return in
}

// Close tears the preview down
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.preview != nil && w.mounted {
		w.preview.Unmount()
		w.mounted = false
	}
}
