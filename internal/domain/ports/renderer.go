package ports

import (
	"context"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

// EngineConfig holds the slide-show engine options shared by the live
// preview and the static HTML export
type EngineConfig struct {
	Transition string `json:"transition"`
	Controls   bool   `json:"controls"`
	Progress   bool   `json:"progress"`
	Center     bool   `json:"center"`
	Hash       bool   `json:"hash"`
}

// EngineConfigFrom maps the preview settings to engine options
func EngineConfigFrom(p entities.PreviewConfig) EngineConfig {
	return EngineConfig{
		Transition: p.GetTransition(),
		Controls:   p.Controls,
		Progress:   p.Progress,
		Center:     p.Center,
		Hash:       p.Hash,
	}
}

// SlideEngine is one running instance of the in-browser slide-show engine
type SlideEngine interface {
	// Ready reports whether the engine can be constructed
	Ready() bool

	// Init builds a new engine instance over the slide markup
	Init(ctx context.Context, html string, cfg EngineConfig) error

	// Patch replaces the slide markup of the running instance in place
	Patch(ctx context.Context, html string) error

	// Sync asks the engine to recompute its layout, optionally going back to the first slide
	Sync(ctx context.Context, resetToFirst bool) error

	// Destroy tears the current instance down
	Destroy(ctx context.Context) error
}

// AssetLoader fetches one external script or stylesheet
type AssetLoader interface {
	Load(ctx context.Context, url string) error
}

// PreviewRenderer keeps the live preview in step with the current deck
type PreviewRenderer interface {
	Mount(ctx context.Context, deck *entities.SlideDocument) error
	Update(ctx context.Context, deck *entities.SlideDocument) error
	Unmount()
}
