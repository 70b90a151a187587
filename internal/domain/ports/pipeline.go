package ports

import (
	"context"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

// HTMLSanitizer cleans untrusted generated HTML
type HTMLSanitizer interface {
	Sanitize(fragment string) string
}

// MarkdownConverter turns markdown-shaped answers into HTML
type MarkdownConverter interface {
	ToHTML(source []byte) (string, error)
}

// OutlineLoader reads an outline from a file
type OutlineLoader interface {
	Load(ctx context.Context, path string) (entities.Outline, error)
}

// DeckInput is what the AI service produced for one presentation
type DeckInput struct {
	HTML       string
	Outline    entities.Outline
	Theme      entities.ColorTheme
	Transition string
}

// DeckBuilder turns generated HTML into a slide document
type DeckBuilder interface {
	Build(ctx context.Context, input DeckInput) (*entities.SlideDocument, error)
}
