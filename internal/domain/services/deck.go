package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

var htmlTagPattern = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// DeckService runs the generated HTML through the slide pipeline:
// markdown conversion, notes extraction, sanitizing, outline structuring
// and normalization
type DeckService struct {
	parser     ports.DOMParser
	sanitizer  ports.HTMLSanitizer
	markdown   ports.MarkdownConverter
	structurer *OutlineStructurer
	normalizer *SlideNormalizer
	logger     ports.Logger
}

// DeckOption configures a DeckService
type DeckOption func(*DeckService)

// WithSanitizer cleans the input before parsing
func WithSanitizer(s ports.HTMLSanitizer) DeckOption {
	return func(d *DeckService) { d.sanitizer = s }
}

// WithMarkdown converts inputs that contain no HTML tags
func WithMarkdown(m ports.MarkdownConverter) DeckOption {
	return func(d *DeckService) { d.markdown = m }
}

// WithMaxSlideNodes sets the heading-walk bound
func WithMaxSlideNodes(n int) DeckOption {
	return func(d *DeckService) { d.normalizer = NewSlideNormalizer(n, d.logger) }
}

// NewDeckService creates a deck pipeline over parser
func NewDeckService(parser ports.DOMParser, logger ports.Logger, opts ...DeckOption) *DeckService {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	d := &DeckService{
		parser:     parser,
		structurer: NewOutlineStructurer(parser, logger),
		normalizer: NewSlideNormalizer(DefaultMaxSlideNodes, logger),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Build produces a slide document. Structural problems in the input are
// resolved with fallback content; only cancellation is returned as an error.
func (d *DeckService) Build(ctx context.Context, input ports.DeckInput) (*entities.SlideDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := input.HTML
	if d.markdown != nil && strings.TrimSpace(raw) != "" && !htmlTagPattern.MatchString(raw) {
		converted, err := d.markdown.ToHTML([]byte(raw))
		if err != nil {
			d.logger.Warn("markdown conversion failed, using raw text: %v", err)
		} else {
			raw = converted
		}
	}

	raw = NotesCommentsToAsides(raw)

	if d.sanitizer != nil {
		raw = d.sanitizer.Sanitize(raw)
	}

	if len(input.Outline) > 0 {
		raw = d.structurer.Structure(raw, input.Outline)
	}

	doc := d.parser.Parse(raw)
	result := d.normalizer.Normalize(doc)

	deck := &entities.SlideDocument{
		HTML:       doc.InnerHTML(doc.Root()),
		Slides:     slidesFromNodes(doc, result.Slides),
		Theme:      input.Theme.WithDefaults(),
		Transition: input.Transition,
	}

	d.logger.Info("built deck with %d slides (%s)", deck.SlideCount(), result.Mode)
	return deck, nil
}

// Normalizer returns the normalizer used by the pipeline
func (d *DeckService) Normalizer() *SlideNormalizer {
	return d.normalizer
}

// Structurer returns the outline structurer used by the pipeline
func (d *DeckService) Structurer() *OutlineStructurer {
	return d.structurer
}

// SlidesFromHTML re-reads normalized slide markup with parser. Exporters use
// it to walk the document independently of the preview.
func SlidesFromHTML(parser ports.DOMParser, fragment string) []entities.Slide {
	doc := parser.Parse(fragment)
	return slidesFromNodes(doc, outermost(doc.Root(), isSlideLike))
}

func slidesFromNodes(doc ports.Document, nodes []ports.Node) []entities.Slide {
	slides := make([]entities.Slide, 0, len(nodes))
	for i, n := range nodes {
		role := entities.SlideRole(n.GetAttribute("data-role"))
		if role == "" {
			role = slideRole(n)
		}
		slides = append(slides, entities.Slide{
			ID:     n.GetAttribute("id"),
			Index:  i,
			Role:   role,
			Title:  textOf(firstHeading(n)),
			HTML:   doc.OuterHTML(n),
			Blocks: ExtractBlocks(doc, n),
			Notes:  SpeakerNotes(n),
		})
	}
	return slides
}
