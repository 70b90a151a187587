package builders

import (
	"fmt"
	"html"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

// DeckBuilder helps build SlideDocument entities for testing
type DeckBuilder struct {
	deck *entities.SlideDocument
}

// NewDeckBuilder creates a new deck builder with the default theme
func NewDeckBuilder() *DeckBuilder {
	return &DeckBuilder{
		deck: &entities.SlideDocument{
			Theme:      entities.DefaultColorTheme(),
			Transition: "slide",
		},
	}
}

// WithTheme sets the deck palette
func (b *DeckBuilder) WithTheme(theme entities.ColorTheme) *DeckBuilder {
	b.deck.Theme = theme
	return b
}

// WithTransition sets the slide transition
func (b *DeckBuilder) WithTransition(transition string) *DeckBuilder {
	b.deck.Transition = transition
	return b
}

// WithSlide appends a slide; its index and id follow the current count
func (b *DeckBuilder) WithSlide(slide entities.Slide) *DeckBuilder {
	slide.Index = len(b.deck.Slides)
	if slide.ID == "" {
		slide.ID = fmt.Sprintf("slide-%d", slide.Index+1)
	}
	b.deck.Slides = append(b.deck.Slides, slide)
	return b
}

// WithSlideCount appends count content slides titled "Slide n"
func (b *DeckBuilder) WithSlideCount(count int) *DeckBuilder {
	for i := 0; i < count; i++ {
		n := len(b.deck.Slides) + 1
		b.WithSlide(NewSlideBuilder().WithTitle(fmt.Sprintf("Slide %d", n)).Build())
	}
	return b
}

// Build creates the SlideDocument; HTML is the concatenation of the slides
func (b *DeckBuilder) Build() *entities.SlideDocument {
	out := *b.deck
	out.Slides = append([]entities.Slide{}, b.deck.Slides...)
	out.HTML = ""
	for i := range out.Slides {
		s := &out.Slides[i]
		if s.HTML == "" {
			s.HTML = slideMarkup(*s)
		}
		out.HTML += s.HTML
	}
	return &out
}

// SlideBuilder helps build Slide entities for testing
type SlideBuilder struct {
	slide entities.Slide
}

// NewSlideBuilder creates a content slide with one paragraph
func NewSlideBuilder() *SlideBuilder {
	return &SlideBuilder{
		slide: entities.Slide{
			Role:  entities.RoleContent,
			Title: "Test Slide",
			Blocks: []entities.ContentBlock{
				{Kind: entities.BlockHeading, Level: 2, Text: "Test Slide"},
				{Kind: entities.BlockParagraph, Text: "Test content"},
			},
		},
	}
}

// WithTitle sets the slide title and its heading block
func (b *SlideBuilder) WithTitle(title string) *SlideBuilder {
	b.slide.Title = title
	if len(b.slide.Blocks) > 0 && b.slide.Blocks[0].Kind == entities.BlockHeading {
		b.slide.Blocks[0].Text = title
	}
	return b
}

// WithRole sets the slide role
func (b *SlideBuilder) WithRole(role entities.SlideRole) *SlideBuilder {
	b.slide.Role = role
	return b
}

// WithID sets the slide id
func (b *SlideBuilder) WithID(id string) *SlideBuilder {
	b.slide.ID = id
	return b
}

// WithHTML sets the slide markup
func (b *SlideBuilder) WithHTML(markup string) *SlideBuilder {
	b.slide.HTML = markup
	return b
}

// WithBlocks replaces the content blocks after the heading
func (b *SlideBuilder) WithBlocks(blocks ...entities.ContentBlock) *SlideBuilder {
	heading := b.slide.Blocks[:0:0]
	if len(b.slide.Blocks) > 0 && b.slide.Blocks[0].Kind == entities.BlockHeading {
		heading = append(heading, b.slide.Blocks[0])
	}
	b.slide.Blocks = append(heading, blocks...)
	return b
}

// Build creates the final Slide entity
func (b *SlideBuilder) Build() entities.Slide {
	s := b.slide
	s.Blocks = append([]entities.ContentBlock{}, b.slide.Blocks...)
	return s
}

func slideMarkup(s entities.Slide) string {
	class := "slide"
	if s.Role == entities.RoleTitle || s.Role == entities.RoleSection {
		class += " " + string(s.Role)
	}
	return fmt.Sprintf(`<section class="%s" id="%s" data-role="%s"><h2>%s</h2></section>`,
		class, s.ID, s.Role, html.EscapeString(s.Title))
}

// MinimalDeck creates a one-slide deck
func MinimalDeck() *entities.SlideDocument {
	return NewDeckBuilder().WithSlideCount(1).Build()
}

// LargeDeck creates a deck with many slides for concurrency tests
func LargeDeck() *entities.SlideDocument {
	return NewDeckBuilder().WithSlideCount(50).Build()
}
