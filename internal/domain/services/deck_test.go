package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

type MockSanitizer struct {
	mock.Mock
}

func (m *MockSanitizer) Sanitize(fragment string) string {
	args := m.Called(fragment)
	return args.String(0)
}

type MockMarkdown struct {
	mock.Mock
}

func (m *MockMarkdown) ToHTML(source []byte) (string, error) {
	args := m.Called(source)
	return args.String(0), args.Error(1)
}

func TestDeckService_EndToEnd(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		svc := NewDeckService(parser, nil)

		deck, err := svc.Build(context.Background(), ports.DeckInput{
			HTML:       `<h3>Contexte</h3><p>Bonjour</p>`,
			Outline:    entities.Outline{{Title: "Intro", Subsections: []string{"Contexte"}}},
			Transition: "fade",
		})
		require.NoError(t, err)

		require.Equal(t, 3, deck.SlideCount())
		assert.Equal(t, entities.RoleTitle, deck.Slides[0].Role)
		assert.Equal(t, entities.RoleSection, deck.Slides[1].Role)
		assert.Equal(t, entities.RoleContent, deck.Slides[2].Role)

		assert.Equal(t, DefaultDeckTitle, deck.Slides[0].Title)
		assert.Equal(t, "Intro", deck.Slides[1].Title)
		assert.Equal(t, "Contexte", deck.Slides[2].Title)

		for i, s := range deck.Slides {
			assert.Equal(t, i, s.Index)
			assert.NotEmpty(t, s.ID)
			assert.NoError(t, s.Validate())
		}

		require.Len(t, deck.Slides[2].Blocks, 2)
		assert.Equal(t, entities.BlockParagraph, deck.Slides[2].Blocks[1].Kind)
		assert.Equal(t, "Bonjour", deck.Slides[2].Blocks[1].Text)

		assert.Equal(t, entities.DefaultColorTheme(), deck.Theme)
		assert.Equal(t, "fade", deck.Transition)
		assert.Contains(t, deck.HTML, ClassOutlineStructured)
		assert.Contains(t, deck.HTML, ClassHeadingGroup)
	})
}

func TestDeckService_WithoutOutline(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		deck, err := NewDeckService(parser, nil).Build(context.Background(), ports.DeckInput{
			HTML: `<h2>A</h2><p>a</p><h2>B</h2><p>b</p>`,
		})
		require.NoError(t, err)

		require.Equal(t, 2, deck.SlideCount())
		assert.Equal(t, "slide-1", deck.Slides[0].ID)
		assert.Equal(t, "B", deck.Slides[1].Title)
	})
}

func TestDeckService_StrayLessThanKeepsLaterSlides(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		deck, err := NewDeckService(parser, nil).Build(context.Background(), ports.DeckInput{
			HTML: `<section><h2>Un</h2><p>si a < b alors</p></section>` +
				`<section><h2>Deux</h2></section><section><h2>Trois</h2></section>`,
		})
		require.NoError(t, err)

		require.Equal(t, 3, deck.SlideCount())
		assert.Equal(t, "Trois", deck.Slides[2].Title)
		assert.Equal(t, "si a < b alors", deck.Slides[0].Blocks[1].Text)
	})
}

func TestDeckService_EmptyInput(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		deck, err := NewDeckService(parser, nil).Build(context.Background(), ports.DeckInput{HTML: "  "})
		require.NoError(t, err)
		assert.True(t, deck.IsEmpty())
	})
}

func TestDeckService_Cancelled(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewDeckService(parser, nil).Build(ctx, ports.DeckInput{HTML: "<p>x</p>"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDeckService_Collaborators(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		t.Run("markdown only for tagless input", func(t *testing.T) {
			md := &MockMarkdown{}
			md.On("ToHTML", []byte("# Titre\n\ntexte")).Return("<h1>Titre</h1><p>texte</p>", nil).Once()

			san := &MockSanitizer{}
			san.On("Sanitize", "<h1>Titre</h1><p>texte</p>").Return("<h1>Titre</h1><p>texte</p>").Once()

			svc := NewDeckService(parser, nil, WithMarkdown(md), WithSanitizer(san))
			deck, err := svc.Build(context.Background(), ports.DeckInput{HTML: "# Titre\n\ntexte"})
			require.NoError(t, err)

			require.Equal(t, 1, deck.SlideCount())
			assert.Equal(t, "Titre", deck.Slides[0].Title)
			md.AssertExpectations(t)
			san.AssertExpectations(t)
		})

		t.Run("html input skips markdown", func(t *testing.T) {
			md := &MockMarkdown{}
			svc := NewDeckService(parser, nil, WithMarkdown(md))

			_, err := svc.Build(context.Background(), ports.DeckInput{HTML: "<p>x</p>"})
			require.NoError(t, err)
			md.AssertNotCalled(t, "ToHTML", mock.Anything)
		})

		t.Run("markdown failure keeps raw text", func(t *testing.T) {
			md := &MockMarkdown{}
			md.On("ToHTML", mock.Anything).Return("", errors.New("boom"))
			logger := &recordingLogger{}

			svc := NewDeckService(parser, logger, WithMarkdown(md))
			deck, err := svc.Build(context.Background(), ports.DeckInput{HTML: "juste du texte"})
			require.NoError(t, err)

			require.Equal(t, 1, deck.SlideCount())
			assert.True(t, strings.Contains(deck.HTML, "juste du texte"))
			assert.Len(t, logger.warns, 1)
		})

		t.Run("sanitizer output is what gets parsed", func(t *testing.T) {
			san := &MockSanitizer{}
			san.On("Sanitize", `<h2>A</h2><script>x()</script>`).Return(`<h2>A</h2>`)

			deck, err := NewDeckService(parser, nil, WithSanitizer(san)).Build(context.Background(),
				ports.DeckInput{HTML: `<h2>A</h2><script>x()</script>`})
			require.NoError(t, err)
			assert.NotContains(t, deck.HTML, "script")
		})
	})
}

func TestSlidesFromHTML(t *testing.T) {
	forEachBackend(t, func(t *testing.T, parser ports.DOMParser) {
		deck, err := NewDeckService(parser, nil).Build(context.Background(), ports.DeckInput{
			HTML:    `<h3>Contexte</h3><p>Bonjour</p>`,
			Outline: entities.Outline{{Title: "Intro", Subsections: []string{"Contexte"}}},
		})
		require.NoError(t, err)

		// read back with every backend
		forEachBackend(t, func(t *testing.T, other ports.DOMParser) {
			slides := SlidesFromHTML(other, deck.HTML)
			require.Len(t, slides, deck.SlideCount())
			for i := range slides {
				assert.Equal(t, deck.Slides[i].ID, slides[i].ID)
				assert.Equal(t, deck.Slides[i].Role, slides[i].Role)
				assert.Equal(t, kinds(deck.Slides[i].Blocks), kinds(slides[i].Blocks))
			}
		})
	})
}
