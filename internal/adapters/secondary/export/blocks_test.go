package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/test/builders"
)

func TestLayoutOf_ProcessorOrder(t *testing.T) {
	s := builders.NewSlideBuilder().WithTitle("T").WithBlocks(
		entities.ContentBlock{Kind: entities.BlockCanvas},
		entities.ContentBlock{Kind: entities.BlockCode},
		entities.ContentBlock{Kind: entities.BlockList, Ordered: true},
		entities.ContentBlock{Kind: entities.BlockParagraph, Text: "a"},
		entities.ContentBlock{Kind: entities.BlockList},
		entities.ContentBlock{Kind: entities.BlockHeading, Level: 3, Text: "S"},
		entities.ContentBlock{Kind: entities.BlockParagraph, Text: "b"},
		entities.ContentBlock{Kind: entities.BlockFeaturePanel},
	).Build()

	l := layoutOf(s)
	require.NotNil(t, l.heading)
	assert.Equal(t, "T", l.heading.Text)

	var got []string
	for _, b := range l.body {
		label := string(b.Kind)
		if b.Kind == entities.BlockList && b.Ordered {
			label = "ol"
		}
		if b.Text != "" {
			label += ":" + b.Text
		}
		got = append(got, label)
	}
	assert.Equal(t, []string{
		"feature-panel",
		"paragraph:a",
		"heading:S",
		"paragraph:b",
		"list",
		"ol",
		"code",
		"canvas",
	}, got)

	assert.Len(t, s.Blocks, 9, "the slide itself is not reordered")
	assert.Equal(t, entities.BlockCanvas, s.Blocks[1].Kind)
}

func TestLayoutOf_NoHeading(t *testing.T) {
	s := entities.Slide{Title: "Fallback", Blocks: []entities.ContentBlock{{Kind: entities.BlockParagraph, Text: "x"}}}
	l := layoutOf(s)
	assert.Nil(t, l.heading)
	assert.Equal(t, "Fallback", l.title(s))
	assert.Equal(t, "x", l.subtitle())
}

func TestDeckTitle(t *testing.T) {
	deck := builders.NewDeckBuilder().
		WithSlide(builders.NewSlideBuilder().WithRole(entities.RoleTitle).WithTitle("Mon cours").Build()).
		Build()

	assert.Equal(t, "Forcé", deckTitle(deck, &ExportOptions{Title: "Forcé"}))
	assert.Equal(t, "Mon cours", deckTitle(deck, &ExportOptions{}))
	assert.Equal(t, "Mon cours", deckTitle(deck, nil))
	assert.Equal(t, "Présentation", deckTitle(builders.MinimalDeck(), nil))
}
