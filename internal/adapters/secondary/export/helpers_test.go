package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/adapters/secondary/dom"
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
	"github.com/sydologie/diapoai/internal/domain/services"
	"github.com/sydologie/diapoai/internal/test/builders"
)

const richFragment = `
<h3>Contexte</h3>
<p>Une introduction.</p>
<div class="feature-panel"><p>Point clé</p></div>
<ul><li>un</li><li>deux</li></ul>
<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>
<blockquote>Citation</blockquote>
<pre><code>a := 1
b := 2</code></pre>
<h3>Graphiques</h3>
<figure><svg width="10" height="10"><rect width="10" height="10"></rect></svg><figcaption>Carré</figcaption></figure>
<div class="chart-container"><canvas id="ventes"></canvas></div>
`

// richDeck builds a title, a section and two content slides through the deck service
func richDeck(t *testing.T) *entities.SlideDocument {
	t.Helper()
	deck, err := services.NewDeckService(dom.MustParser("xml"), nil).Build(context.Background(), ports.DeckInput{
		HTML:       richFragment,
		Outline:    entities.Outline{{Title: "Partie 1", Subsections: []string{"Contexte", "Graphiques"}}},
		Transition: "fade",
	})
	require.NoError(t, err)
	require.Equal(t, 4, deck.SlideCount())
	return deck
}

func slideWith(blocks ...entities.ContentBlock) *entities.SlideDocument {
	return builders.NewDeckBuilder().
		WithSlide(builders.NewSlideBuilder().WithTitle("Titre").WithBlocks(blocks...).Build()).
		Build()
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		files[f.Name] = content
	}
	return files
}
