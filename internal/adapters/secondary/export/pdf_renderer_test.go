package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/test/builders"
)

func fixedPDFRenderer() *PDFRenderer {
	r := NewPDFRenderer()
	r.now = func() time.Time { return time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC) }
	return r
}

func TestPDFRenderer_OnePagePerSlide(t *testing.T) {
	deck := richDeck(t)

	var buf bytes.Buffer
	result, err := fixedPDFRenderer().Render(context.Background(), deck, &buf, &ExportOptions{Format: FormatPDF})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.Equal(t, 4, result.PageCount)
	assert.Contains(t, out, "%%EOF")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "slide 4")
}

func TestPDFRenderer_EveryBlockKind(t *testing.T) {
	deck := slideWith(
		entities.ContentBlock{Kind: entities.BlockFeaturePanel, Text: "Point clé"},
		entities.ContentBlock{Kind: entities.BlockTimelineItem, Number: "1", Title: "Début", Text: "lancement"},
		entities.ContentBlock{Kind: entities.BlockGrid, GridItems: []entities.GridItem{{Title: "A", Text: "a"}, {Text: "b"}}},
		entities.ContentBlock{Kind: entities.BlockList, Ordered: true, Items: []string{"un", "deux"}},
		entities.ContentBlock{Kind: entities.BlockTable, HasHeader: true, Rows: [][]string{{"A", "B"}, {"1"}}},
		entities.ContentBlock{Kind: entities.BlockQuote, Text: "Citation"},
		entities.ContentBlock{Kind: entities.BlockCode, Text: "a := 1"},
		entities.ContentBlock{Kind: entities.BlockDiagram, Text: "A vers B"},
		entities.ContentBlock{Kind: entities.BlockCanvas, Caption: entities.CanvasPlaceholderCaption},
	)

	var buf bytes.Buffer
	result, err := fixedPDFRenderer().Render(context.Background(), deck, &buf, &ExportOptions{Format: FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, 1, result.PageCount, "overflowing content is clipped, not paginated")
}

func TestPDFRenderer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := NewPDFRenderer().Render(ctx, builders.MinimalDeck(), &buf, &ExportOptions{Format: FormatPDF})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestPDFRenderer_Metadata(t *testing.T) {
	r := NewPDFRenderer()
	assert.True(t, r.Supports(FormatPDF))
	assert.False(t, r.Supports(FormatHTML))
	assert.Equal(t, "application/pdf", r.GetMimeType())
	assert.Equal(t, DefaultPDFFilename, r.DefaultFilename())
}
