package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/adapters/secondary/pptx"
	"github.com/sydologie/diapoai/internal/domain/entities"
)

func renderPPTX(t *testing.T, deck *entities.SlideDocument) (map[string]string, *ExportResult) {
	t.Helper()
	var buf bytes.Buffer
	result, err := NewPPTXRenderer().Render(context.Background(), deck, &buf, &ExportOptions{Format: FormatPPTX})
	require.NoError(t, err)

	parts := make(map[string]string)
	for name, data := range readZip(t, buf.Bytes()) {
		parts[name] = string(data)
	}
	return parts, result
}

func TestPPTXRenderer_Deck(t *testing.T) {
	deck := richDeck(t)
	parts, result := renderPPTX(t, deck)

	assert.Equal(t, 4, result.PageCount)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "slide 4")

	for i := 1; i <= 4; i++ {
		slide := parts[fmt.Sprintf("ppt/slides/slide%d.xml", i)]
		require.NotEmpty(t, slide, i)
		assert.Contains(t, slide, `type="slidenum"`, "every slide carries its number")
	}

	assert.Contains(t, parts["ppt/slides/slide1.xml"], `sz="4400"`)
	assert.Contains(t, parts["ppt/slides/slide2.xml"], `sz="4000"`)
	assert.Contains(t, parts["ppt/slides/slide2.xml"], "Partie 1")
	assert.Contains(t, parts["ppt/theme/theme1.xml"], entities.HexDigits(entities.DefaultColorTheme().Primary))
}

func TestPPTXRenderer_Title(t *testing.T) {
	deck := richDeck(t)
	parts, _ := renderPPTX(t, deck)
	assert.Contains(t, parts["docProps/core.xml"], deck.Slides[0].Title)
}

func TestPPTXRenderer_Table(t *testing.T) {
	parts, _ := renderPPTX(t, slideWith(entities.ContentBlock{
		Kind:      entities.BlockTable,
		Rows:      [][]string{{"A", "B"}, {"1", "2"}},
		HasHeader: true,
	}))

	slide := parts["ppt/slides/slide1.xml"]
	assert.Equal(t, 1, strings.Count(slide, "<a:tbl>"))
	assert.Equal(t, 2, strings.Count(slide, "<a:gridCol "))
	assert.Equal(t, 2, strings.Count(slide, "<a:tr "))
	assert.Contains(t, slide, `firstRow="1"`)
}

func TestPPTXRenderer_CanvasIsNeverAnImage(t *testing.T) {
	parts, result := renderPPTX(t, slideWith(entities.ContentBlock{
		Kind:    entities.BlockCanvas,
		Caption: entities.CanvasPlaceholderCaption,
	}))

	for name := range parts {
		assert.False(t, strings.HasPrefix(name, "ppt/media/"), name)
	}
	slide := parts["ppt/slides/slide1.xml"]
	assert.Contains(t, slide, entities.CanvasPlaceholderCaption)
	assert.Contains(t, slide, `<a:prstDash val="dash"/>`)
	assert.NotContains(t, slide, "<p:pic>")
	assert.Len(t, result.Warnings, 1)
}

func TestPPTXRenderer_SVG(t *testing.T) {
	markup := `<svg width="10" height="10"><rect width="10" height="10"></rect></svg>`
	parts, _ := renderPPTX(t, slideWith(entities.ContentBlock{
		Kind:    entities.BlockSVG,
		Markup:  markup,
		Caption: "Carré",
	}))

	svg, ok := parts["ppt/media/image2.svg"]
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`))

	slide := parts["ppt/slides/slide1.xml"]
	assert.Contains(t, slide, "data:image/svg+xml;base64,"+base64.StdEncoding.EncodeToString([]byte(svg)))
	assert.Contains(t, slide, "Carré")
}

func TestPPTXRenderer_Blocks(t *testing.T) {
	tests := []struct {
		name  string
		block entities.ContentBlock
		want  []string
	}{
		{
			name:  "bullet list",
			block: entities.ContentBlock{Kind: entities.BlockList, Items: []string{"un", "deux"}},
			want:  []string{`<a:buChar char="•"/>`, "un", "deux"},
		},
		{
			name:  "numbered list",
			block: entities.ContentBlock{Kind: entities.BlockList, Ordered: true, Items: []string{"un"}},
			want:  []string{`<a:buAutoNum type="arabicPeriod"/>`},
		},
		{
			name:  "code",
			block: entities.ContentBlock{Kind: entities.BlockCode, Text: "a := 1\nb := 2"},
			want:  []string{`typeface="Courier New"`, "a := 1", "b := 2", "F2F2F2"},
		},
		{
			name:  "quote",
			block: entities.ContentBlock{Kind: entities.BlockQuote, Text: "Citation"},
			want:  []string{`i="1"`, "Citation"},
		},
		{
			name:  "timeline",
			block: entities.ContentBlock{Kind: entities.BlockTimelineItem, Number: "2024", Title: "Début", Text: "lancement"},
			want:  []string{"2024", "Début", "lancement"},
		},
		{
			name: "grid",
			block: entities.ContentBlock{Kind: entities.BlockGrid, GridItems: []entities.GridItem{
				{Title: "A", Text: "a"}, {Title: "B", Text: "b"}, {Title: "C", Text: "c"}, {Title: "D", Text: "d"},
			}},
			want: []string{">A<", ">D<"},
		},
		{
			name:  "text diagram",
			block: entities.ContentBlock{Kind: entities.BlockDiagram, Text: "A vers B"},
			want:  []string{"A vers B", `<a:prstDash val="dash"/>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, _ := renderPPTX(t, slideWith(tt.block))
			slide := parts["ppt/slides/slide1.xml"]
			for _, want := range tt.want {
				assert.Contains(t, slide, want)
			}
		})
	}
}

func TestPPTXRenderer_LongSlideStaysAboveFooter(t *testing.T) {
	blocks := make([]entities.ContentBlock, 0, 12)
	for i := 0; i < 12; i++ {
		blocks = append(blocks, entities.ContentBlock{
			Kind: entities.BlockParagraph,
			Text: strings.Repeat(fmt.Sprintf("phrase %d ", i), 20),
		})
	}
	blocks = append(blocks, entities.ContentBlock{Kind: entities.BlockSVG, Markup: `<svg width="10" height="10"></svg>`})

	parts, result := renderPPTX(t, slideWith(blocks...))
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "past the footer left out")

	slide := parts["ppt/slides/slide1.xml"]
	offsets := regexp.MustCompile(`<a:off x="\d+" y="(\d+)"/><a:ext cx="\d+" cy="(\d+)"/>`).FindAllStringSubmatch(slide, -1)
	require.NotEmpty(t, offsets)

	bottom := pptx.Inches(contentBottom)
	for _, m := range offsets {
		y, err := strconv.ParseInt(m[1], 10, 64)
		require.NoError(t, err)
		h, err := strconv.ParseInt(m[2], 10, 64)
		require.NoError(t, err)
		if y >= pptx.Inches(footerTop) {
			continue
		}
		assert.LessOrEqual(t, y+h, bottom+1, "shape at y=%d crosses the footer", y)
	}
	assert.NotContains(t, slide, "phrase 11")
}

func TestPPTXRenderer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := NewPPTXRenderer().Render(ctx, richDeck(t), &buf, &ExportOptions{Format: FormatPPTX})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestPPTXRenderer_Metadata(t *testing.T) {
	r := NewPPTXRenderer()
	assert.True(t, r.Supports(FormatPPTX))
	assert.False(t, r.Supports(FormatPDF))
	assert.Equal(t, pptx.MimeType, r.GetMimeType())
	assert.Equal(t, "presentation.pptx", r.DefaultFilename())
}

func TestSVGDocument(t *testing.T) {
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg" width="1"></svg>`, svgDocument(`<svg width="1"></svg>`))

	withNS := `<svg xmlns="http://www.w3.org/2000/svg"><g/></svg>`
	assert.Equal(t, withNS, svgDocument("  "+withNS+"\n"))
}
