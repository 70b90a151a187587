package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sydologie/diapoai/internal/adapters/secondary/pptx"
	"github.com/sydologie/diapoai/internal/domain/entities"
)

// DefaultPPTXFilename is the download name of the slide deck file
const DefaultPPTXFilename = "presentation.pptx"

// Layout, in inches on a 13.333 x 7.5 slide
const (
	pageWidth     = 13.333
	pageMargin    = 0.6
	contentWidth  = pageWidth - 2*pageMargin
	contentBottom = 6.75
	footerTop     = 6.95
	bodyLine      = 0.36
	codeLine      = 0.3
	blockGap      = 0.15
	charsPerLine  = 95
)

const codeFont = "Courier New"

// PPTXRenderer writes a native .pptx deck from the content blocks of every slide
type PPTXRenderer struct{}

// NewPPTXRenderer creates a new PPTX renderer
func NewPPTXRenderer() *PPTXRenderer {
	return &PPTXRenderer{}
}

// Render exports the deck to a .pptx package
func (r *PPTXRenderer) Render(ctx context.Context, deck *entities.SlideDocument, w io.Writer, options *ExportOptions) (*ExportResult, error) {
	pal := NewPalette(deck.Theme)
	pres := pptx.New(deckTitle(deck, options), pptx.Palette{
		Dark:    entities.HexDigits(pal.Text),
		Light:   entities.HexDigits(pal.Background),
		Accent1: entities.HexDigits(pal.Primary),
		Accent2: entities.HexDigits(pal.Secondary),
	})

	var warnings []string
	for i, s := range deck.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sw := &slideWriter{slide: pres.AddSlide(), pal: pal}
		sw.write(s)
		if sw.canvases > 0 {
			warnings = append(warnings, fmt.Sprintf("slide %d: %d chart(s) replaced by a placeholder", i+1, sw.canvases))
		}
		if sw.dropped > 0 {
			warnings = append(warnings, fmt.Sprintf("slide %d: %d block(s) past the footer left out", i+1, sw.dropped))
		}
	}

	if err := pres.Write(w); err != nil {
		return nil, fmt.Errorf("writing pptx: %w", err)
	}

	return &ExportResult{
		Format:    string(FormatPPTX),
		PageCount: deck.SlideCount(),
		Warnings:  warnings,
	}, nil
}

// Supports returns true if this renderer supports the given format
func (r *PPTXRenderer) Supports(format ExportFormat) bool {
	return format == FormatPPTX
}

// GetMimeType returns the MIME type for PPTX exports
func (r *PPTXRenderer) GetMimeType() string {
	return pptx.MimeType
}

// DefaultFilename returns the download name
func (r *PPTXRenderer) DefaultFilename() string {
	return DefaultPPTXFilename
}

// blockProcessor lays one block out at cursor y and returns the next cursor
type blockProcessor func(w *slideWriter, b entities.ContentBlock, y float64) float64

var blockProcessors = map[entities.BlockKind]blockProcessor{
	entities.BlockFeaturePanel: (*slideWriter).featurePanel,
	entities.BlockTimelineItem: (*slideWriter).timelineItem,
	entities.BlockGrid:         (*slideWriter).grid,
	entities.BlockParagraph:    (*slideWriter).paragraph,
	entities.BlockHeading:      (*slideWriter).subHeading,
	entities.BlockList:         (*slideWriter).list,
	entities.BlockTable:        (*slideWriter).table,
	entities.BlockQuote:        (*slideWriter).quote,
	entities.BlockCode:         (*slideWriter).code,
	entities.BlockSVG:          (*slideWriter).svg,
	entities.BlockDiagram:      (*slideWriter).diagram,
	entities.BlockCanvas:       (*slideWriter).canvas,
}

type slideWriter struct {
	slide    *pptx.Slide
	pal      Palette
	canvases int
	dropped  int
}

func (w *slideWriter) hex(color string) string {
	return entities.HexDigits(color)
}

func frame(x, y, width, height float64) pptx.Rect {
	return pptx.Rect{X: pptx.Inches(x), Y: pptx.Inches(y), W: pptx.Inches(width), H: pptx.Inches(height)}
}

func (w *slideWriter) write(s entities.Slide) {
	w.slide.Background = w.hex(w.pal.Background)
	l := layoutOf(s)

	switch s.Role {
	case entities.RoleTitle:
		w.centered(l.title(s), 44, 2.2, 1.6, w.pal.Primary)
		if sub := l.subtitle(); sub != "" {
			w.centeredRun(pptx.Run{Text: sub, Size: 24, Color: w.hex(w.pal.Secondary)}, 3.9, 0.8)
		}
	case entities.RoleSection:
		w.centered(l.title(s), 40, 2.9, 1.4, w.pal.Primary)
	default:
		y := pageMargin
		if l.heading != nil {
			w.text(frame(pageMargin, y, contentWidth, 0.9), pptx.TextBox{
				Name:       "Title",
				Anchor:     pptx.AnchorMiddle,
				Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{{Text: l.heading.Text, Size: 32, Bold: true, Color: w.hex(w.pal.Primary)}}}},
			})
			y += 1.1
		}
		for i, b := range l.body {
			if bodyFull(y) {
				w.dropped = len(l.body) - i
				break
			}
			if process, ok := blockProcessors[b.Kind]; ok {
				y = process(w, b, y)
			}
		}
	}

	w.footer()
}

// bodyFull reports whether y leaves no room for a line above the footer
func bodyFull(y float64) bool {
	return y > contentBottom-bodyLine
}

// box is a body frame cut at the content bottom. Text boxes shrink their
// text to fit the cut height.
func (w *slideWriter) box(x, y, width, height float64) pptx.Rect {
	y = math.Min(y, contentBottom)
	return frame(x, y, width, math.Min(height, contentBottom-y))
}

func (w *slideWriter) text(r pptx.Rect, box pptx.TextBox) {
	w.slide.AddText(r, box)
}

func (w *slideWriter) centered(title string, size, y, height float64, color string) {
	w.centeredRun(pptx.Run{Text: title, Size: size, Bold: true, Color: w.hex(color)}, y, height)
}

func (w *slideWriter) centeredRun(run pptx.Run, y, height float64) {
	w.text(frame(pageMargin, y, contentWidth, height), pptx.TextBox{
		Anchor:     pptx.AnchorMiddle,
		Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{run}, Align: pptx.AlignCenter}},
	})
}

// footer draws the themed rule and the slide-number field
func (w *slideWriter) footer() {
	primary := w.hex(w.pal.Primary)
	w.slide.AddLine(frame(pageMargin, footerTop, contentWidth, 0), pptx.Line{Color: primary, Width: pptx.Points(2)})
	w.text(frame(pageWidth-pageMargin-1.0, footerTop+0.05, 1.0, 0.4), pptx.TextBox{
		Name:       "Slide Number",
		Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{{SlideNumber: true, Size: 12, Color: primary}}, Align: pptx.AlignRight}},
	})
}

// lines estimates the wrapped line count of text in a box of the given width
func lines(text string, width float64) int {
	perLine := int(charsPerLine * width / contentWidth)
	if perLine < 10 {
		perLine = 10
	}
	n := 0
	for _, l := range strings.Split(text, "\n") {
		n += int(math.Ceil(float64(max(utf8.RuneCountInString(l), 1)) / float64(perLine)))
	}
	return max(n, 1)
}

func (w *slideWriter) bodyRun(text string) pptx.Run {
	return pptx.Run{Text: text, Size: 18, Color: w.hex(w.pal.Text)}
}

func (w *slideWriter) paragraph(b entities.ContentBlock, y float64) float64 {
	h := float64(lines(b.Text, contentWidth))*bodyLine + 0.1
	w.text(w.box(pageMargin, y, contentWidth, h), pptx.TextBox{
		Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{w.bodyRun(b.Text)}}},
	})
	return y + h + blockGap
}

func (w *slideWriter) subHeading(b entities.ContentBlock, y float64) float64 {
	h := 0.55
	w.text(w.box(pageMargin, y, contentWidth, h), pptx.TextBox{
		Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{{Text: b.Text, Size: 22, Bold: true, Color: w.hex(w.pal.Primary)}}}},
	})
	return y + h + blockGap
}

func (w *slideWriter) list(b entities.ContentBlock, y float64) float64 {
	bullet := pptx.BulletDot
	if b.Ordered {
		bullet = pptx.BulletNumber
	}

	n := 0
	paragraphs := make([]pptx.Paragraph, 0, len(b.Items))
	for _, item := range b.Items {
		n += lines(item, contentWidth-0.4)
		paragraphs = append(paragraphs, pptx.Paragraph{Runs: []pptx.Run{w.bodyRun(item)}, Bullet: bullet, SpaceAfter: 4})
	}

	h := float64(n)*bodyLine + 0.1
	w.text(w.box(pageMargin, y, contentWidth, h), pptx.TextBox{Paragraphs: paragraphs})
	return y + h + blockGap
}

func (w *slideWriter) featurePanel(b entities.ContentBlock, y float64) float64 {
	h := float64(lines(b.Text, contentWidth-0.4))*bodyLine + 0.3
	w.text(w.box(pageMargin, y, contentWidth, h), pptx.TextBox{
		Fill:       w.hex(w.pal.PrimaryLighter),
		Border:     &pptx.Line{Color: w.hex(w.pal.Primary), Width: pptx.Points(1.5)},
		Anchor:     pptx.AnchorMiddle,
		Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{w.bodyRun(b.Text)}}},
	})
	return y + h + blockGap
}

func (w *slideWriter) timelineItem(b entities.ContentBlock, y float64) float64 {
	var head []pptx.Run
	if b.Number != "" {
		head = append(head, pptx.Run{Text: b.Number + "  ", Size: 18, Bold: true, Color: w.hex(w.pal.Secondary)})
	}
	if b.Title != "" {
		head = append(head, pptx.Run{Text: b.Title, Size: 18, Bold: true, Color: w.hex(w.pal.Primary)})
	}

	var paragraphs []pptx.Paragraph
	n := 0
	if len(head) > 0 {
		paragraphs = append(paragraphs, pptx.Paragraph{Runs: head})
		n++
	}
	if b.Text != "" {
		paragraphs = append(paragraphs, pptx.Paragraph{Runs: []pptx.Run{w.bodyRun(b.Text)}})
		n += lines(b.Text, contentWidth-0.3)
	}

	h := float64(n)*bodyLine + 0.2
	w.slide.AddRect(w.box(pageMargin, y, 0.08, h), w.hex(w.pal.Secondary), nil)
	w.text(w.box(pageMargin+0.2, y, contentWidth-0.2, h), pptx.TextBox{Paragraphs: paragraphs})
	return y + h + blockGap
}

func (w *slideWriter) grid(b entities.ContentBlock, y float64) float64 {
	cols := min(len(b.GridItems), 3)
	if cols == 0 {
		return y
	}
	gap := 0.2
	cellW := (contentWidth - gap*float64(cols-1)) / float64(cols)

	cellH := 0.0
	for _, item := range b.GridItems {
		n := lines(item.Text, cellW-0.2)
		if item.Title != "" {
			n++
		}
		cellH = math.Max(cellH, float64(n)*bodyLine+0.3)
	}

	for i, item := range b.GridItems {
		row, col := i/cols, i%cols
		top := y + float64(row)*(cellH+gap)
		if bodyFull(top) {
			break
		}
		var paragraphs []pptx.Paragraph
		if item.Title != "" {
			paragraphs = append(paragraphs, pptx.Paragraph{Runs: []pptx.Run{{Text: item.Title, Size: 18, Bold: true, Color: w.hex(w.pal.Primary)}}})
		}
		if item.Text != "" {
			paragraphs = append(paragraphs, pptx.Paragraph{Runs: []pptx.Run{{Text: item.Text, Size: 16, Color: w.hex(w.pal.Text)}}})
		}
		x := pageMargin + float64(col)*(cellW+gap)
		w.text(w.box(x, top, cellW, cellH), pptx.TextBox{
			Fill:       w.hex(w.pal.PrimaryLighter),
			Paragraphs: paragraphs,
		})
	}

	rows := (len(b.GridItems) + cols - 1) / cols
	return y + float64(rows)*(cellH+gap) - gap + blockGap
}

func (w *slideWriter) table(b entities.ContentBlock, y float64) float64 {
	h := float64(len(b.Rows)) * 0.45
	w.slide.AddTable(w.box(pageMargin, y, contentWidth, h), pptx.Table{
		Rows:       b.Rows,
		HasHeader:  b.HasHeader,
		FontSize:   14,
		TextColor:  w.hex(w.pal.Text),
		HeaderFill: w.hex(w.pal.Primary),
		HeaderText: w.hex(w.pal.Background),
		BandFill:   w.hex(w.pal.PrimaryLight),
	})
	return y + h + blockGap
}

func (w *slideWriter) quote(b entities.ContentBlock, y float64) float64 {
	h := float64(b.LineCount())*bodyLine + 0.3
	w.text(w.box(pageMargin, y, contentWidth, h), pptx.TextBox{
		Fill:   w.hex(w.pal.SecondaryLight),
		Anchor: pptx.AnchorMiddle,
		Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{
			{Text: b.Text, Size: 18, Italic: true, Color: w.hex(w.pal.Text)},
		}}},
	})
	return y + h + blockGap
}

func (w *slideWriter) code(b entities.ContentBlock, y float64) float64 {
	src := strings.Split(b.Text, "\n")
	paragraphs := make([]pptx.Paragraph, 0, len(src))
	for _, line := range src {
		paragraphs = append(paragraphs, pptx.Paragraph{Runs: []pptx.Run{{Text: line, Size: 14, Font: codeFont, Color: "333333"}}})
	}

	h := float64(b.LineCount())*codeLine + 0.3
	w.text(w.box(pageMargin, y, contentWidth, h), pptx.TextBox{
		Fill:       "F2F2F2",
		Paragraphs: paragraphs,
	})
	return y + h + blockGap
}

// svg embeds the serialized markup as a picture and keeps its data URI as description
func (w *slideWriter) svg(b entities.ContentBlock, y float64) float64 {
	markup := svgDocument(b.Markup)
	height := math.Min(3.2, contentBottom-y)
	width := 6.0 * height / 3.2
	w.slide.AddSVG(w.box(pageMargin+(contentWidth-width)/2, y, width, height), []byte(markup), SVGDataURI(markup))
	y += height
	return w.caption(b.Caption, y) + blockGap
}

func (w *slideWriter) diagram(b entities.ContentBlock, y float64) float64 {
	if b.Markup != "" {
		return w.svg(b, y)
	}

	h := float64(lines(b.Text, contentWidth-0.4))*bodyLine + 0.4
	w.text(w.box(pageMargin, y, contentWidth, h), pptx.TextBox{
		Border:     &pptx.Line{Color: w.hex(w.pal.Primary), Width: pptx.Points(1), Dashed: true},
		Anchor:     pptx.AnchorMiddle,
		Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{w.bodyRun(b.Text)}, Align: pptx.AlignCenter}},
	})
	return w.caption(b.Caption, y+h) + blockGap
}

// canvas never embeds an image: canvas pixels only exist in the browser
func (w *slideWriter) canvas(b entities.ContentBlock, y float64) float64 {
	w.canvases++
	w.text(w.box(pageMargin, y, contentWidth, 0.4), pptx.TextBox{
		Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{
			{Text: entities.CanvasPlaceholderCaption, Size: 14, Italic: true, Color: w.hex(w.pal.Text)},
		}, Align: pptx.AlignCenter}},
	})
	y += 0.45

	h := math.Min(2.5, contentBottom-y)
	w.slide.AddRect(w.box(pageMargin+1.5, y, contentWidth-3.0, h), "", &pptx.Line{
		Color:  w.hex(w.pal.Primary),
		Width:  pptx.Points(1),
		Dashed: true,
	})
	return y + h + blockGap
}

func (w *slideWriter) caption(text string, y float64) float64 {
	if text == "" {
		return y
	}
	w.text(w.box(pageMargin, y, contentWidth, 0.4), pptx.TextBox{
		Paragraphs: []pptx.Paragraph{{Runs: []pptx.Run{
			{Text: text, Size: 14, Italic: true, Color: w.hex(w.pal.Text)},
		}, Align: pptx.AlignCenter}},
	})
	return y + 0.45
}

// svgDocument makes serialized inline SVG markup a standalone document
func svgDocument(markup string) string {
	markup = strings.TrimSpace(markup)
	if strings.HasPrefix(markup, "<svg") && !strings.Contains(markup[:strings.Index(markup, ">")+1], "xmlns=") {
		markup = `<svg xmlns="http://www.w3.org/2000/svg"` + markup[len("<svg"):]
	}
	return markup
}

// SVGDataURI encodes markup as a base64 data URI
func SVGDataURI(markup string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(markup))
}
