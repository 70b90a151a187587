package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

// DefaultPDFFilename is the download name of the handout
const DefaultPDFFilename = "presentation.pdf"

// Handout page geometry in millimetres, 16:9 landscape
const (
	pdfWidth    = 338.7
	pdfHeight   = 190.5
	pdfMargin   = 15.0
	pdfBody     = pdfWidth - 2*pdfMargin
	pdfFooterY  = pdfHeight - 10
	pdfLineStep = 7.0
)

// PDFRenderer lays every slide out on its own page with gofpdf
type PDFRenderer struct {
	now func() time.Time
}

// NewPDFRenderer creates a new PDF renderer
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{now: time.Now}
}

// Render exports the deck to a PDF handout
func (r *PDFRenderer) Render(ctx context.Context, deck *entities.SlideDocument, w io.Writer, options *ExportOptions) (*ExportResult, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pdfWidth, Ht: pdfHeight},
	})
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(deckTitle(deck, options), true)
	pdf.SetCreator("diapoai", true)
	pdf.SetCreationDate(r.now())

	page := &pdfPage{
		pdf: pdf,
		pal: NewPalette(deck.Theme),
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}

	var warnings []string
	for i, s := range deck.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page.canvases = 0
		page.write(s)
		if page.canvases > 0 {
			warnings = append(warnings, fmt.Sprintf("slide %d: %d chart(s) replaced by a placeholder", i+1, page.canvases))
		}
	}

	if err := pdf.Output(w); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}

	return &ExportResult{
		Format:    string(FormatPDF),
		PageCount: pdf.PageCount(),
		Warnings:  warnings,
	}, nil
}

// Supports returns true if this renderer supports the given format
func (r *PDFRenderer) Supports(format ExportFormat) bool {
	return format == FormatPDF
}

// GetMimeType returns the MIME type for PDF exports
func (r *PDFRenderer) GetMimeType() string {
	return "application/pdf"
}

// DefaultFilename returns the download name
func (r *PDFRenderer) DefaultFilename() string {
	return DefaultPDFFilename
}

type pdfPage struct {
	pdf      *gofpdf.Fpdf
	pal      Palette
	tr       func(string) string
	canvases int
}

func (p *pdfPage) color(hex string) (int, int, int) {
	r, g, b, err := entities.ParseHexColor(hex)
	if err != nil {
		return 0, 0, 0
	}
	return int(r), int(g), int(b)
}

func (p *pdfPage) textColor(hex string) {
	p.pdf.SetTextColor(p.color(hex))
}

func (p *pdfPage) fillColor(hex string) {
	p.pdf.SetFillColor(p.color(hex))
}

func (p *pdfPage) drawColor(hex string) {
	p.pdf.SetDrawColor(p.color(hex))
}

// full reports whether y leaves no room above the footer
func (p *pdfPage) full(y float64) bool {
	return y > pdfFooterY-pdfLineStep
}

func (p *pdfPage) write(s entities.Slide) {
	pdf := p.pdf
	pdf.AddPage()
	p.fillColor(p.pal.Background)
	pdf.Rect(0, 0, pdfWidth, pdfHeight, "F")

	l := layoutOf(s)
	switch s.Role {
	case entities.RoleTitle:
		p.centered(l.title(s), "B", 36, 65, p.pal.Primary)
		if sub := l.subtitle(); sub != "" {
			p.centered(sub, "", 20, 100, p.pal.Secondary)
		}
	case entities.RoleSection:
		p.centered(l.title(s), "B", 32, 80, p.pal.Primary)
	default:
		y := pdfMargin
		if l.heading != nil {
			pdf.SetFont("Helvetica", "B", 26)
			p.textColor(p.pal.Primary)
			pdf.SetXY(pdfMargin, y)
			pdf.MultiCell(pdfBody, 12, p.tr(l.heading.Text), "", "L", false)
			y = pdf.GetY() + 6
		}
		for _, b := range l.body {
			if p.full(y) {
				break
			}
			y = p.block(b, y)
		}
	}

	p.footer()
}

func (p *pdfPage) centered(text, style string, size, y float64, hex string) {
	p.pdf.SetFont("Helvetica", style, size)
	p.textColor(hex)
	p.pdf.SetXY(pdfMargin, y)
	p.pdf.MultiCell(pdfBody, size*0.5, p.tr(text), "", "C", false)
}

func (p *pdfPage) footer() {
	pdf := p.pdf
	p.drawColor(p.pal.Primary)
	pdf.SetLineWidth(0.7)
	pdf.Line(pdfMargin, pdfFooterY, pdfWidth-pdfMargin, pdfFooterY)

	pdf.SetFont("Helvetica", "", 10)
	p.textColor(p.pal.Primary)
	pdf.SetXY(pdfWidth-pdfMargin-20, pdfFooterY+1.5)
	pdf.CellFormat(20, 6, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
}

// paragraph writes wrapped text and returns the y below it
func (p *pdfPage) paragraph(x, y, width float64, text, style string, size float64, hex string, fill bool) float64 {
	pdf := p.pdf
	pdf.SetFont("Helvetica", style, size)
	p.textColor(hex)
	pdf.SetXY(x, y)
	pdf.MultiCell(width, size*0.45, p.tr(text), "", "L", fill)
	return pdf.GetY()
}

func (p *pdfPage) block(b entities.ContentBlock, y float64) float64 {
	pdf := p.pdf
	text := p.pal.Text

	switch b.Kind {
	case entities.BlockHeading:
		y = p.paragraph(pdfMargin, y, pdfBody, b.Text, "B", 18, p.pal.Primary, false)

	case entities.BlockParagraph:
		y = p.paragraph(pdfMargin, y, pdfBody, b.Text, "", 14, text, false)

	case entities.BlockFeaturePanel:
		p.fillColor(p.pal.PrimaryLighter)
		top := y
		y = p.paragraph(pdfMargin+4, y+3, pdfBody-8, b.Text, "", 14, text, false) + 3
		p.drawColor(p.pal.Primary)
		pdf.SetLineWidth(0.5)
		pdf.Rect(pdfMargin, top, pdfBody, y-top, "D")

	case entities.BlockTimelineItem:
		head := strings.TrimSpace(b.Number + "  " + b.Title)
		top := y
		if head != "" {
			y = p.paragraph(pdfMargin+5, y, pdfBody-5, head, "B", 14, p.pal.Primary, false)
		}
		if b.Text != "" {
			y = p.paragraph(pdfMargin+5, y, pdfBody-5, b.Text, "", 13, text, false)
		}
		p.fillColor(p.pal.Secondary)
		pdf.Rect(pdfMargin, top, 1.5, y-top, "F")

	case entities.BlockGrid:
		y = p.grid(b, y)

	case entities.BlockList:
		for i, item := range b.Items {
			marker := "-"
			if b.Ordered {
				marker = fmt.Sprintf("%d.", i+1)
			}
			pdf.SetFont("Helvetica", "B", 14)
			p.textColor(p.pal.Primary)
			pdf.SetXY(pdfMargin, y)
			pdf.CellFormat(8, 6.3, marker, "", 0, "L", false, 0, "")
			y = p.paragraph(pdfMargin+8, y, pdfBody-8, item, "", 14, text, false)
			if p.full(y) {
				break
			}
		}

	case entities.BlockTable:
		y = p.table(b, y)

	case entities.BlockQuote:
		p.fillColor(p.pal.SecondaryLight)
		y = p.paragraph(pdfMargin, y, pdfBody, b.Text, "I", 14, text, true)

	case entities.BlockCode:
		pdf.SetFont("Courier", "", 11)
		pdf.SetTextColor(51, 51, 51)
		pdf.SetFillColor(242, 242, 242)
		pdf.SetXY(pdfMargin, y)
		pdf.MultiCell(pdfBody, 5, p.tr(b.Text), "", "L", true)
		y = pdf.GetY()

	case entities.BlockSVG, entities.BlockDiagram:
		y = p.figure(b, y)

	case entities.BlockCanvas:
		p.canvases++
		y = p.paragraph(pdfMargin, y, pdfBody, entities.CanvasPlaceholderCaption, "I", 12, text, false)
		p.dashedBox(pdfMargin+40, y+1, pdfBody-80, 30)
		y += 32
	}

	return y + 4
}

// figure keeps diagrams readable as text; vector markup stays in the pptx export
func (p *pdfPage) figure(b entities.ContentBlock, y float64) float64 {
	label := b.Text
	if label == "" {
		label = b.Caption
	}
	if label == "" {
		label = "Diagramme"
	}

	top := y
	y = p.paragraph(pdfMargin+4, y+3, pdfBody-8, label, "", 13, p.pal.Text, false) + 3
	p.dashedBox(pdfMargin, top, pdfBody, y-top)
	if b.Caption != "" && b.Caption != label {
		y = p.paragraph(pdfMargin, y+1, pdfBody, b.Caption, "I", 11, p.pal.Text, false)
	}
	return y
}

func (p *pdfPage) dashedBox(x, y, w, h float64) {
	pdf := p.pdf
	p.drawColor(p.pal.Primary)
	pdf.SetLineWidth(0.3)
	pdf.SetDashPattern([]float64{2, 1.5}, 0)
	pdf.Rect(x, y, w, h, "D")
	pdf.SetDashPattern([]float64{}, 0)
}

func (p *pdfPage) grid(b entities.ContentBlock, y float64) float64 {
	cols := min(len(b.GridItems), 3)
	if cols == 0 {
		return y
	}
	gap := 5.0
	cellW := (pdfBody - gap*float64(cols-1)) / float64(cols)

	rowTop := y
	rowBottom := y
	for i, item := range b.GridItems {
		col := i % cols
		if col == 0 && i > 0 {
			rowTop = rowBottom + gap
		}
		x := pdfMargin + float64(col)*(cellW+gap)
		p.fillColor(p.pal.PrimaryLighter)
		cy := rowTop + 2
		if item.Title != "" {
			cy = p.paragraph(x+2, cy, cellW-4, item.Title, "B", 13, p.pal.Primary, false)
		}
		if item.Text != "" {
			cy = p.paragraph(x+2, cy, cellW-4, item.Text, "", 12, p.pal.Text, false)
		}
		rowBottom = max(rowBottom, cy+2)
	}
	return rowBottom
}

func (p *pdfPage) table(b entities.ContentBlock, y float64) float64 {
	cols := 0
	for _, row := range b.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return y
	}

	pdf := p.pdf
	cellW := pdfBody / float64(cols)
	p.drawColor(p.pal.PrimaryLight)
	pdf.SetLineWidth(0.2)

	for i, row := range b.Rows {
		header := i == 0 && b.HasHeader
		switch {
		case header:
			pdf.SetFont("Helvetica", "B", 12)
			p.fillColor(p.pal.Primary)
			p.textColor(p.pal.Background)
		case i%2 == 1:
			pdf.SetFont("Helvetica", "", 12)
			p.fillColor(p.pal.PrimaryLight)
			p.textColor(p.pal.Text)
		default:
			pdf.SetFont("Helvetica", "", 12)
			p.fillColor(p.pal.Background)
			p.textColor(p.pal.Text)
		}

		pdf.SetXY(pdfMargin, y)
		for c := 0; c < cols; c++ {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			pdf.CellFormat(cellW, 8, p.tr(cell), "1", 0, "L", true, 0, "")
		}
		y += 8
		if p.full(y) {
			break
		}
	}
	return y
}
