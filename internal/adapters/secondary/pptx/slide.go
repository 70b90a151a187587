package pptx

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Rect is a shape frame in EMU
type Rect struct {
	X, Y, W, H int64
}

// Align is a paragraph alignment
type Align string

const (
	AlignLeft   Align = "l"
	AlignCenter Align = "ctr"
	AlignRight  Align = "r"
)

// Anchor is the vertical anchoring of a text body
type Anchor string

const (
	AnchorTop    Anchor = "t"
	AnchorMiddle Anchor = "ctr"
	AnchorBottom Anchor = "b"
)

// Bullet is a paragraph bullet style
type Bullet int

const (
	BulletNone Bullet = iota
	BulletDot
	BulletNumber
)

// Run is a span of uniformly formatted text
type Run struct {
	Text   string
	Size   float64 // points
	Bold   bool
	Italic bool
	Color  string // RRGGBB
	Font   string

	// SlideNumber renders the run as the slide-number field
	SlideNumber bool
}

// Paragraph is one line-broken block of runs
type Paragraph struct {
	Runs       []Run
	Align      Align
	Bullet     Bullet
	SpaceAfter float64 // points
}

// Line is a shape outline
type Line struct {
	Color  string
	Width  int64 // EMU
	Dashed bool
}

// TextBox describes a text shape
type TextBox struct {
	Name       string
	Paragraphs []Paragraph
	Fill       string
	Border     *Line
	Anchor     Anchor
}

// Table describes a native table. Column widths are uniform.
type Table struct {
	Rows       [][]string
	HasHeader  bool
	FontSize   float64
	TextColor  string
	HeaderFill string
	HeaderText string
	BandFill   string
}

// Slide is one slide of a Presentation
type Slide struct {
	pres       *Presentation
	number     int
	nextID     int
	Background string

	shapes strings.Builder
	images []string // targets, rId = index + 2
}

// Number returns the 1-based slide number
func (s *Slide) Number() int {
	return s.number
}

func (s *Slide) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Slide) relate(target string) string {
	s.images = append(s.images, target)
	return fmt.Sprintf("rId%d", len(s.images)+1)
}

func xfrm(r Rect) string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, r.X, r.Y, r.W, r.H)
}

func solidFill(hex string) string {
	if hex == "" {
		return `<a:noFill/>`
	}
	return fmt.Sprintf(`<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, hex)
}

func outline(l *Line) string {
	if l == nil {
		return `<a:ln><a:noFill/></a:ln>`
	}
	dash := ""
	if l.Dashed {
		dash = `<a:prstDash val="dash"/>`
	}
	return fmt.Sprintf(`<a:ln w="%d">%s%s</a:ln>`, l.Width, solidFill(l.Color), dash)
}

func runProps(r Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<a:rPr lang="fr-FR" sz="%d" dirty="0"`, int(r.Size*100))
	if r.Bold {
		b.WriteString(` b="1"`)
	}
	if r.Italic {
		b.WriteString(` i="1"`)
	}
	b.WriteString(`>`)
	if r.Color != "" {
		b.WriteString(solidFill(r.Color))
	}
	if r.Font != "" {
		fmt.Fprintf(&b, `<a:latin typeface="%s"/><a:cs typeface="%s"/>`, escape(r.Font), escape(r.Font))
	}
	b.WriteString(`</a:rPr>`)
	return b.String()
}

func (s *Slide) paragraphXML(p Paragraph) string {
	var b strings.Builder
	b.WriteString(`<a:p><a:pPr`)
	if p.Align != "" {
		fmt.Fprintf(&b, ` algn="%s"`, p.Align)
	}
	if p.Bullet != BulletNone {
		b.WriteString(` marL="342900" indent="-342900"`)
	}
	b.WriteString(`>`)
	if p.SpaceAfter > 0 {
		fmt.Fprintf(&b, `<a:spcAft><a:spcPts val="%d"/></a:spcAft>`, int(p.SpaceAfter*100))
	}
	switch p.Bullet {
	case BulletDot:
		b.WriteString(`<a:buFont typeface="Arial"/><a:buChar char="•"/>`)
	case BulletNumber:
		b.WriteString(`<a:buFont typeface="+mj-lt"/><a:buAutoNum type="arabicPeriod"/>`)
	default:
		b.WriteString(`<a:buNone/>`)
	}
	b.WriteString(`</a:pPr>`)

	for _, r := range p.Runs {
		if r.SlideNumber {
			fmt.Fprintf(&b, `<a:fld id="{%s}" type="slidenum">%s<a:t>%d</a:t></a:fld>`,
				strings.ToUpper(uuid.NewString()), runProps(r), s.number)
			continue
		}
		fmt.Fprintf(&b, `<a:r>%s<a:t>%s</a:t></a:r>`, runProps(r), escape(r.Text))
	}
	b.WriteString(`</a:p>`)
	return b.String()
}

// AddText adds a text box
func (s *Slide) AddText(frame Rect, box TextBox) {
	id := s.id()
	name := box.Name
	if name == "" {
		name = fmt.Sprintf("TextBox %d", id)
	}
	anchor := box.Anchor
	if anchor == "" {
		anchor = AnchorTop
	}

	paragraphs := box.Paragraphs
	if len(paragraphs) == 0 {
		paragraphs = []Paragraph{{}}
	}

	fmt.Fprintf(&s.shapes, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, escape(name))
	fmt.Fprintf(&s.shapes, `<p:spPr>%s<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>%s%s</p:spPr>`,
		xfrm(frame), solidFill(box.Fill), outline(box.Border))
	fmt.Fprintf(&s.shapes, `<p:txBody><a:bodyPr wrap="square" lIns="91440" tIns="45720" rIns="91440" bIns="45720" anchor="%s"><a:normAutofit/></a:bodyPr><a:lstStyle/>`, anchor)
	for _, p := range paragraphs {
		s.shapes.WriteString(s.paragraphXML(p))
	}
	s.shapes.WriteString(`</p:txBody></p:sp>`)
}

// AddRect adds an empty rectangle
func (s *Slide) AddRect(frame Rect, fill string, border *Line) {
	id := s.id()
	fmt.Fprintf(&s.shapes, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Rectangle %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`, id, id)
	fmt.Fprintf(&s.shapes, `<p:spPr>%s<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>%s%s</p:spPr>`,
		xfrm(frame), solidFill(fill), outline(border))
	s.shapes.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:endParaRPr lang="fr-FR"/></a:p></p:txBody></p:sp>`)
}

// AddLine adds a straight connector across frame
func (s *Slide) AddLine(frame Rect, line Line) {
	id := s.id()
	fmt.Fprintf(&s.shapes, `<p:cxnSp><p:nvCxnSpPr><p:cNvPr id="%d" name="Line %d"/><p:cNvCxnSpPr/><p:nvPr/></p:nvCxnSpPr>`, id, id)
	fmt.Fprintf(&s.shapes, `<p:spPr>%s<a:prstGeom prst="line"><a:avLst/></a:prstGeom>%s</p:spPr></p:cxnSp>`,
		xfrm(frame), outline(&line))
}

// AddTable adds a native table. Short rows are padded with empty cells.
func (s *Slide) AddTable(frame Rect, t Table) {
	cols := 0
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return
	}

	id := s.id()
	colWidth := frame.W / int64(cols)
	rowHeight := frame.H / int64(len(t.Rows))

	fmt.Fprintf(&s.shapes, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="Table %d"/><p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr>`, id, id)
	fmt.Fprintf(&s.shapes, `<p:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></p:xfrm>`, frame.X, frame.Y, colWidth*int64(cols), frame.H)
	s.shapes.WriteString(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl>`)
	fmt.Fprintf(&s.shapes, `<a:tblPr firstRow="%d" bandRow="1"/><a:tblGrid>`, boolDigit(t.HasHeader))
	for range cols {
		fmt.Fprintf(&s.shapes, `<a:gridCol w="%d"/>`, colWidth)
	}
	s.shapes.WriteString(`</a:tblGrid>`)

	for i, row := range t.Rows {
		header := i == 0 && t.HasHeader
		dataIndex := i
		if t.HasHeader {
			dataIndex--
		}

		fill, color := "", t.TextColor
		switch {
		case header:
			fill, color = t.HeaderFill, t.HeaderText
		case dataIndex%2 == 1:
			fill = t.BandFill
		}

		fmt.Fprintf(&s.shapes, `<a:tr h="%d">`, rowHeight)
		for c := range cols {
			text := ""
			if c < len(row) {
				text = row[c]
			}
			run := Run{Text: text, Size: t.FontSize, Bold: header, Color: color}
			fmt.Fprintf(&s.shapes, `<a:tc><a:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r>%s<a:t>%s</a:t></a:r></a:p></a:txBody><a:tcPr>%s</a:tcPr></a:tc>`,
				runProps(run), escape(text), tableFill(fill))
		}
		s.shapes.WriteString(`</a:tr>`)
	}
	s.shapes.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
}

func tableFill(hex string) string {
	if hex == "" {
		return ""
	}
	return solidFill(hex)
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// AddSVG embeds an SVG picture with a PNG fallback. descr becomes the
// picture description.
func (s *Slide) AddSVG(frame Rect, svg []byte, descr string) {
	pngRel := s.relate(s.pres.addMedia("png", fallbackPNG()))
	svgRel := s.relate(s.pres.addMedia("svg", svg))

	id := s.id()
	fmt.Fprintf(&s.shapes, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d" descr="%s"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`,
		id, id, escape(descr))
	fmt.Fprintf(&s.shapes, `<p:blipFill><a:blip r:embed="%s"><a:extLst><a:ext uri="{96DAC541-7B7A-43D3-8B79-37D633B846F1}"><asvg:svgBlip xmlns:asvg="http://schemas.microsoft.com/office/drawing/2016/SVG/main" r:embed="%s"/></a:ext></a:extLst></a:blip><a:stretch><a:fillRect/></a:stretch></p:blipFill>`,
		pngRel, svgRel)
	fmt.Fprintf(&s.shapes, `<p:spPr>%s<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`, xfrm(frame))
}

var (
	fallbackOnce sync.Once
	fallbackData []byte
)

// fallbackPNG is a light gray tile shown by readers without SVG support
func fallbackPNG() []byte {
	fallbackOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 16, 9))
		gray := color.RGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}
		for y := 0; y < 9; y++ {
			for x := 0; x < 16; x++ {
				img.Set(x, y, gray)
			}
		}
		var buf bytes.Buffer
		_ = png.Encode(&buf, img)
		fallbackData = buf.Bytes()
	})
	return fallbackData
}

func (s *Slide) xml() string {
	bg := ""
	if s.Background != "" {
		bg = `<p:bg><p:bgPr>` + solidFill(s.Background) + `<a:effectLst/></p:bgPr></p:bg>`
	}

	return xmlDecl +
		`<p:sld xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsOfficeDocRels + `" xmlns:p="` + nsPresentationML + `">` +
		`<p:cSld>` + bg +
		`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
		s.shapes.String() +
		`</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
		`</p:sld>`
}

func (s *Slide) relsXML() string {
	var b strings.Builder
	b.WriteString(xmlDecl)
	b.WriteString(`<Relationships xmlns="` + nsPackageRels + `">`)
	fmt.Fprintf(&b, `<Relationship Id="rId1" Type="%s" Target="../slideLayouts/slideLayout1.xml"/>`, relTypeSlideLayout)
	for i, target := range s.images {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="%s" Target="%s"/>`, i+2, relTypeImage, target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}
