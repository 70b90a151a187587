package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/sync/errgroup"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

// DefaultImagesFilename is the download name of the thumbnail archive
const DefaultImagesFilename = "diapoai-slides.zip"

// ImageRenderer draws one PNG per slide and bundles them in a zip archive
type ImageRenderer struct {
	width       int
	height      int
	concurrency int
}

// NewImageRenderer creates an image renderer; non-positive values take defaults
func NewImageRenderer(width, height, concurrency int) *ImageRenderer {
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ImageRenderer{width: width, height: height, concurrency: concurrency}
}

// Render draws the slides concurrently and writes the archive in slide order
func (r *ImageRenderer) Render(ctx context.Context, deck *entities.SlideDocument, w io.Writer, options *ExportOptions) (*ExportResult, error) {
	width, height := r.width, r.height
	if options != nil && options.Quality != "" {
		width, height = GetImageDimensions(options.Quality)
	}

	pal := NewPalette(deck.Theme)
	images := make([][]byte, len(deck.Slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, s := range deck.Slides {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := drawSlide(s, i+1, pal, width, height)
			if err != nil {
				return fmt.Errorf("drawing slide %d: %w", i+1, err)
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zw := zip.NewWriter(w)
	files := make([]string, 0, len(images))
	for i, img := range images {
		name := fmt.Sprintf("slide-%03d.png", i+1)
		// PNG data is already compressed
		f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			return nil, fmt.Errorf("adding %s: %w", name, err)
		}
		if _, err := f.Write(img); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		files = append(files, name)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}

	return &ExportResult{
		Format:    string(FormatImages),
		PageCount: len(images),
		Files:     files,
	}, nil
}

// Supports returns true if this renderer supports the given format
func (r *ImageRenderer) Supports(format ExportFormat) bool {
	return format == FormatImages
}

// GetMimeType returns the MIME type for image exports
func (r *ImageRenderer) GetMimeType() string {
	return "application/zip"
}

// DefaultFilename returns the download name
func (r *ImageRenderer) DefaultFilename() string {
	return DefaultImagesFilename
}

// GetImageDimensions returns the dimensions based on quality setting
func GetImageDimensions(quality string) (width, height int) {
	switch quality {
	case "low":
		return 1280, 720
	case "high":
		return 2560, 1440
	default: // medium
		return 1920, 1080
	}
}

var (
	fontsOnce sync.Once
	fontsErr  error
	fonts     map[string]*truetype.Font
)

func loadFonts() (map[string]*truetype.Font, error) {
	fontsOnce.Do(func() {
		fonts = make(map[string]*truetype.Font)
		for name, ttf := range map[string][]byte{
			"regular": goregular.TTF,
			"bold":    gobold.TTF,
			"italic":  goitalic.TTF,
			"mono":    gomono.TTF,
		} {
			f, err := truetype.Parse(ttf)
			if err != nil {
				fontsErr = fmt.Errorf("parsing %s font: %w", name, err)
				return
			}
			fonts[name] = f
		}
	})
	return fonts, fontsErr
}

// canvas draws on one image; faces are not shared across goroutines
type canvas struct {
	dc     *gg.Context
	pal    Palette
	fonts  map[string]*truetype.Font
	scale  float64
	margin float64
	width  float64
	bottom float64
}

func (c *canvas) face(style string, size float64) font.Face {
	return truetype.NewFace(c.fonts[style], &truetype.Options{Size: size * c.scale})
}

func (c *canvas) setColor(hex string) {
	r, g, b, err := entities.ParseHexColor(hex)
	if err != nil {
		c.dc.SetColor(color.Black)
		return
	}
	c.dc.SetRGB255(int(r), int(g), int(b))
}

func drawSlide(s entities.Slide, number int, pal Palette, width, height int) ([]byte, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}

	c := &canvas{
		dc:    gg.NewContext(width, height),
		pal:   pal,
		fonts: fonts,
		// sizes below are in points for a 1280 pixel wide slide
		scale: float64(width) / 1280,
	}
	c.margin = 60 * c.scale
	c.width = float64(width) - 2*c.margin
	c.bottom = float64(height) - 50*c.scale

	c.setColor(pal.Background)
	c.dc.Clear()

	l := layoutOf(s)
	switch s.Role {
	case entities.RoleTitle:
		c.centered(l.title(s), "bold", 48, float64(height)*0.4, pal.Primary)
		if sub := l.subtitle(); sub != "" {
			c.centered(sub, "regular", 26, float64(height)*0.58, pal.Secondary)
		}
	case entities.RoleSection:
		c.centered(l.title(s), "bold", 42, float64(height)*0.45, pal.Primary)
	default:
		y := c.margin
		if l.heading != nil {
			y = c.text(l.heading.Text, "bold", 34, c.margin, y, c.width, pal.Primary) + 14*c.scale
		}
		for _, b := range l.body {
			if y >= c.bottom {
				break
			}
			y = c.block(b, y) + 12*c.scale
		}
	}

	c.footer(number)

	var buf bytes.Buffer
	if err := c.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *canvas) centered(text, style string, size, y float64, hex string) {
	c.dc.SetFontFace(c.face(style, size))
	c.setColor(hex)
	c.dc.DrawStringWrapped(text, c.margin+c.width/2, y, 0.5, 0.5, c.width, 1.3, gg.AlignCenter)
}

// text draws wrapped text with its top at y and returns the y below it
func (c *canvas) text(text, style string, size, x, y, width float64, hex string) float64 {
	c.dc.SetFontFace(c.face(style, size))
	c.setColor(hex)
	lineHeight := c.dc.FontHeight() * 1.35
	for _, line := range c.dc.WordWrap(text, width) {
		if y+lineHeight > c.bottom {
			break
		}
		c.dc.DrawStringAnchored(line, x, y, 0, 1)
		y += lineHeight
	}
	return y
}

func (c *canvas) footer(number int) {
	dc := c.dc
	y := c.bottom + 10*c.scale
	c.setColor(c.pal.Primary)
	dc.SetLineWidth(2 * c.scale)
	dc.DrawLine(c.margin, y, c.margin+c.width, y)
	dc.Stroke()

	dc.SetFontFace(c.face("regular", 14))
	dc.DrawStringAnchored(fmt.Sprintf("%d", number), c.margin+c.width, y+8*c.scale, 1, 1)
}

func (c *canvas) box(x, y, w, h float64, fill, stroke string, dashed bool) {
	dc := c.dc
	dc.DrawRectangle(x, y, w, h)
	if fill != "" {
		c.setColor(fill)
		dc.FillPreserve()
	}
	if stroke != "" {
		c.setColor(stroke)
		dc.SetLineWidth(1.5 * c.scale)
		if dashed {
			dc.SetDash(8*c.scale, 5*c.scale)
		}
		dc.StrokePreserve()
		dc.SetDash()
	}
	dc.ClearPath()
}

// measure returns the height text would take without drawing it
func (c *canvas) measure(text, style string, size, width float64) float64 {
	c.dc.SetFontFace(c.face(style, size))
	return float64(len(c.dc.WordWrap(text, width))) * c.dc.FontHeight() * 1.35
}

func (c *canvas) block(b entities.ContentBlock, y float64) float64 {
	pal := c.pal
	pad := 12 * c.scale

	switch b.Kind {
	case entities.BlockHeading:
		return c.text(b.Text, "bold", 24, c.margin, y, c.width, pal.Primary)

	case entities.BlockParagraph:
		return c.text(b.Text, "regular", 20, c.margin, y, c.width, pal.Text)

	case entities.BlockFeaturePanel:
		h := c.measure(b.Text, "regular", 20, c.width-2*pad) + 2*pad
		c.box(c.margin, y, c.width, h, pal.PrimaryLighter, pal.Primary, false)
		c.text(b.Text, "regular", 20, c.margin+pad, y+pad, c.width-2*pad, pal.Text)
		return y + h

	case entities.BlockTimelineItem:
		top := y
		x := c.margin + 16*c.scale
		if head := strings.TrimSpace(b.Number + "  " + b.Title); head != "" {
			y = c.text(head, "bold", 20, x, y, c.width-16*c.scale, pal.Primary)
		}
		if b.Text != "" {
			y = c.text(b.Text, "regular", 18, x, y, c.width-16*c.scale, pal.Text)
		}
		c.box(c.margin, top, 5*c.scale, y-top, pal.Secondary, "", false)
		return y

	case entities.BlockGrid:
		return c.grid(b, y)

	case entities.BlockList:
		for i, item := range b.Items {
			marker := "•"
			if b.Ordered {
				marker = fmt.Sprintf("%d.", i+1)
			}
			c.text(marker, "bold", 20, c.margin, y, 30*c.scale, pal.Primary)
			y = c.text(item, "regular", 20, c.margin+30*c.scale, y, c.width-30*c.scale, pal.Text)
		}
		return y

	case entities.BlockTable:
		return c.table(b, y)

	case entities.BlockQuote:
		h := c.measure(b.Text, "italic", 20, c.width-2*pad) + 2*pad
		c.box(c.margin, y, c.width, h, pal.SecondaryLight, "", false)
		c.text(b.Text, "italic", 20, c.margin+pad, y+pad, c.width-2*pad, pal.Text)
		return y + h

	case entities.BlockCode:
		c.dc.SetFontFace(c.face("mono", 16))
		lineHeight := c.dc.FontHeight() * 1.35
		h := float64(b.LineCount())*lineHeight + 2*pad
		c.box(c.margin, y, c.width, h, "#F2F2F2", "", false)
		ly := y + pad
		c.setColor("#333333")
		for _, line := range strings.Split(b.Text, "\n") {
			if ly+lineHeight > c.bottom {
				break
			}
			c.dc.DrawStringAnchored(line, c.margin+pad, ly, 0, 1)
			ly += lineHeight
		}
		return y + h

	case entities.BlockSVG, entities.BlockDiagram:
		label := b.Text
		if label == "" {
			label = b.Caption
		}
		if label == "" {
			label = "Diagramme"
		}
		h := c.measure(label, "regular", 18, c.width-2*pad) + 2*pad
		c.box(c.margin, y, c.width, h, "", pal.Primary, true)
		c.text(label, "regular", 18, c.margin+pad, y+pad, c.width-2*pad, pal.Text)
		return y + h

	case entities.BlockCanvas:
		y = c.text(entities.CanvasPlaceholderCaption, "italic", 16, c.margin, y, c.width, pal.Text)
		h := min(200*c.scale, c.bottom-y)
		if h > 0 {
			c.box(c.margin+c.width/6, y, c.width*2/3, h, "", pal.Primary, true)
		}
		return y + max(h, 0)
	}
	return y
}

func (c *canvas) grid(b entities.ContentBlock, y float64) float64 {
	cols := min(len(b.GridItems), 3)
	if cols == 0 {
		return y
	}
	gap := 16 * c.scale
	pad := 10 * c.scale
	cellW := (c.width - gap*float64(cols-1)) / float64(cols)

	for start := 0; start < len(b.GridItems); start += cols {
		row := b.GridItems[start:min(start+cols, len(b.GridItems))]
		h := 0.0
		for _, item := range row {
			h = max(h, c.measure(item.Title, "bold", 18, cellW-2*pad)+c.measure(item.Text, "regular", 16, cellW-2*pad))
		}
		h += 2 * pad
		for i, item := range row {
			x := c.margin + float64(i)*(cellW+gap)
			c.box(x, y, cellW, h, c.pal.PrimaryLighter, "", false)
			cy := y + pad
			if item.Title != "" {
				cy = c.text(item.Title, "bold", 18, x+pad, cy, cellW-2*pad, c.pal.Primary)
			}
			c.text(item.Text, "regular", 16, x+pad, cy, cellW-2*pad, c.pal.Text)
		}
		y += h + gap
	}
	return y - gap
}

func (c *canvas) table(b entities.ContentBlock, y float64) float64 {
	cols := 0
	for _, row := range b.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return y
	}

	cellW := c.width / float64(cols)
	rowH := 36 * c.scale
	pad := 8 * c.scale
	for i, row := range b.Rows {
		if y+rowH > c.bottom {
			break
		}
		header := i == 0 && b.HasHeader
		fill, ink, style := c.pal.Background, c.pal.Text, "regular"
		switch {
		case header:
			fill, ink, style = c.pal.Primary, c.pal.Background, "bold"
		case i%2 == 1:
			fill = c.pal.PrimaryLight
		}
		c.box(c.margin, y, c.width, rowH, fill, "", false)

		c.dc.SetFontFace(c.face(style, 16))
		c.setColor(ink)
		for col, cell := range row {
			c.dc.DrawStringAnchored(cell, c.margin+float64(col)*cellW+pad, y+rowH/2, 0, 0.5)
		}
		y += rowH
	}
	return y
}
