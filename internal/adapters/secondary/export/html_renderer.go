package export

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"path"

	"github.com/sydologie/diapoai/internal/adapters/secondary/preview"
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// DefaultHTMLFilename is the download name of the standalone document
const DefaultHTMLFilename = "diapoai-presentation.html"

// HTMLRenderer writes one self-contained document: slide markup, theme
// stylesheet, engine assets by absolute URL and the bootstrap script
type HTMLRenderer struct {
	template  *template.Template
	engine    ports.EngineConfig
	assetBase string
}

// NewHTMLRenderer creates a new HTML renderer
func NewHTMLRenderer(engine ports.EngineConfig, assetBase string) *HTMLRenderer {
	if engine.Transition == "" {
		engine.Transition = "slide"
	}

	tmpl := template.Must(template.New("export").Funcs(template.FuncMap{
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s) // #nosec G203 - slide markup is sanitized upstream
		},
		"safeCSS": func(s string) template.CSS {
			return template.CSS(s) // #nosec G203 - generated from validated colors
		},
	}).Parse(staticHTMLTemplate))

	return &HTMLRenderer{
		template:  tmpl,
		engine:    engine,
		assetBase: assetBase,
	}
}

type htmlDocument struct {
	Title       string
	Stylesheets []string
	Scripts     []string
	Stylesheet  string
	Slides      []string
	Engine      ports.EngineConfig
}

// Render exports the deck to static HTML
func (r *HTMLRenderer) Render(ctx context.Context, deck *entities.SlideDocument, w io.Writer, options *ExportOptions) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine := r.engine
	if deck.Transition != "" {
		engine.Transition = deck.Transition
	}

	doc := htmlDocument{
		Title:      deckTitle(deck, options),
		Stylesheet: GenerateStylesheet(deck.Theme),
		Engine:     engine,
	}
	for _, u := range preview.AssetURLs(r.assetBase) {
		switch path.Ext(u) {
		case ".css":
			doc.Stylesheets = append(doc.Stylesheets, u)
		case ".js":
			doc.Scripts = append(doc.Scripts, u)
		}
	}
	for _, s := range deck.Slides {
		doc.Slides = append(doc.Slides, s.HTML)
	}

	if err := r.template.Execute(w, doc); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	return &ExportResult{
		Format:    string(FormatHTML),
		PageCount: deck.SlideCount(),
	}, nil
}

// Supports returns true if this renderer supports the given format
func (r *HTMLRenderer) Supports(format ExportFormat) bool {
	return format == FormatHTML
}

// GetMimeType returns the MIME type for HTML exports
func (r *HTMLRenderer) GetMimeType() string {
	return "text/html"
}

// DefaultFilename returns the download name
func (r *HTMLRenderer) DefaultFilename() string {
	return DefaultHTMLFilename
}

const staticHTMLTemplate = `<!DOCTYPE html>
<html lang="fr">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="generator" content="DiapoAI">
  <title>{{.Title}}</title>
{{- range .Stylesheets}}
  <link rel="stylesheet" href="{{.}}">
{{- end}}
  <style>
{{safeCSS .Stylesheet}}
  </style>
</head>
<body>
  <div class="reveal">
    <div class="slides">
{{- range .Slides}}
{{safeHTML .}}
{{- end}}
    </div>
  </div>
{{- range .Scripts}}
  <script src="{{.}}"></script>
{{- end}}
  <script>
    const config = {{.Engine}};
    config.plugins = typeof RevealNotes !== "undefined" ? [RevealNotes] : [];
    Reveal.initialize(config);
  </script>
</body>
</html>
`
