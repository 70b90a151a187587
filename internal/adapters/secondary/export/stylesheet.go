package export

import (
	"strings"
	"text/template"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

// Palette is a theme with its derived tints and alpha-blending triplets
type Palette struct {
	entities.ColorTheme

	PrimaryRGB    string
	SecondaryRGB  string
	BackgroundRGB string
	TextRGB       string

	PrimaryLight   string
	PrimaryLighter string
	SecondaryLight string
}

// NewPalette derives the tints of theme; empty colors take their default
func NewPalette(theme entities.ColorTheme) Palette {
	theme = theme.WithDefaults()
	return Palette{
		ColorTheme:     theme,
		PrimaryRGB:     entities.HexToRGB(theme.Primary),
		SecondaryRGB:   entities.HexToRGB(theme.Secondary),
		BackgroundRGB:  entities.HexToRGB(theme.Background),
		TextRGB:        entities.HexToRGB(theme.Text),
		PrimaryLight:   entities.Lighten(theme.Primary, 0.85),
		PrimaryLighter: entities.Lighten(theme.Primary, 0.95),
		SecondaryLight: entities.Lighten(theme.Secondary, 0.8),
	}
}

var stylesheetTemplate = template.Must(template.New("stylesheet").Parse(stylesheetCSS))

// GenerateStylesheet returns the deck stylesheet for theme
func GenerateStylesheet(theme entities.ColorTheme) string {
	var b strings.Builder
	// the template only formats palette fields
	_ = stylesheetTemplate.Execute(&b, NewPalette(theme))
	return b.String()
}

const stylesheetCSS = `:root {
  --primary: {{.Primary}};
  --secondary: {{.Secondary}};
  --background: {{.Background}};
  --text: {{.Text}};
  --primary-rgb: {{.PrimaryRGB}};
  --secondary-rgb: {{.SecondaryRGB}};
  --background-rgb: {{.BackgroundRGB}};
  --text-rgb: {{.TextRGB}};
  --primary-light: {{.PrimaryLight}};
  --primary-lighter: {{.PrimaryLighter}};
  --secondary-light: {{.SecondaryLight}};
}

.reveal-viewport, .reveal {
  background: var(--background);
  color: var(--text);
}

.reveal .slides section {
  text-align: left;
  font-size: 0.7em;
}

.reveal h1, .reveal h2, .reveal h3, .reveal h4 {
  color: var(--primary);
  text-transform: none;
}

.reveal p, .reveal li {
  color: var(--text);
  line-height: 1.5;
}

.reveal section.title-slide, .reveal section.section-title {
  text-align: center;
  background: linear-gradient(135deg, rgba(var(--primary-rgb), 0.08), rgba(var(--secondary-rgb), 0.12));
}

.reveal section.title-slide p {
  color: var(--secondary);
  font-size: 1.2em;
}

.reveal .heading-content-group {
  margin-bottom: 0.6em;
}

.reveal .feature-panel, .reveal .feature-card {
  background: var(--primary-lighter);
  border-left: 6px solid var(--primary);
  border-radius: 8px;
  padding: 0.6em 1em;
  margin: 0.4em 0;
}

.reveal .timeline-item {
  border-left: 3px solid var(--secondary);
  padding-left: 1em;
  margin: 0.4em 0;
}

.reveal .timeline-item [class*="number"], .reveal .timeline-item [class*="marker"] {
  color: var(--secondary);
  font-weight: bold;
}

.reveal .grid-container {
  display: grid;
  grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
  gap: 1em;
}

.reveal .grid-container > * {
  background: rgba(var(--primary-rgb), 0.06);
  border-radius: 8px;
  padding: 0.6em;
}

.reveal blockquote {
  font-style: italic;
  background: var(--secondary-light);
  border-left: 5px solid var(--secondary);
  box-shadow: none;
  padding: 0.5em 1em;
}

.reveal pre {
  background: #F2F2F2;
  box-shadow: none;
}

.reveal table th {
  background: var(--primary);
  color: var(--background);
}

.reveal table tr:nth-child(even) td {
  background: var(--primary-light);
}

.reveal .diagram, .reveal .chart-container {
  border: 1px dashed rgba(var(--primary-rgb), 0.4);
  border-radius: 6px;
  padding: 0.5em;
}

.reveal .controls, .reveal .progress {
  color: var(--primary);
}
`
