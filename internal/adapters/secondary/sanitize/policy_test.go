package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

func TestSanitizer_Sanitize(t *testing.T) {
	s := New(entities.SanitizerConfig{Enabled: true})

	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "slide structure is kept",
			input:    `<section class="slide title-slide" id="slide-1" data-role="title-slide"><h1>Titre</h1><p>Sous-titre</p></section>`,
			contains: []string{`class="slide title-slide"`, `id="slide-1"`, `data-role="title-slide"`, "<h1>Titre</h1>"},
		},
		{
			name:   "scripts are removed",
			input:  `<p>ok</p><script>alert(1)</script>`,
			absent: []string{"script", "alert"},
		},
		{
			name:     "event handlers are removed",
			input:    `<div class="feature-panel" onclick="steal()"><p>x</p></div>`,
			contains: []string{`class="feature-panel"`},
			absent:   []string{"onclick"},
		},
		{
			name:     "inline svg diagrams survive",
			input:    `<div class="diagram"><svg viewBox="0 0 10 10" width="10"><rect x="1" y="1" width="8" height="8" fill="#1B4D3E"></rect></svg></div>`,
			contains: []string{"<svg", `="0 0 10 10"`, "<rect", `fill="#1B4D3E"`},
		},
		{
			name:     "canvas and figures",
			input:    `<figure><canvas width="300" height="150"></canvas><figcaption>Ventes</figcaption></figure>`,
			contains: []string{`<canvas width="300" height="150">`, "<figcaption>Ventes</figcaption>"},
		},
		{
			name:     "tables and quotes",
			input:    `<table><tr><th colspan="2">A</th></tr></table><blockquote>c</blockquote><pre><code>x</code></pre>`,
			contains: []string{`<th colspan="2">`, "<blockquote>", "<pre><code>"},
		},
		{
			name:     "safe colors only",
			input:    `<h2 style="color: #1B4D3E; position: fixed">T</h2>`,
			contains: []string{"color: #1B4D3E"},
			absent:   []string{"position"},
		},
		{
			name:   "javascript links",
			input:  `<a href="javascript:alert(1)">x</a>`,
			absent: []string{"javascript"},
		},
		{
			name:   "iframes are dropped by default",
			input:  `<iframe src="https://example.com"></iframe>`,
			absent: []string{"iframe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Sanitize(tt.input)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, out, a)
			}
		})
	}
}

func TestSanitizer_AllowIframes(t *testing.T) {
	s := New(entities.SanitizerConfig{Enabled: true, AllowIframes: true})

	assert.Contains(t, s.Sanitize(`<iframe src="https://example.com/embed"></iframe>`), `src="https://example.com/embed"`)
	assert.NotContains(t, s.Sanitize(`<iframe src="http://example.com"></iframe>`), "http://")
}
