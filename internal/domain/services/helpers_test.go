package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/sydologie/diapoai/internal/adapters/secondary/dom/htmldom"
	"github.com/sydologie/diapoai/internal/adapters/secondary/dom/xmldom"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// forEachBackend runs fn once per DOM backend
func forEachBackend(t *testing.T, fn func(t *testing.T, parser ports.DOMParser)) {
	t.Helper()
	for _, p := range []ports.DOMParser{htmldom.NewParser(), xmldom.NewParser()} {
		parser := p
		t.Run(parser.Name(), func(t *testing.T) {
			fn(t, parser)
		})
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *recordingLogger) Debug(string, ...interface{})   {}
func (l *recordingLogger) Info(string, ...interface{})    {}
func (l *recordingLogger) Success(string, ...interface{}) {}

func (l *recordingLogger) Warn(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(msg, args...))
}

func (l *recordingLogger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, fmt.Sprintf(msg, args...))
}

func elementsWithClass(root ports.Node, class string) []ports.Node {
	var out []ports.Node
	for _, el := range root.GetElementsByTagName("*") {
		if el.HasClass(class) {
			out = append(out, el)
		}
	}
	return out
}

func childTags(n ports.Node) []string {
	var out []string
	for _, c := range n.Children() {
		out = append(out, c.TagName())
	}
	return out
}

func ids(nodes []ports.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.GetAttribute("id"))
	}
	return out
}
