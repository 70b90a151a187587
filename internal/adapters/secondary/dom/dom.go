// Package dom selects a DOM backend by name. Callers hold a ports.DOMParser
// and never branch on which backend is active.
package dom

import (
	"fmt"
	"strings"

	"github.com/sydologie/diapoai/internal/adapters/secondary/dom/htmldom"
	"github.com/sydologie/diapoai/internal/adapters/secondary/dom/xmldom"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// Backends lists the accepted backend names
var Backends = []string{htmldom.Name, xmldom.Name}

// NewParser returns the backend registered under name
func NewParser(name string) (ports.DOMParser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case htmldom.Name, "":
		return htmldom.NewParser(), nil
	case xmldom.Name:
		return xmldom.NewParser(), nil
	default:
		return nil, fmt.Errorf("unknown DOM backend %q (must be one of %s)", name, strings.Join(Backends, ", "))
	}
}

// MustParser is NewParser for names already validated by the config layer
func MustParser(name string) ports.DOMParser {
	p, err := NewParser(name)
	if err != nil {
		return htmldom.NewParser()
	}
	return p
}
