// Package outline reads approved outlines from disk.
package outline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// ErrUnsupportedFormat is returned for extensions other than .json, .yaml and .yml
var ErrUnsupportedFormat = errors.New("unsupported outline format")

// FileLoader implements ports.OutlineLoader
type FileLoader struct{}

// NewFileLoader creates an outline file loader
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load reads and validates the outline at path
func (l *FileLoader) Load(ctx context.Context, path string) (entities.Outline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is given by the user on the command line
	if err != nil {
		return nil, fmt.Errorf("reading outline %s: %w", path, err)
	}

	outline, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("decoding outline %s: %w", path, err)
	}

	return outline, nil
}

// Decode parses outline data by extension
func Decode(ext string, data []byte) (entities.Outline, error) {
	var outline entities.Outline

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &outline); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &outline); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	for i := range outline {
		if outline[i].Subsections == nil {
			outline[i].Subsections = []string{}
		}
	}

	if err := outline.Validate(); err != nil {
		return nil, err
	}

	return outline, nil
}

// Save writes outline as JSON (or YAML for .yaml/.yml paths)
func Save(path string, outline entities.Outline) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(outline)
	default:
		data, err = json.MarshalIndent(outline, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding outline: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing outline %s: %w", path, err)
	}
	return nil
}

var _ ports.OutlineLoader = (*FileLoader)(nil)
