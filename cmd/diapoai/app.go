package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sydologie/diapoai/internal/adapters/secondary/config"
	"github.com/sydologie/diapoai/internal/adapters/secondary/dom"
	"github.com/sydologie/diapoai/internal/adapters/secondary/logging"
	"github.com/sydologie/diapoai/internal/adapters/secondary/markdown"
	"github.com/sydologie/diapoai/internal/adapters/secondary/outline"
	"github.com/sydologie/diapoai/internal/adapters/secondary/sanitize"
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
	"github.com/sydologie/diapoai/internal/domain/services"
)

// app is what a command needs once its configuration is resolved
type app struct {
	config *entities.Config
	logger *logging.Logger
	clock  ports.Clock
}

// newApp resolves the configuration for a command working on inputPath.
// flags holds the command overrides keyed by flag name.
func newApp(cmd *cobra.Command, inputPath string, flags map[string]interface{}) (*app, error) {
	if flags == nil {
		flags = map[string]interface{}{}
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		flags["verbose"] = true
	}
	file, _ := cmd.Flags().GetString("config")

	workingDir := "."
	if inputPath != "" && inputPath != "-" {
		workingDir = filepath.Dir(inputPath)
	}

	cfgService := services.NewConfigService(config.NewTOMLLoader(), config.NewConfigMerger())
	cfg, err := cfgService.Resolve(cmd.Context(), ports.ConfigRequest{
		WorkingDir: workingDir,
		File:       file,
		Flags:      flags,
	})
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &app{
		config: cfg,
		logger: logger,
		clock:  ports.NewRealClock(),
	}, nil
}

// close flushes the logger
func (a *app) close() {
	_ = a.logger.Sync()
}

// deckService builds the deck pipeline over the named DOM backend
func (a *app) deckService(backend string) (*services.DeckService, ports.DOMParser, error) {
	parser, err := dom.NewParser(backend)
	if err != nil {
		return nil, nil, err
	}

	opts := []services.DeckOption{
		services.WithMarkdown(markdown.NewGoldmarkConverter()),
		services.WithMaxSlideNodes(a.config.Parser.GetMaxSlideNodes()),
	}
	if a.config.Sanitizer.Enabled {
		opts = append(opts, services.WithSanitizer(sanitize.New(a.config.Sanitizer)))
	}

	return services.NewDeckService(parser, a.logger.Named("deck"), opts...), parser, nil
}

// readInput reads the slides HTML and, when given, the outline file. The
// theme and transition come from the configuration.
func (a *app) readInput(ctx context.Context, htmlPath, outlinePath string) (ports.DeckInput, error) {
	html, err := readSlides(htmlPath)
	if err != nil {
		return ports.DeckInput{}, err
	}

	input := ports.DeckInput{
		HTML:       html,
		Theme:      a.config.Theme,
		Transition: a.config.Preview.GetTransition(),
	}

	if outlinePath != "" {
		o, err := outline.NewFileLoader().Load(ctx, outlinePath)
		if err != nil {
			return ports.DeckInput{}, err
		}
		input.Outline = o
	}

	return input, nil
}

// buildDeck reads the input files and runs them through the pipeline
func (a *app) buildDeck(ctx context.Context, backend, htmlPath, outlinePath string) (*entities.SlideDocument, error) {
	deckService, _, err := a.deckService(backend)
	if err != nil {
		return nil, err
	}
	input, err := a.readInput(ctx, htmlPath, outlinePath)
	if err != nil {
		return nil, err
	}
	if err := input.Outline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid outline: %w", err)
	}
	return deckService.Build(ctx, input)
}

// readSlides reads the slides file; "-" reads standard input
func readSlides(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading slides from stdin: %w", err)
		}
		return string(data), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("accessing slides file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("slides path is not a regular file: %s", path)
	}

	data, err := os.ReadFile(path) // #nosec G304 - path validated above
	if err != nil {
		return "", fmt.Errorf("reading slides file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("slides file is empty: %s", path)
	}
	return string(data), nil
}
