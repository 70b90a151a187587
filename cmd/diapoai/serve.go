package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	httpserver "github.com/sydologie/diapoai/internal/adapters/primary/http"
	"github.com/sydologie/diapoai/internal/adapters/secondary/browser"
	"github.com/sydologie/diapoai/internal/adapters/secondary/dom"
	"github.com/sydologie/diapoai/internal/adapters/secondary/export"
	"github.com/sydologie/diapoai/internal/adapters/secondary/outline"
	"github.com/sydologie/diapoai/internal/adapters/secondary/preview"
	"github.com/sydologie/diapoai/internal/adapters/secondary/watcher"
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
	"github.com/sydologie/diapoai/internal/domain/services"
)

var (
	// Serve command flags
	servePort       int
	serveHost       string
	serveOutline    string
	serveTransition string
	serveWatch      bool
	serveOpen       bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <slides.html>",
	Short: "Preview generated slides in the browser",
	Long: `Start a local server showing the slides in a live preview. The page is
driven over a websocket: edits made through the API or, with --watch, to the
input files are pushed to every open page.

Example:
  diapoai serve slides.html --outline outline.json
  diapoai serve slides.html --port 8080 --watch --open`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to serve on (overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().StringVar(&serveOutline, "outline", "", "Outline file (.json, .yaml) to structure the slides with")
	serveCmd.Flags().StringVar(&serveTransition, "transition", "", "Slide transition (overrides config)")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Reload the deck when the input files change")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the preview in a browser")
}

// validateServeConfig checks the settings the server cannot start without
func validateServeConfig(config *entities.Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Server.Port)
	}

	if config.Server.Host == "" || strings.ContainsAny(config.Server.Host, " !/") {
		return fmt.Errorf("invalid host: %q", config.Server.Host)
	}

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	slidesPath := args[0]
	ctx := cmd.Context()

	a, err := newApp(cmd, slidesPath, map[string]interface{}{
		"port":       servePort,
		"host":       serveHost,
		"transition": serveTransition,
	})
	if err != nil {
		return err
	}
	defer a.close()

	if err := validateServeConfig(a.config); err != nil {
		return err
	}

	input, err := a.readInput(ctx, slidesPath, serveOutline)
	if err != nil {
		return err
	}

	p, err := newPreviewServer(a)
	if err != nil {
		return err
	}

	// the pages stay connected until Stop, even after ctx is cancelled
	if err := p.server.Start(context.WithoutCancel(ctx), a.config.Server.Port, a.config.Server.Host); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	defer p.shutdown(a)

	deck, err := p.workspace.Load(ctx, input)
	if err != nil && deck == nil {
		return fmt.Errorf("loading slides: %w", err)
	}
	if err != nil {
		a.logger.Warn("Preview not ready: %v", err)
	}

	a.logger.Success("Preview of %d slides running at %s", deck.SlideCount(), p.server.URL())

	if serveWatch {
		reload := fileReloader(slidesPath, serveOutline)
		w := watcher.NewPollingWatcher(a.clock, a.config.Watcher.GetInterval(), a.config.Watcher.GetDebounce(), a.logger.Named("watcher"))
		live := services.NewLiveReloadService(w, p.workspace, reload, p.server, a.clock, a.logger.Named("reload"))

		paths := []string{slidesPath}
		if serveOutline != "" {
			paths = append(paths, serveOutline)
		}
		if err := live.Start(ctx, paths...); err != nil {
			return fmt.Errorf("watching input files: %w", err)
		}
		defer func() { _ = live.Stop() }()
		a.logger.Info("Watching %s for changes", strings.Join(paths, ", "))
	}

	if serveOpen {
		if err := browser.NewLauncher().Open(p.server.URL()); err != nil {
			a.logger.Warn("Failed to open browser: %v", err)
		}
	}

	<-ctx.Done()
	a.logger.Info("Shutting down server...")
	return nil
}

// previewServer is the server with everything the preview page uses wired in
type previewServer struct {
	server    *httpserver.Server
	workspace *services.Workspace
}

func newPreviewServer(a *app) (*previewServer, error) {
	deckService, parser, err := a.deckService(a.config.Parser.PreviewBackend)
	if err != nil {
		return nil, err
	}

	server := httpserver.NewServer(a.config.Server, a.clock, a.logger.Named("http"))

	client := ports.NewRealHTTPClient(ports.HTTPClientConfig{
		Timeout:    a.config.Generation.GetTimeout(),
		MaxRetries: 1,
		RetryDelay: 500 * time.Millisecond,
		UserAgent:  "diapoai/" + Version,
	})
	base := a.config.Preview.GetAssetBaseURL()
	assets := preview.NewHTTPAssetLoader(client)
	server.SetAssets(assets, base)

	renderer := preview.NewRenderer(server.Engine(), assets, parser, a.clock, a.logger.Named("preview"), preview.Options{
		Engine:      ports.EngineConfigFrom(a.config.Preview),
		Assets:      preview.AssetURLs(base),
		MaxAttempts: a.config.Preview.GetMaxInitRetries(),
		RetryBase:   a.config.Preview.GetRetryBase(),
	})
	server.SetPreview(renderer)

	workspace := services.NewWorkspace(deckService, renderer, a.logger.Named("workspace"))
	server.SetWorkspace(workspace)

	// exports walk the deck markup again with their own backend
	exportParser, err := dom.NewParser(a.config.Parser.ExportBackend)
	if err != nil {
		return nil, err
	}
	server.SetExportService(export.NewService(export.ServiceConfig{
		Export:  a.config.Export,
		Preview: a.config.Preview,
		Clock:   a.clock,
		Parser:  exportParser,
	}, a.logger.Named("export")))

	return &previewServer{server: server, workspace: workspace}, nil
}

// shutdown tears the preview down before closing the page connections
func (p *previewServer) shutdown(a *app) {
	p.workspace.Close()

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetShutdownTimeout())
	defer cancel()
	if err := p.server.Stop(ctx); err != nil {
		a.logger.Error("Error during shutdown: %v", err)
	}
}

// fileReloader re-reads the input files. The palette and transition chosen
// in the browser are kept.
func fileReloader(slidesPath, outlinePath string) services.ReloadFunc {
	loader := outline.NewFileLoader()
	return func(ctx context.Context, current ports.DeckInput) (ports.DeckInput, error) {
		html, err := readSlides(slidesPath)
		if err != nil {
			return current, err
		}
		next := current
		next.HTML = html

		if outlinePath != "" {
			o, err := loader.Load(ctx, outlinePath)
			if err != nil {
				return current, err
			}
			next.Outline = o
		}
		return next, nil
	}
}
