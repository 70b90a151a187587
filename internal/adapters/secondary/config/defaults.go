package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "DIAPOAI_"

// DefaultPort is the preview server port
const DefaultPort = 4300

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *entities.Config {
	return &entities.Config{
		Server: entities.ServerConfig{
			Host:            "localhost",
			Port:            DefaultPort,
			ReadTimeout:     30,
			WriteTimeout:    30,
			ShutdownTimeout: 5,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
				"http://localhost:8080",
				"http://127.0.0.1:8080",
			},
		},
		Theme: entities.DefaultColorTheme(),
		Preview: entities.PreviewConfig{
			Transition:     "slide",
			Controls:       true,
			Progress:       true,
			Center:         true,
			Hash:           true,
			MaxInitRetries: 5,
			RetryBaseMs:    300,
			AssetBaseURL:   "https://cdn.jsdelivr.net/npm/reveal.js@4.6.1",
		},
		Parser: entities.ParserConfig{
			PreviewBackend: "html",
			ExportBackend:  "xml",
			MaxSlideNodes:  10,
		},
		Export: entities.ExportConfig{
			OutputDir:   ".",
			MaxRetries:  3,
			RetryDelay:  1000,
			Concurrency: 4,
			ImageWidth:  1280,
			ImageHeight: 720,
		},
		Generation: entities.GenerationConfig{
			PollIntervalMs: 2000,
			TimeoutSeconds: 10,
		},
		Watcher: entities.WatcherConfig{
			IntervalMs:   200,
			DebounceMs:   500,
			MaxRetries:   3,
			RetryDelayMs: 100,
		},
		Sanitizer: entities.SanitizerConfig{
			Enabled: true,
		},
		Logging: entities.LoggingConfig{
			Level: "info",
		},
	}
}

func env(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func envInt(key string) (int, bool) {
	if v := env(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i, true
		}
	}
	return 0, false
}

func envBool(key string) (bool, bool) {
	if v := env(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b, true
		}
	}
	return false, false
}

// envSlice splits a comma separated variable
func envSlice(key string) []string {
	v := env(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
