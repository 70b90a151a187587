package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

func TestConfigMerger_Merge(t *testing.T) {
	merger := NewConfigMerger()

	t.Run("no configs returns defaults", func(t *testing.T) {
		result := merger.Merge()
		assert.Equal(t, GetDefaultConfig(), result)
	})

	t.Run("later configs win for set fields", func(t *testing.T) {
		base := GetDefaultConfig()
		override := &entities.Config{
			Server:  entities.ServerConfig{Host: "0.0.0.0"},
			Theme:   entities.ColorTheme{Primary: "#000000"},
			Preview: entities.PreviewConfig{Transition: "zoom"},
			Defined: map[string]bool{"server.host": true},
		}

		result := merger.Merge(base, override)

		assert.Equal(t, "0.0.0.0", result.Server.Host)
		assert.Equal(t, DefaultPort, result.Server.Port)
		assert.Equal(t, "#000000", result.Theme.Primary)
		assert.Equal(t, entities.DefaultTextColor, result.Theme.Text)
		assert.Equal(t, "zoom", result.Preview.Transition)
		assert.True(t, result.Preview.Controls, "undefined booleans keep the base value")
		assert.True(t, result.Sanitizer.Enabled)
	})

	t.Run("defined booleans override", func(t *testing.T) {
		override := &entities.Config{
			Defined: map[string]bool{"preview.controls": true, "sanitizer.enabled": true},
		}

		result := merger.Merge(GetDefaultConfig(), override)

		assert.False(t, result.Preview.Controls)
		assert.False(t, result.Sanitizer.Enabled)
		assert.True(t, result.Preview.Progress)
	})

	t.Run("nil configs are skipped", func(t *testing.T) {
		result := merger.Merge(GetDefaultConfig(), nil)
		assert.Equal(t, GetDefaultConfig(), result)
	})

	t.Run("result does not alias inputs", func(t *testing.T) {
		base := GetDefaultConfig()
		result := merger.Merge(base)
		result.Server.CORSOrigins[0] = "changed"

		assert.NotEqual(t, "changed", base.Server.CORSOrigins[0])
	})
}

func TestConfigMerger_ApplyFlags(t *testing.T) {
	merger := NewConfigMerger()
	base := GetDefaultConfig()

	result := merger.ApplyFlags(base, map[string]interface{}{
		"port":        9000,
		"host":        "127.0.0.1",
		"transition":  "fade",
		"backend":     "xml",
		"output-dir":  "/tmp/out",
		"no-sanitize": true,
		"verbose":     true,
		"primary":     "#abcdef",
		"status-url":  "http://localhost:5000/status",
		"text":        "",
	})

	assert.Equal(t, 9000, result.Server.Port)
	assert.Equal(t, "127.0.0.1", result.Server.Host)
	assert.Equal(t, "fade", result.Preview.Transition)
	assert.Equal(t, "xml", result.Parser.PreviewBackend)
	assert.Equal(t, "xml", result.Parser.ExportBackend)
	assert.Equal(t, "/tmp/out", result.Export.OutputDir)
	assert.False(t, result.Sanitizer.Enabled)
	assert.Equal(t, "debug", result.Logging.Level)
	assert.Equal(t, "#abcdef", result.Theme.Primary)
	assert.Equal(t, entities.DefaultTextColor, result.Theme.Text)
	assert.Equal(t, "http://localhost:5000/status", result.Generation.StatusURL)

	assert.Equal(t, DefaultPort, base.Server.Port, "input is not mutated")

	unchanged := merger.ApplyFlags(base, map[string]interface{}{"port": 0, "no-sanitize": false})
	assert.Equal(t, base, unchanged)
}

func TestConfigMerger_ApplyEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		verify func(t *testing.T, c *entities.Config)
	}{
		{
			name: "server",
			env:  map[string]string{"DIAPOAI_HOST": "0.0.0.0", "DIAPOAI_PORT": "7000", "DIAPOAI_CORS_ORIGINS": "http://a.test, ,http://b.test"},
			verify: func(t *testing.T, c *entities.Config) {
				assert.Equal(t, "0.0.0.0", c.Server.Host)
				assert.Equal(t, 7000, c.Server.Port)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Server.CORSOrigins)
			},
		},
		{
			name: "invalid numbers are ignored",
			env:  map[string]string{"DIAPOAI_PORT": "abc", "DIAPOAI_WATCH_INTERVAL": "-5"},
			verify: func(t *testing.T, c *entities.Config) {
				assert.Equal(t, DefaultPort, c.Server.Port)
				assert.Equal(t, 200, c.Watcher.IntervalMs)
			},
		},
		{
			name: "theme and preview",
			env:  map[string]string{"DIAPOAI_THEME_SECONDARY": "#010203", "DIAPOAI_TRANSITION": "none", "DIAPOAI_PARSER_BACKEND": "html"},
			verify: func(t *testing.T, c *entities.Config) {
				assert.Equal(t, "#010203", c.Theme.Secondary)
				assert.Equal(t, "none", c.Preview.Transition)
				assert.Equal(t, "html", c.Parser.ExportBackend)
			},
		},
		{
			name: "logging and sanitizer",
			env:  map[string]string{"DIAPOAI_LOG_LEVEL": "warn", "DIAPOAI_LOG_JSON": "true", "DIAPOAI_SANITIZE": "false"},
			verify: func(t *testing.T, c *entities.Config) {
				assert.Equal(t, "warn", c.Logging.Level)
				assert.True(t, c.Logging.JSONFormat)
				assert.False(t, c.Sanitizer.Enabled)
			},
		},
		{
			name: "generation and export",
			env:  map[string]string{"DIAPOAI_GENERATION_URL": "https://api.test/jobs", "DIAPOAI_POLL_INTERVAL": "500", "DIAPOAI_EXPORT_CONCURRENCY": "2"},
			verify: func(t *testing.T, c *entities.Config) {
				assert.Equal(t, "https://api.test/jobs", c.Generation.StatusURL)
				assert.Equal(t, 500, c.Generation.PollIntervalMs)
				assert.Equal(t, 2, c.Export.Concurrency)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			result := NewConfigMerger().ApplyEnvVars(GetDefaultConfig())
			require.NotNil(t, result)
			tt.verify(t, result)
		})
	}
}

func TestDefaults_AreValid(t *testing.T) {
	assert.NoError(t, GetDefaultConfig().Validate())
}
