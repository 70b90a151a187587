package config

import (
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// ConfigMerger implements ports.ConfigMerger
type ConfigMerger struct{}

// NewConfigMerger creates a new configuration merger
func NewConfigMerger() *ConfigMerger {
	return &ConfigMerger{}
}

// Merge merges configurations, later ones taking precedence
func (m *ConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	if len(configs) == 0 {
		return GetDefaultConfig()
	}

	result := deepCopy(configs[0])
	if result == nil {
		result = GetDefaultConfig()
	}

	for _, c := range configs[1:] {
		if c != nil {
			m.mergeInto(result, c)
		}
	}

	return result
}

// ApplyFlags applies CLI flag overrides
func (m *ConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	result := deepCopy(config)

	if port, ok := flags["port"].(int); ok && port > 0 {
		result.Server.Port = port
	}
	if host, ok := flags["host"].(string); ok && host != "" {
		result.Server.Host = host
	}
	if transition, ok := flags["transition"].(string); ok && transition != "" {
		result.Preview.Transition = transition
	}
	if backend, ok := flags["backend"].(string); ok && backend != "" {
		result.Parser.PreviewBackend = backend
		result.Parser.ExportBackend = backend
	}
	if dir, ok := flags["output-dir"].(string); ok && dir != "" {
		result.Export.OutputDir = dir
	}
	if noSanitize, ok := flags["no-sanitize"].(bool); ok && noSanitize {
		result.Sanitizer.Enabled = false
	}
	if verbose, ok := flags["verbose"].(bool); ok && verbose {
		result.Logging.Verbose = true
		result.Logging.Level = string(entities.LogLevelDebug)
	}
	if statusURL, ok := flags["status-url"].(string); ok && statusURL != "" {
		result.Generation.StatusURL = statusURL
	}

	colors := map[string]*string{
		"primary":    &result.Theme.Primary,
		"secondary":  &result.Theme.Secondary,
		"background": &result.Theme.Background,
		"text":       &result.Theme.Text,
	}
	for name, dst := range colors {
		if v, ok := flags[name].(string); ok && v != "" {
			*dst = v
		}
	}

	return result
}

// ApplyEnvVars applies DIAPOAI_* environment overrides
func (m *ConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	result := deepCopy(config)

	if host := env("HOST"); host != "" {
		result.Server.Host = host
	}
	if port, ok := envInt("PORT"); ok && port > 0 {
		result.Server.Port = port
	}
	if origins := envSlice("CORS_ORIGINS"); len(origins) > 0 {
		result.Server.CORSOrigins = origins
	}

	if v := env("THEME_PRIMARY"); v != "" {
		result.Theme.Primary = v
	}
	if v := env("THEME_SECONDARY"); v != "" {
		result.Theme.Secondary = v
	}
	if v := env("THEME_BACKGROUND"); v != "" {
		result.Theme.Background = v
	}
	if v := env("THEME_TEXT"); v != "" {
		result.Theme.Text = v
	}

	if transition := env("TRANSITION"); transition != "" {
		result.Preview.Transition = transition
	}
	if base := env("ASSET_BASE_URL"); base != "" {
		result.Preview.AssetBaseURL = base
	}

	if backend := env("PARSER_BACKEND"); backend != "" {
		result.Parser.PreviewBackend = backend
		result.Parser.ExportBackend = backend
	}

	if dir := env("EXPORT_DIR"); dir != "" {
		result.Export.OutputDir = dir
	}
	if n, ok := envInt("EXPORT_CONCURRENCY"); ok && n > 0 {
		result.Export.Concurrency = n
	}

	if statusURL := env("GENERATION_URL"); statusURL != "" {
		result.Generation.StatusURL = statusURL
	}
	if interval, ok := envInt("POLL_INTERVAL"); ok && interval > 0 {
		result.Generation.PollIntervalMs = interval
	}

	if interval, ok := envInt("WATCH_INTERVAL"); ok && interval > 0 {
		result.Watcher.IntervalMs = interval
	}
	if debounce, ok := envInt("WATCH_DEBOUNCE"); ok && debounce >= 0 {
		result.Watcher.DebounceMs = debounce
	}

	if enabled, ok := envBool("SANITIZE"); ok {
		result.Sanitizer.Enabled = enabled
	}

	if level := env("LOG_LEVEL"); level != "" {
		result.Logging.Level = level
	}
	if verbose, ok := envBool("LOG_VERBOSE"); ok {
		result.Logging.Verbose = verbose
	}
	if json, ok := envBool("LOG_JSON"); ok {
		result.Logging.JSONFormat = json
	}
	if file := env("LOG_FILE"); file != "" {
		result.Logging.File = file
	}

	return result
}

// mergeInto copies the fields source sets onto target. Zero strings and
// numbers count as unset; booleans are merged when the source file defined them.
func (m *ConfigMerger) mergeInto(target, source *entities.Config) {
	setString(&target.Server.Host, source.Server.Host)
	setInt(&target.Server.Port, source.Server.Port)
	setInt(&target.Server.ReadTimeout, source.Server.ReadTimeout)
	setInt(&target.Server.WriteTimeout, source.Server.WriteTimeout)
	setInt(&target.Server.ShutdownTimeout, source.Server.ShutdownTimeout)
	if len(source.Server.CORSOrigins) > 0 {
		target.Server.CORSOrigins = append([]string(nil), source.Server.CORSOrigins...)
	}

	setString(&target.Theme.Primary, source.Theme.Primary)
	setString(&target.Theme.Secondary, source.Theme.Secondary)
	setString(&target.Theme.Background, source.Theme.Background)
	setString(&target.Theme.Text, source.Theme.Text)

	setString(&target.Preview.Transition, source.Preview.Transition)
	setInt(&target.Preview.MaxInitRetries, source.Preview.MaxInitRetries)
	setInt(&target.Preview.RetryBaseMs, source.Preview.RetryBaseMs)
	setString(&target.Preview.AssetBaseURL, source.Preview.AssetBaseURL)
	setBool(&target.Preview.Controls, source.Preview.Controls, source, "preview.controls")
	setBool(&target.Preview.Progress, source.Preview.Progress, source, "preview.progress")
	setBool(&target.Preview.Center, source.Preview.Center, source, "preview.center")
	setBool(&target.Preview.Hash, source.Preview.Hash, source, "preview.hash")

	setString(&target.Parser.PreviewBackend, source.Parser.PreviewBackend)
	setString(&target.Parser.ExportBackend, source.Parser.ExportBackend)
	setInt(&target.Parser.MaxSlideNodes, source.Parser.MaxSlideNodes)

	setString(&target.Export.OutputDir, source.Export.OutputDir)
	setInt(&target.Export.MaxRetries, source.Export.MaxRetries)
	setInt(&target.Export.RetryDelay, source.Export.RetryDelay)
	setInt(&target.Export.Concurrency, source.Export.Concurrency)
	setInt(&target.Export.ImageWidth, source.Export.ImageWidth)
	setInt(&target.Export.ImageHeight, source.Export.ImageHeight)

	setString(&target.Generation.StatusURL, source.Generation.StatusURL)
	setInt(&target.Generation.PollIntervalMs, source.Generation.PollIntervalMs)
	setInt(&target.Generation.TimeoutSeconds, source.Generation.TimeoutSeconds)

	setInt(&target.Watcher.IntervalMs, source.Watcher.IntervalMs)
	setInt(&target.Watcher.DebounceMs, source.Watcher.DebounceMs)
	setInt(&target.Watcher.MaxRetries, source.Watcher.MaxRetries)
	setInt(&target.Watcher.RetryDelayMs, source.Watcher.RetryDelayMs)

	setBool(&target.Sanitizer.Enabled, source.Sanitizer.Enabled, source, "sanitizer.enabled")
	setBool(&target.Sanitizer.AllowIframes, source.Sanitizer.AllowIframes, source, "sanitizer.allow_iframes")

	setString(&target.Logging.Level, source.Logging.Level)
	setString(&target.Logging.File, source.Logging.File)
	setBool(&target.Logging.Verbose, source.Logging.Verbose, source, "logging.verbose")
	setBool(&target.Logging.JSONFormat, source.Logging.JSONFormat, source, "logging.json_format")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v bool, source *entities.Config, key string) {
	if source.IsDefined(key) {
		*dst = v
	}
}

// deepCopy copies a configuration; the merged result is never file-backed
func deepCopy(src *entities.Config) *entities.Config {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Defined = nil
	if src.Server.CORSOrigins != nil {
		dst.Server.CORSOrigins = append([]string(nil), src.Server.CORSOrigins...)
	}
	return &dst
}

var _ ports.ConfigMerger = (*ConfigMerger)(nil)
