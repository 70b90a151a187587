package entities

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Theme      ColorTheme       `toml:"theme"`
	Preview    PreviewConfig    `toml:"preview"`
	Parser     ParserConfig     `toml:"parser"`
	Export     ExportConfig     `toml:"export"`
	Generation GenerationConfig `toml:"generation"`
	Watcher    WatcherConfig    `toml:"watcher"`
	Sanitizer  SanitizerConfig  `toml:"sanitizer"`
	Logging    LoggingConfig    `toml:"logging"`

	// Defined holds the dotted keys present in the file this config was read
	// from. Nil means every field counts as set.
	Defined map[string]bool `toml:"-"`
}

// IsDefined reports whether key was set explicitly
func (c *Config) IsDefined(key string) bool {
	return c.Defined == nil || c.Defined[key]
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Theme.Validate(); err != nil {
		return fmt.Errorf("theme config: %w", err)
	}

	if err := c.Preview.Validate(); err != nil {
		return fmt.Errorf("preview config: %w", err)
	}

	if err := c.Parser.Validate(); err != nil {
		return fmt.Errorf("parser config: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := c.Generation.Validate(); err != nil {
		return fmt.Errorf("generation config: %w", err)
	}

	if err := c.Watcher.Validate(); err != nil {
		return fmt.Errorf("watcher config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	CORSOrigins     []string `toml:"cors_origins"`
}

// Validate validates server configuration
func (s ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	if s.Host != "" && s.Host != "localhost" {
		if ip := net.ParseIP(s.Host); ip == nil {
			return fmt.Errorf("invalid host: %s", s.Host)
		}
	}

	if s.ReadTimeout < 0 {
		return errors.New("read timeout must be non-negative")
	}

	if s.WriteTimeout < 0 {
		return errors.New("write timeout must be non-negative")
	}

	if s.ShutdownTimeout < 0 {
		return errors.New("shutdown timeout must be non-negative")
	}

	for _, origin := range s.CORSOrigins {
		if origin == "" {
			return errors.New("CORS origin cannot be empty")
		}
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid CORS origin format: %s (must start with http:// or https://)", origin)
		}
	}

	return nil
}

// GetReadTimeout returns the read timeout as a duration
func (s ServerConfig) GetReadTimeout() time.Duration {
	if s.ReadTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a duration
func (s ServerConfig) GetWriteTimeout() time.Duration {
	if s.WriteTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the shutdown timeout as a duration
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetCORSOrigins returns CORS origins with defaults if empty
func (s ServerConfig) GetCORSOrigins() []string {
	if len(s.CORSOrigins) == 0 {
		return []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:8080",
			"http://127.0.0.1:8080",
		}
	}
	return s.CORSOrigins
}

// Transition names accepted by the slide-show engine
var Transitions = []string{"none", "fade", "slide", "convex", "concave", "zoom"}

// PreviewConfig contains the live preview engine settings
type PreviewConfig struct {
	Transition     string `toml:"transition"`
	Controls       bool   `toml:"controls"`
	Progress       bool   `toml:"progress"`
	Center         bool   `toml:"center"`
	Hash           bool   `toml:"hash"`
	MaxInitRetries int    `toml:"max_init_retries"`
	RetryBaseMs    int    `toml:"retry_base_ms"`
	AssetBaseURL   string `toml:"asset_base_url"`
}

// Validate validates preview configuration
func (p PreviewConfig) Validate() error {
	if p.Transition != "" && !IsTransition(p.Transition) {
		return fmt.Errorf("unknown transition %q (must be one of %s)", p.Transition, strings.Join(Transitions, ", "))
	}

	if p.MaxInitRetries < 0 {
		return errors.New("max init retries must be non-negative")
	}

	if p.RetryBaseMs < 0 {
		return errors.New("retry base delay must be non-negative")
	}

	if p.AssetBaseURL != "" {
		u, err := url.Parse(p.AssetBaseURL)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("asset base URL must be absolute: %s", p.AssetBaseURL)
		}
	}

	return nil
}

// IsTransition reports whether name is a known transition
func IsTransition(name string) bool {
	for _, t := range Transitions {
		if t == name {
			return true
		}
	}
	return false
}

// GetTransition returns the transition with default
func (p PreviewConfig) GetTransition() string {
	if p.Transition == "" {
		return "slide"
	}
	return p.Transition
}

// GetMaxInitRetries returns the init attempt bound with default
func (p PreviewConfig) GetMaxInitRetries() int {
	if p.MaxInitRetries <= 0 {
		return 5
	}
	return p.MaxInitRetries
}

// GetRetryBase returns the base backoff delay
func (p PreviewConfig) GetRetryBase() time.Duration {
	if p.RetryBaseMs <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(p.RetryBaseMs) * time.Millisecond
}

// GetAssetBaseURL returns the slide-show engine CDN root
func (p PreviewConfig) GetAssetBaseURL() string {
	if p.AssetBaseURL == "" {
		return "https://cdn.jsdelivr.net/npm/reveal.js@4.6.1"
	}
	return strings.TrimRight(p.AssetBaseURL, "/")
}

// ParserConfig selects the DOM backends
type ParserConfig struct {
	PreviewBackend string `toml:"preview_backend"`
	ExportBackend  string `toml:"export_backend"`
	MaxSlideNodes  int    `toml:"max_slide_nodes"`
}

// Validate validates parser configuration
func (p ParserConfig) Validate() error {
	for _, b := range []string{p.PreviewBackend, p.ExportBackend} {
		switch b {
		case "", "html", "xml":
		default:
			return fmt.Errorf("unknown DOM backend %q (must be html or xml)", b)
		}
	}

	if p.MaxSlideNodes < 0 {
		return errors.New("max slide nodes must be non-negative")
	}

	return nil
}

// GetMaxSlideNodes returns the heading-walk slide bound with default
func (p ParserConfig) GetMaxSlideNodes() int {
	if p.MaxSlideNodes <= 0 {
		return 10
	}
	return p.MaxSlideNodes
}

// ExportConfig contains file export settings
type ExportConfig struct {
	OutputDir   string `toml:"output_dir"`
	MaxRetries  int    `toml:"max_retries"`
	RetryDelay  int    `toml:"retry_delay_ms"`
	Concurrency int    `toml:"concurrency"`
	ImageWidth  int    `toml:"image_width"`
	ImageHeight int    `toml:"image_height"`
}

// Validate validates export configuration
func (e ExportConfig) Validate() error {
	if e.MaxRetries < 0 {
		return errors.New("max retries must be non-negative")
	}

	if e.RetryDelay < 0 {
		return errors.New("retry delay must be non-negative")
	}

	if e.Concurrency < 0 {
		return errors.New("concurrency must be non-negative")
	}

	if e.ImageWidth < 0 || e.ImageHeight < 0 {
		return errors.New("image dimensions must be non-negative")
	}

	return nil
}

// GetOutputDir returns the output directory with default
func (e ExportConfig) GetOutputDir() string {
	if e.OutputDir == "" {
		return "."
	}
	return e.OutputDir
}

// GetMaxRetries returns the retry bound with default
func (e ExportConfig) GetMaxRetries() int {
	if e.MaxRetries <= 0 {
		return 3
	}
	return e.MaxRetries
}

// GetRetryDelay returns the base retry delay
func (e ExportConfig) GetRetryDelay() time.Duration {
	if e.RetryDelay <= 0 {
		return time.Second
	}
	return time.Duration(e.RetryDelay) * time.Millisecond
}

// GetConcurrency returns the thumbnail worker bound
func (e ExportConfig) GetConcurrency() int {
	if e.Concurrency <= 0 {
		return 4
	}
	return e.Concurrency
}

// GetImageSize returns the thumbnail dimensions
func (e ExportConfig) GetImageSize() (int, int) {
	w, h := e.ImageWidth, e.ImageHeight
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 720
	}
	return w, h
}

// GenerationConfig contains the AI generation job settings
type GenerationConfig struct {
	StatusURL      string `toml:"status_url"`
	PollIntervalMs int    `toml:"poll_interval_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Validate validates generation configuration
func (g GenerationConfig) Validate() error {
	if g.StatusURL != "" {
		if !strings.HasPrefix(g.StatusURL, "http://") && !strings.HasPrefix(g.StatusURL, "https://") {
			return fmt.Errorf("status URL must start with http:// or https://: %s", g.StatusURL)
		}
	}

	if g.PollIntervalMs < 0 {
		return errors.New("poll interval must be non-negative")
	}

	if g.TimeoutSeconds < 0 {
		return errors.New("timeout must be non-negative")
	}

	return nil
}

// GetPollInterval returns the poll interval with default
func (g GenerationConfig) GetPollInterval() time.Duration {
	if g.PollIntervalMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(g.PollIntervalMs) * time.Millisecond
}

// GetTimeout returns the HTTP timeout for one status request
func (g GenerationConfig) GetTimeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// WatcherConfig contains file watcher configuration
type WatcherConfig struct {
	IntervalMs   int `toml:"interval_ms"`
	DebounceMs   int `toml:"debounce_ms"`
	MaxRetries   int `toml:"max_retries"`
	RetryDelayMs int `toml:"retry_delay_ms"`
}

// Validate validates watcher configuration
func (w WatcherConfig) Validate() error {
	if w.IntervalMs != 0 && w.IntervalMs < 50 {
		return errors.New("watcher interval must be at least 50ms")
	}

	if w.DebounceMs < 0 {
		return errors.New("debounce time must be non-negative")
	}

	if w.MaxRetries < 0 {
		return errors.New("max retries must be non-negative")
	}

	if w.RetryDelayMs < 0 {
		return errors.New("retry delay must be non-negative")
	}

	return nil
}

// GetInterval returns the watcher interval as a duration
func (w WatcherConfig) GetInterval() time.Duration {
	if w.IntervalMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(w.IntervalMs) * time.Millisecond
}

// GetDebounce returns the debounce time as a duration
func (w WatcherConfig) GetDebounce() time.Duration {
	if w.DebounceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// GetRetryDelay returns the retry delay as a duration
func (w WatcherConfig) GetRetryDelay() time.Duration {
	if w.RetryDelayMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(w.RetryDelayMs) * time.Millisecond
}

// SanitizerConfig controls cleanup of untrusted HTML
type SanitizerConfig struct {
	Enabled      bool `toml:"enabled"`
	AllowIframes bool `toml:"allow_iframes"`
}

// LogLevel represents logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`       // debug, info, warn, error
	Verbose    bool   `toml:"verbose"`     // Enable verbose logging
	JSONFormat bool   `toml:"json_format"` // Output logs in JSON format
	File       string `toml:"file"`        // Log to file (optional)
}

// Validate validates logging configuration
func (l LoggingConfig) Validate() error {
	switch LogLevel(l.Level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l.Level)
	}

	if l.File != "" {
		if !filepath.IsAbs(l.File) {
			return errors.New("log file path must be absolute")
		}

		dir := filepath.Dir(l.File)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("log file directory does not exist: %s", dir)
		}
	}

	return nil
}

// GetLevel returns the log level with default
func (l LoggingConfig) GetLevel() LogLevel {
	if l.Level == "" {
		return LogLevelInfo
	}
	return LogLevel(l.Level)
}
