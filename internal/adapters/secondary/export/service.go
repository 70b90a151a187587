package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
	"github.com/sydologie/diapoai/internal/domain/services"
)

// ExportFormat represents different export formats
type ExportFormat string

const (
	FormatHTML   ExportFormat = "html"
	FormatPPTX   ExportFormat = "pptx"
	FormatPDF    ExportFormat = "pdf"
	FormatImages ExportFormat = "images"
)

// ExportOptions contains configuration for export operations
type ExportOptions struct {
	Format ExportFormat `json:"format"`
	// OutputPath defaults to the renderer's file name in the output directory
	OutputPath string `json:"output_path,omitempty"`
	Title      string `json:"title,omitempty"`
	Quality    string `json:"quality,omitempty"` // low, medium, high
}

// ExportResult contains the results of an export operation
type ExportResult struct {
	Success     bool      `json:"success"`
	OperationID string    `json:"operation_id"`
	Format      string    `json:"format"`
	OutputPath  string    `json:"output_path,omitempty"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	FileSize    int64     `json:"file_size"`
	Duration    string    `json:"duration"`
	PageCount   int       `json:"page_count,omitempty"`
	Files       []string  `json:"files,omitempty"`
	RetryCount  int       `json:"retry_count,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorCode   string    `json:"error_code,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ExportErrorType categorizes different types of export errors
type ExportErrorType string

const (
	ErrorTypeValidation    ExportErrorType = "validation"
	ErrorTypeRenderer      ExportErrorType = "renderer"
	ErrorTypeFilesystem    ExportErrorType = "filesystem"
	ErrorTypeTimeout       ExportErrorType = "timeout"
	ErrorTypeMemory        ExportErrorType = "memory"
	ErrorTypeConfiguration ExportErrorType = "configuration"
	ErrorTypeCancelled     ExportErrorType = "cancelled"
)

// ExportError provides detailed error information with categorization
type ExportError struct {
	Type      ExportErrorType `json:"type"`
	Message   string          `json:"message"`
	Details   string          `json:"details,omitempty"`
	Code      string          `json:"code,omitempty"`
	Retryable bool            `json:"retryable"`
	Cause     error           `json:"-"`
}

func (e *ExportError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s error: %s - %s", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// RetryConfig defines retry behavior for export operations
type RetryConfig struct {
	MaxRetries      int               `json:"max_retries"`
	InitialDelay    time.Duration     `json:"initial_delay"`
	MaxDelay        time.Duration     `json:"max_delay"`
	BackoffFactor   float64           `json:"backoff_factor"`
	RetryableErrors []ExportErrorType `json:"retryable_errors"`
}

// lockTimeout bounds the wait for a concurrent export of the same file
const lockTimeout = 2 * time.Second

// Renderer writes one deck in one format
type Renderer interface {
	Render(ctx context.Context, deck *entities.SlideDocument, w io.Writer, options *ExportOptions) (*ExportResult, error)
	Supports(format ExportFormat) bool
	GetMimeType() string
	DefaultFilename() string
}

// Service is the single entry point for exports. Failures are turned into
// an ExportResult carrying the user-facing message; no partial file is left.
type Service struct {
	renderers   map[ExportFormat]Renderer
	reader      ports.DOMParser
	outputDir   string
	retryConfig RetryConfig
	clock       ports.Clock
	logger      ports.Logger
}

// ServiceConfig wires the renderers from the application config
type ServiceConfig struct {
	Export  entities.ExportConfig
	Preview entities.PreviewConfig
	Clock   ports.Clock
	// Parser walks the normalized markup again before rendering. Without
	// one the slides of the deck are rendered as built.
	Parser ports.DOMParser
}

// NewService creates an export service with the html, pptx, pdf and images renderers
func NewService(cfg ServiceConfig, logger ports.Logger) *Service {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = ports.NewRealClock()
	}

	s := &Service{
		renderers: make(map[ExportFormat]Renderer),
		reader:    cfg.Parser,
		outputDir: cfg.Export.GetOutputDir(),
		retryConfig: RetryConfig{
			MaxRetries:    cfg.Export.GetMaxRetries(),
			InitialDelay:  cfg.Export.GetRetryDelay(),
			MaxDelay:      30 * time.Second,
			BackoffFactor: 2.0,
			RetryableErrors: []ExportErrorType{
				ErrorTypeTimeout,
				ErrorTypeMemory,
			},
		},
		clock:  clock,
		logger: logger,
	}

	s.RegisterRenderer(FormatHTML, NewHTMLRenderer(ports.EngineConfigFrom(cfg.Preview), cfg.Preview.GetAssetBaseURL()))
	s.RegisterRenderer(FormatPPTX, NewPPTXRenderer())
	s.RegisterRenderer(FormatPDF, NewPDFRenderer())
	width, height := cfg.Export.GetImageSize()
	s.RegisterRenderer(FormatImages, NewImageRenderer(width, height, cfg.Export.GetConcurrency()))

	return s
}

// RegisterRenderer registers a renderer for a specific format
func (s *Service) RegisterRenderer(format ExportFormat, renderer Renderer) {
	s.renderers[format] = renderer
}

// GetSupportedFormats returns the registered formats, sorted
func (s *Service) GetSupportedFormats() []ExportFormat {
	formats := make([]ExportFormat, 0, len(s.renderers))
	for format := range s.renderers {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Renderer returns the renderer registered for format
func (s *Service) Renderer(format ExportFormat) (Renderer, bool) {
	r, ok := s.renderers[format]
	return r, ok
}

// SetRetryConfig updates the retry configuration
func (s *Service) SetRetryConfig(config RetryConfig) {
	s.retryConfig = config
}

// GetRetryConfig returns the current retry configuration
func (s *Service) GetRetryConfig() RetryConfig {
	return s.retryConfig
}

// Export renders deck to a file. The output is written to a temporary file
// next to the target and renamed into place once complete, under a file lock.
func (s *Service) Export(ctx context.Context, deck *entities.SlideDocument, options *ExportOptions) (*ExportResult, error) {
	start := s.clock.Now()
	opID := uuid.NewString()

	renderer, err := s.prepare(deck, options)
	if err != nil {
		return s.fail(opID, start, 0, err)
	}
	deck = s.reread(deck)

	outputPath := options.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(s.outputDir, renderer.DefaultFilename())
	}

	if err := ensureOutputDirectory(outputPath); err != nil {
		return s.fail(opID, start, 0, err)
	}

	lock := flock.New(outputPath + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	locked, err := lock.TryLockContext(lockCtx, 50*time.Millisecond)
	cancel()
	if err != nil || !locked {
		return s.fail(opID, start, 0, &ExportError{
			Type:    ErrorTypeFilesystem,
			Message: "output file is locked by another export",
			Details: outputPath,
			Code:    "OUTPUT_LOCKED",
			Cause:   err,
		})
	}
	// the lock file is left in place so every exporter locks the same inode
	defer func() { _ = lock.Unlock() }()

	result, retries, err := s.executeWithRetry(ctx, func() (*ExportResult, error) {
		return renderToFile(ctx, renderer, deck, options, outputPath)
	})
	if err != nil {
		return s.fail(opID, start, retries, err)
	}

	if info, statErr := os.Stat(outputPath); statErr == nil {
		result.FileSize = info.Size()
	}
	result.OutputPath = outputPath
	result.Filename = filepath.Base(outputPath)
	s.finish(result, renderer, opID, start, retries)

	s.logger.Success("Exported %d slides to %s (%s, %d bytes)", result.PageCount, outputPath, options.Format, result.FileSize)
	return result, nil
}

// Stream renders deck and copies it to w only once rendering succeeded
func (s *Service) Stream(ctx context.Context, deck *entities.SlideDocument, options *ExportOptions, w io.Writer) (*ExportResult, error) {
	start := s.clock.Now()
	opID := uuid.NewString()

	renderer, err := s.prepare(deck, options)
	if err != nil {
		return s.fail(opID, start, 0, err)
	}
	deck = s.reread(deck)

	var buf bytes.Buffer
	result, retries, err := s.executeWithRetry(ctx, func() (*ExportResult, error) {
		buf.Reset()
		return renderer.Render(ctx, deck, &buf, options)
	})
	if err != nil {
		return s.fail(opID, start, retries, err)
	}

	result.FileSize = int64(buf.Len())
	result.Filename = renderer.DefaultFilename()
	s.finish(result, renderer, opID, start, retries)

	if _, err := buf.WriteTo(w); err != nil {
		return result, fmt.Errorf("writing export: %w", err)
	}
	return result, nil
}

func (s *Service) prepare(deck *entities.SlideDocument, options *ExportOptions) (Renderer, error) {
	if err := validateOptions(options); err != nil {
		return nil, err
	}

	if deck.IsEmpty() {
		return nil, &ExportError{
			Type:    ErrorTypeValidation,
			Message: "deck has no slides",
			Code:    "EMPTY_DECK",
		}
	}

	renderer, exists := s.renderers[options.Format]
	if !exists || !renderer.Supports(options.Format) {
		return nil, &ExportError{
			Type:    ErrorTypeConfiguration,
			Message: "unsupported export format",
			Details: string(options.Format),
			Code:    "UNSUPPORTED_FORMAT",
		}
	}
	return renderer, nil
}

// reread rebuilds the slides from the deck markup with the export backend.
// A walk that disagrees on the slide count keeps the slides as built.
func (s *Service) reread(deck *entities.SlideDocument) *entities.SlideDocument {
	if s.reader == nil || strings.TrimSpace(deck.HTML) == "" {
		return deck
	}

	slides := services.SlidesFromHTML(s.reader, deck.HTML)
	if len(slides) != len(deck.Slides) {
		s.logger.Warn("%s backend found %d slides instead of %d, exporting the slides as built",
			s.reader.Name(), len(slides), len(deck.Slides))
		return deck
	}

	copied := *deck
	copied.Slides = slides
	return &copied
}

func (s *Service) finish(result *ExportResult, renderer Renderer, opID string, start time.Time, retries int) {
	end := s.clock.Now()
	result.Success = true
	result.OperationID = opID
	result.MimeType = renderer.GetMimeType()
	result.RetryCount = retries
	result.Duration = end.Sub(start).String()
	result.GeneratedAt = end
}

// fail builds the failed result shown to the user
func (s *Service) fail(opID string, start time.Time, retries int, err error) (*ExportResult, error) {
	exportErr := categorizeError(err)
	end := s.clock.Now()

	s.logger.Error("Export %s failed: %v", opID, exportErr)

	return &ExportResult{
		Success:     false,
		OperationID: opID,
		Error:       exportErr.Error(),
		ErrorCode:   exportErr.Code,
		RetryCount:  retries,
		Duration:    end.Sub(start).String(),
		GeneratedAt: end,
	}, exportErr
}

func validateOptions(options *ExportOptions) error {
	if options == nil {
		return &ExportError{
			Type:    ErrorTypeValidation,
			Message: "export options cannot be nil",
			Code:    "NULL_OPTIONS",
		}
	}

	if options.Format == "" {
		return &ExportError{
			Type:    ErrorTypeValidation,
			Message: "export format is required",
			Code:    "MISSING_FORMAT",
		}
	}

	if options.Quality != "" {
		validQualities := map[string]bool{"low": true, "medium": true, "high": true}
		if !validQualities[options.Quality] {
			return &ExportError{
				Type:    ErrorTypeValidation,
				Message: "invalid quality setting",
				Details: options.Quality + " (must be low, medium, or high)",
				Code:    "INVALID_QUALITY",
			}
		}
	}

	if options.OutputPath != "" {
		if err := validateFilePath(options.OutputPath); err != nil {
			return &ExportError{
				Type:    ErrorTypeValidation,
				Message: "invalid output path",
				Details: err.Error(),
				Code:    "INVALID_OUTPUT_PATH",
			}
		}
	}

	return nil
}

// ensureOutputDirectory ensures the output directory exists
func ensureOutputDirectory(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return &ExportError{
			Type:    ErrorTypeFilesystem,
			Message: "failed to create output directory",
			Details: dir,
			Code:    "MKDIR_FAILED",
			Cause:   err,
		}
	}
	return nil
}

// renderToFile writes through a temporary sibling file so a failed render
// never leaves a truncated output behind
func renderToFile(ctx context.Context, renderer Renderer, deck *entities.SlideDocument, options *ExportOptions, outputPath string) (*ExportResult, error) {
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".diapoai-export-*")
	if err != nil {
		return nil, &ExportError{
			Type:    ErrorTypeFilesystem,
			Message: "failed to create temporary file",
			Details: filepath.Dir(outputPath),
			Code:    "TEMP_FILE_FAILED",
			Cause:   err,
		}
	}

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	result, err := renderer.Render(ctx, deck, tmp, options)
	if err != nil {
		return nil, err
	}

	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return nil, &ExportError{
			Type:    ErrorTypeFilesystem,
			Message: "failed to move output into place",
			Details: outputPath,
			Code:    "RENAME_FAILED",
			Cause:   err,
		}
	}
	committed = true

	return result, nil
}

// executeWithRetry executes the export with retry logic
func (s *Service) executeWithRetry(ctx context.Context, attempt func() (*ExportResult, error)) (*ExportResult, int, error) {
	var lastErr error
	retries := 0

	for i := 0; i <= s.retryConfig.MaxRetries; i++ {
		if i > 0 {
			if err := s.wait(ctx, s.calculateBackoffDelay(i)); err != nil {
				return nil, retries, &ExportError{
					Type:    ErrorTypeCancelled,
					Message: "export cancelled during retry",
					Code:    "CANCELLED",
					Cause:   err,
				}
			}
			retries = i
		}

		if err := ctx.Err(); err != nil {
			return nil, retries, err
		}

		result, err := attempt()
		if err == nil {
			return result, retries, nil
		}

		lastErr = err
		exportErr := categorizeError(err)
		if !s.isRetryableError(exportErr) {
			break
		}

		s.logger.Warn("Export attempt %d failed: %s (retrying)", i+1, exportErr.Message)
	}

	return nil, retries, categorizeError(lastErr)
}

func (s *Service) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	done := make(chan struct{})
	timer := s.clock.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}

// calculateBackoffDelay calculates the delay for exponential backoff
func (s *Service) calculateBackoffDelay(attempt int) time.Duration {
	delay := float64(s.retryConfig.InitialDelay) * math.Pow(s.retryConfig.BackoffFactor, float64(attempt-1))
	if delay > float64(s.retryConfig.MaxDelay) {
		delay = float64(s.retryConfig.MaxDelay)
	}
	return time.Duration(delay)
}

// isRetryableError checks if an error is retryable
func (s *Service) isRetryableError(exportErr *ExportError) bool {
	for _, retryableType := range s.retryConfig.RetryableErrors {
		if exportErr.Type == retryableType {
			return exportErr.Retryable
		}
	}
	return false
}

// categorizeError categorizes an error into an ExportError
func categorizeError(err error) *ExportError {
	if err == nil {
		return nil
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return exportErr
	}

	errMsg := err.Error()

	switch {
	case errors.Is(err, context.Canceled):
		return &ExportError{
			Type:    ErrorTypeCancelled,
			Message: "export cancelled",
			Code:    "CANCELLED",
			Cause:   err,
		}
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(errMsg, "timeout"):
		return &ExportError{
			Type:      ErrorTypeTimeout,
			Message:   "operation timed out",
			Details:   errMsg,
			Code:      "TIMEOUT",
			Retryable: true,
			Cause:     err,
		}
	case strings.Contains(errMsg, "out of memory"):
		return &ExportError{
			Type:      ErrorTypeMemory,
			Message:   "insufficient memory",
			Details:   errMsg,
			Code:      "OUT_OF_MEMORY",
			Retryable: true,
			Cause:     err,
		}
	case errors.Is(err, os.ErrPermission):
		return &ExportError{
			Type:    ErrorTypeFilesystem,
			Message: "file access denied",
			Details: errMsg,
			Code:    "ACCESS_DENIED",
			Cause:   err,
		}
	default:
		return &ExportError{
			Type:    ErrorTypeRenderer,
			Message: "renderer error",
			Details: errMsg,
			Code:    "RENDERER_ERROR",
			Cause:   err,
		}
	}
}

// ParseFormat maps a user supplied name to a format
func ParseFormat(name string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatHTML, FormatPPTX, FormatPDF, FormatImages:
		return f, nil
	case "png":
		return FormatImages, nil
	}
	return "", &ExportError{
		Type:    ErrorTypeValidation,
		Message: "unsupported export format",
		Details: name + " (must be html, pptx, pdf or images)",
		Code:    "UNSUPPORTED_FORMAT",
	}
}

// validateFilePath rejects empty paths and directory traversal
func validateFilePath(path string) error {
	if path == "" {
		return errors.New("empty path")
	}

	if strings.Contains(path, "..") {
		return errors.New("path contains directory traversal")
	}

	return nil
}
