// Package extract turns document files into plain text.
//
// A Dispatcher maps a lowercased file extension to a FormatExtractor. The
// dispatcher is the failure boundary: unsupported extensions, read errors,
// extractor errors and extractor panics all come back as a Result value,
// never as a panic or a returned error.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
)

// Extractor converts the raw bytes of one file into text.
// Implementations may return errors or even panic on malformed input; the
// Dispatcher contains both.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, data []byte) (string, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

// Status classifies the outcome of one extraction.
type Status int

const (
	// StatusOK means non-empty text was extracted.
	StatusOK Status = iota
	// StatusEmpty means the document parsed but holds no text.
	StatusEmpty
	// StatusUnsupported means no extractor is registered for the extension.
	StatusUnsupported
	// StatusFailed means the file could not be read or parsed.
	StatusFailed
	// StatusSkipped means the file exceeds the size limit and was not read.
	StatusSkipped
)

// String returns the status name used in logs and reports.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusUnsupported:
		return "unsupported"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the outcome of extracting one file.
type Result struct {
	Path     string
	Ext      string
	Text     string // Trimmed; empty unless Status is StatusOK
	Status   Status
	Err      error // *errors.SiftError describing a non-OK status
	Duration time.Duration
}

// Dispatcher routes files to extractors by extension.
type Dispatcher struct {
	extractors  map[string]Extractor
	maxFileSize int64
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExtractor registers (or replaces) the extractor for ext.
func WithExtractor(ext string, e Extractor) Option {
	return func(d *Dispatcher) {
		d.extractors[normalizeExt(ext)] = e
	}
}

// WithMaxFileSize skips files larger than n bytes. Zero disables the limit.
func WithMaxFileSize(n int64) Option {
	return func(d *Dispatcher) {
		d.maxFileSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// DefaultExtractors returns the built-in format registry.
func DefaultExtractors() map[string]Extractor {
	return map[string]Extractor{
		".pdf":  PDFExtractor{},
		".xlsx": XLSXExtractor{},
		".xls":  XLSExtractor{},
		".docx": DOCXExtractor{},
		".doc":  DOCExtractor{},
		".rtf":  RTFExtractor{},
		".txt":  TextExtractor{},
	}
}

// NewDispatcher creates a Dispatcher with the default registry.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		extractors: DefaultExtractors(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Supports reports whether ext (any case, with or without dot) has an extractor.
func (d *Dispatcher) Supports(ext string) bool {
	_, ok := d.extractors[normalizeExt(ext)]
	return ok
}

// Extensions returns the supported extensions, sorted.
func (d *Dispatcher) Extensions() []string {
	exts := make([]string, 0, len(d.extractors))
	for ext := range d.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads path and runs the extractor registered for its extension.
func (d *Dispatcher) Extract(ctx context.Context, path string) Result {
	start := time.Now()
	ext := normalizeExt(filepath.Ext(path))
	res := Result{Path: path, Ext: ext}

	extractor, ok := d.extractors[ext]
	if !ok {
		res.Status = StatusUnsupported
		res.Err = siftErrors.UnsupportedFormatError(path, ext)
		d.logger.Debug("extract_unsupported",
			slog.String("path", path),
			slog.String("ext", ext))
		return res
	}

	data, status, err := d.read(path)
	if err != nil {
		res.Status = status
		res.Err = err
		d.logger.Warn("extract_read_failed", append([]any{slog.String("path", path)}, siftErrors.LogAttrs(err)...)...)
		return res
	}

	text, err := d.run(ctx, extractor, data)
	res.Duration = time.Since(start)
	if err != nil {
		res.Status = StatusFailed
		res.Err = siftErrors.ExtractionError(path, err)
		d.logger.Warn("extract_failed",
			slog.String("path", path),
			slog.String("ext", ext),
			slog.String("error", err.Error()))
		return res
	}

	res.Text = strings.TrimSpace(text)
	if res.Text == "" {
		res.Status = StatusEmpty
		d.logger.Debug("extract_empty", slog.String("path", path))
		return res
	}

	res.Status = StatusOK
	d.logger.Debug("extract_ok",
		slog.String("path", path),
		slog.Int("chars", len(res.Text)),
		slog.Duration("duration", res.Duration))
	return res
}

// run invokes the extractor, converting a panic into an error.
func (d *Dispatcher) run(ctx context.Context, e Extractor, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("extract_panic_stack", slog.String("stack", string(debug.Stack())))
			text, err = "", fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return e.Extract(ctx, data)
}

func (d *Dispatcher) read(path string) ([]byte, Status, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, StatusFailed, statError(path, err)
	}
	if d.maxFileSize > 0 && info.Size() > d.maxFileSize {
		return nil, StatusSkipped, siftErrors.New(siftErrors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s is %d bytes, limit %d", path, info.Size(), d.maxFileSize), nil).
			WithDetail("path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, StatusFailed, statError(path, err)
	}
	return data, StatusOK, nil
}

func statError(path string, err error) error {
	code := siftErrors.ErrCodeExtractionFailed
	switch {
	case os.IsNotExist(err):
		code = siftErrors.ErrCodeFileNotFound
	case os.IsPermission(err):
		code = siftErrors.ErrCodeFilePermission
	}
	return siftErrors.New(code, fmt.Sprintf("read %s", path), err).WithDetail("path", path)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
