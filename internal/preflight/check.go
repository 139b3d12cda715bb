package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/docsift/internal/config"
	"github.com/Aman-CERP/docsift/internal/store"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the status as its string form.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose bool
	output  io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints result details.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check against a resolved configuration.
func (c *Checker) RunAll(ctx context.Context, cfg *config.Config) []CheckResult {
	results := []CheckResult{c.CheckRoot(cfg.Root)}

	writable := c.CheckWritePermissions(cfg.DataDir)
	results = append(results, writable)
	if writable.Status == StatusPass {
		results = append(results, c.CheckDiskSpace(cfg.DataDir))
	}

	results = append(results, c.CheckFileDescriptors())
	results = append(results, c.CheckStore(ctx, cfg.Store.Backend, cfg.DataDir))
	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns "ready", "ready_with_warnings" or "failed".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status == StatusWarn || r.Status == StatusFail {
			hasWarnings = true
		}
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "docsift system check")
	_, _ = fmt.Fprintln(c.output, "====================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	var warnings, failures []string
	for _, r := range results {
		switch {
		case r.IsCritical():
			failures = append(failures, r.Name+": "+r.Message)
		case r.Status != StatusPass:
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}
	printList(c.output, "error(s)", failures)
	printList(c.output, "warning(s)", warnings)
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%d %s:\n", len(items), label)
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "  - %s\n", item)
	}
}

// CheckRoot checks that the document root is a readable directory.
func (c *Checker) CheckRoot(root string) CheckResult {
	result := CheckResult{Name: "document_root", Required: true}

	entries, err := os.ReadDir(root)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot read %s: %v", root, err)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s (%d entries)", root, len(entries))
	return result
}

// CheckWritePermissions creates the data directory if needed and writes a
// scratch file into it.
func (c *Checker) CheckWritePermissions(dataDir string) CheckResult {
	result := CheckResult{Name: "data_dir_writable", Required: true}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create %s: %v", dataDir, err)
		return result
	}

	scratch := filepath.Join(dataDir, ".preflight-write")
	f, err := os.Create(scratch)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(scratch)

	result.Status = StatusPass
	result.Message = dataDir
	return result
}

// CheckStore opens the configured backend and counts its documents. A
// backend held open by a running watcher or server is reported as a
// warning.
func (c *Checker) CheckStore(ctx context.Context, backend, dataDir string) CheckResult {
	result := CheckResult{Name: "store", Required: true}

	st, err := store.Open(backend, dataDir)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s: %v", backend, err)
		result.Details = "another docsift process may hold the store open; stop it and retry"
		if b := store.Backend(backend); b == store.BackendBadger || b == store.BackendBleve {
			result.Status = StatusWarn
		}
		return result
	}
	defer func() { _ = st.Close() }()

	n, err := st.Count(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s: %v", backend, err)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s, %d documents", backend, n)
	result.Details = store.Path(dataDir, backend)
	return result
}
