package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Aman-CERP/docsift/internal/ui"
)

// ReportFileName holds the last completed report inside the data directory.
const ReportFileName = "last_report.json"

// Outcome records why one file did not produce an indexed document.
type Outcome struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Code   string `json:"code,omitempty"`
}

// Report is the structured result of one reindex run.
type Report struct {
	Indexed     int           `json:"indexed"`
	Scanned     int           `json:"scanned"`
	Empty       []Outcome     `json:"empty"`
	Failed      []Outcome     `json:"failed"`
	Unsupported []Outcome     `json:"unsupported"`
	Skipped     []Outcome     `json:"skipped"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Backend     string        `json:"backend,omitempty"`

	scanTime time.Duration
}

func newReport(start time.Time, backend string) *Report {
	return &Report{
		Empty:       []Outcome{},
		Failed:      []Outcome{},
		Unsupported: []Outcome{},
		Skipped:     []Outcome{},
		StartedAt:   start,
		Backend:     backend,
	}
}

// Count is the number of files successfully indexed.
func (r *Report) Count() int {
	return r.Indexed
}

// Message is the one-line result shown to users.
func (r *Report) Message() string {
	return fmt.Sprintf("Indexed %d files", r.Indexed)
}

// Summary converts the report for status display.
func (r *Report) Summary() *ui.RunSummary {
	return &ui.RunSummary{
		StartedAt:   r.StartedAt,
		Duration:    r.Duration,
		Indexed:     r.Indexed,
		Scanned:     r.Scanned,
		Empty:       len(r.Empty),
		Failed:      len(r.Failed),
		Unsupported: len(r.Unsupported),
		Skipped:     len(r.Skipped),
	}
}

// CompletionStats converts the report for the progress renderer.
func (r *Report) CompletionStats() ui.CompletionStats {
	return ui.CompletionStats{
		Indexed:     r.Indexed,
		Scanned:     r.Scanned,
		Empty:       len(r.Empty),
		Failed:      len(r.Failed),
		Unsupported: len(r.Unsupported),
		Skipped:     len(r.Skipped),
		Duration:    r.Duration,
		Stages:      ui.StageTimings{Scan: r.scanTime, Extract: r.Duration - r.scanTime},
		Backend:     r.Backend,
	}
}

func (r *Report) sortOutcomes() {
	for _, list := range [][]Outcome{r.Empty, r.Failed, r.Unsupported, r.Skipped} {
		sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	}
}

// saveReport writes the report atomically to <dataDir>/last_report.json.
func saveReport(dataDir string, r *Report) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dataDir, ReportFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return os.Rename(tmp, path)
}

// loadReport reads the last saved report. A missing file returns nil, nil.
func loadReport(dataDir string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, ReportFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
