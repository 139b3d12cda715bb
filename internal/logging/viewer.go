package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// followInterval is how often Follow polls the file for new lines.
const followInterval = 100 * time.Millisecond

// maxLineSize bounds a single log line.
const maxLineSize = 1024 * 1024

// Entry is one parsed JSON log line.
type Entry struct {
	Time  time.Time
	Level string
	Msg   string
	Attrs map[string]any
	Raw   string
	// Valid is false when the line is not JSON; Raw is then printed as-is.
	Valid bool
}

// ViewerConfig filters and styles viewer output.
type ViewerConfig struct {
	Level   string
	Pattern *regexp.Regexp
	NoColor bool
}

// Viewer reads and formats docsift log files.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
	levels map[string]lipgloss.Style
}

// NewViewer creates a viewer writing to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{
		config: cfg,
		out:    out,
		levels: map[string]lipgloss.Style{
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		},
	}
}

// Tail returns the entries among the last n lines of path that pass the
// filters.
func (v *Viewer) Tail(path string, n int) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if n <= 0 {
		return nil, nil
	}

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []Entry
	for _, line := range ring {
		if e := ParseLine(line); v.matches(e) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Follow sends entries appended to path after the call until ctx is done.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- Entry) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()

	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			chunk, err := reader.ReadString('\n')
			partial += chunk
			if err != nil {
				break
			}
			line := strings.TrimSuffix(partial, "\n")
			partial = ""
			if line == "" {
				continue
			}
			if e := ParseLine(line); v.matches(e) {
				select {
				case entries <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// Print writes entries, one per line.
func (v *Viewer) Print(entries []Entry) {
	for _, e := range entries {
		_, _ = fmt.Fprintln(v.out, v.Format(e))
	}
}

// Format renders an entry as "15:04:05.000 LEVEL msg key=value ...".
// Attributes are sorted by key.
func (v *Viewer) Format(e Entry) string {
	if !e.Valid {
		return e.Raw
	}

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(e.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(v.formatLevel(e.Level))
	b.WriteByte(' ')
	b.WriteString(e.Msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
	}
	return b.String()
}

func (v *Viewer) formatLevel(level string) string {
	label := strings.ToUpper(level)
	if len(label) > 5 {
		label = label[:5]
	}
	padded := fmt.Sprintf("%-5s", label)
	if v.config.NoColor {
		return padded
	}
	if style, ok := v.levels[label]; ok {
		return style.Render(padded)
	}
	return padded
}

func (v *Viewer) matches(e Entry) bool {
	if v.config.Level != "" && LevelFromString(e.Level) < LevelFromString(v.config.Level) {
		return false
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(e.Raw) {
		return false
	}
	return true
}

// ParseLine decodes one slog JSON line. Lines that are not JSON come back
// with Valid unset.
func ParseLine(line string) Entry {
	e := Entry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return e
	}
	e.Valid = true

	if t, ok := data["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			e.Time = parsed
		}
	}
	e.Level, _ = data["level"].(string)
	e.Msg, _ = data["msg"].(string)

	e.Attrs = make(map[string]any, len(data))
	for k, val := range data {
		switch k {
		case "time", "level", "msg":
		default:
			e.Attrs[k] = val
		}
	}
	return e
}
