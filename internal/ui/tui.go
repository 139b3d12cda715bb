package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer provides a live terminal view using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *reindexModel
	tracker *ProgressTracker
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
// Returns an error when the output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	tracker := NewProgressTracker()
	model := newReindexModel(tracker, cfg.RootDir)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	_, r.cancel = context.WithCancel(ctx)

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	opts = append(opts, tea.WithContext(ctx))

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.tracker.Stats().Stage {
		r.tracker.SetStage(event.Stage, event.Total)
	}
	r.tracker.Update(event.Current, event.CurrentFile)

	if r.program != nil {
		r.program.Send(progressUpdateMsg(event))
	}
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.AddError(event)
	if r.program != nil {
		r.program.Send(errorMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.SetStage(StageComplete, 0)
	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer. It waits up to two seconds for the program to
// exit so an unresponsive terminal cannot hang the process.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	if r.program != nil {
		r.program.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	return nil
}

type progressUpdateMsg ProgressEvent
type errorMsg ErrorEvent
type completeMsg CompletionStats
type tickMsg time.Time

// reindexModel is the bubbletea model for reindex progress.
type reindexModel struct {
	tracker     *ProgressTracker
	width       int
	quitting    bool
	complete    bool
	stats       CompletionStats
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
	rootDir     string
}

func newReindexModel(tracker *ProgressTracker, rootDir string) *reindexModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	p := progress.New(
		progress.WithSolidFill(ColorAccent),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return &reindexModel{
		tracker:     tracker,
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		width:       80,
		rootDir:     rootDir,
	}
}

// Init implements tea.Model.
func (m *reindexModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *reindexModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(msg.Width-20, 20)

	case progressUpdateMsg, errorMsg:
		// State lives in the tracker; the next tick redraws.
		return m, nil

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *reindexModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	contentWidth := max(m.width-4, 40)
	stats := m.tracker.Stats()

	sections := []string{
		m.renderStages(stats.Stage),
		m.styles.Border.Render(strings.Repeat("\u2500", contentWidth)),
		m.renderProgress(stats),
	}
	if stats.CurrentFile != "" {
		sections = append(sections, m.styles.Dim.Render(truncateFilePath(stats.CurrentFile, contentWidth-2)))
	}

	title := "docsift"
	if m.rootDir != "" {
		title = "docsift \u2022 " + m.rootDir
	}
	panel := m.styles.Panel.Width(contentWidth).Render(strings.Join(sections, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, m.styles.Header.Render(title), panel) +
		"\n" + m.renderStatusBar(stats)
}

func (m *reindexModel) renderStages(current Stage) string {
	var parts []string
	for _, s := range []Stage{StageScanning, StageExtracting} {
		var icon string
		var style lipgloss.Style

		switch {
		case s < current:
			icon, style = "\u25cf", m.styles.Success
		case s == current:
			icon, style = m.spinner.View(), m.styles.Active
		default:
			icon, style = "\u25cb", m.styles.Dim
		}
		parts = append(parts, style.Render(icon+" "+s.String()))
	}
	return strings.Join(parts, m.styles.Dim.Render(" \u2192 "))
}

func (m *reindexModel) renderProgress(stats ProgressStats) string {
	if stats.Total == 0 {
		return fmt.Sprintf("%s %s...", m.spinner.View(), stats.Stage.String())
	}

	bar := m.progressBar.ViewAs(stats.Progress)
	pct := m.styles.Active.Render(fmt.Sprintf("%3.0f%%", stats.Progress*100))

	count := fmt.Sprintf("%d / %d files  \u2022  %.0f/s", stats.Current, stats.Total, stats.Rate)
	if stats.ETA > 0 {
		count += "  \u2022  ETA " + formatDuration(stats.ETA)
	}
	return fmt.Sprintf("%s  %s\n%s", bar, pct, m.styles.Label.Render(count))
}

func (m *reindexModel) renderStatusBar(stats ProgressStats) string {
	var parts []string
	if stats.WarnCount > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("\u26a0 %d warnings", stats.WarnCount)))
	}
	if stats.ErrorCount > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("\u2717 %d errors", stats.ErrorCount)))
	}
	parts = append(parts, m.styles.Dim.Render("q to quit"))
	return strings.Join(parts, m.styles.Dim.Render("  \u2502  "))
}

func (m *reindexModel) renderComplete() string {
	label := m.styles.Label.Render
	value := func(n int) string { return m.styles.Active.Render(fmt.Sprintf("%d", n)) }

	lines := []string{
		m.styles.Success.Render("\u2713 Reindex complete"),
		"",
		fmt.Sprintf("%s     %s", label("Indexed:"), value(m.stats.Indexed)),
		fmt.Sprintf("%s     %s", label("Scanned:"), value(m.stats.Scanned)),
		fmt.Sprintf("%s    %s", label("Duration:"), m.styles.Active.Render(formatDuration(m.stats.Duration))),
	}
	if m.stats.Backend != "" {
		lines = append(lines, fmt.Sprintf("%s       %s", label("Store:"), m.stats.Backend))
	}

	if n := m.stats.Failed; n > 0 {
		lines = append(lines, "", m.styles.Error.Render(fmt.Sprintf("\u2717 %d failed", n)))
	}
	if n := m.stats.Empty + m.stats.Skipped; n > 0 {
		lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("\u26a0 %d empty or skipped", n)))
	}
	if n := m.stats.Unsupported; n > 0 {
		lines = append(lines, m.styles.Dim.Render(fmt.Sprintf("%d unsupported", n)))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(1, 2).
		Width(max(m.width-4, 40))

	return panel.Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// truncateFilePath shortens path to maxLen, keeping the file name.
func truncateFilePath(path string, maxLen int) string {
	if path == "" || len(path) <= maxLen {
		return path
	}
	if maxLen < 4 {
		return "..."
	}

	slash := strings.LastIndex(path, "/")
	filename := path[slash+1:]
	if slash < 0 || len(filename)+4 > maxLen {
		return "..." + path[len(path)-maxLen+3:]
	}

	prefix := path[:slash]
	remaining := maxLen - len(filename) - 4
	if remaining <= 0 {
		return ".../" + filename
	}
	return "..." + prefix[len(prefix)-remaining:] + "/" + filename
}

var _ Renderer = (*TUIRenderer)(nil)
