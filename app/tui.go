package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docsearch/search"
)

// progressChan is the thread-safe hand-off from the search worker to the
// event loop. The worker never mutates model state directly.
var progressChan = make(chan progressMsg, 64)

// progressMsg updates the progress line while a run is in flight.
type progressMsg struct {
	Percent float64
	Name    string
}

type resultMsg struct {
	results    []search.Result
	err        error
	cancelled  bool
	searchTime time.Duration
}

type progressTick struct{}

// Styles shared with the plain CLI output.
var (
	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7aa2f7"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a9b1d6"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff")).
			Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))
)

type model struct {
	engine *search.Engine
	req    search.Request
	ctx    context.Context
	cancel context.CancelFunc

	loading   bool
	cancelled bool

	progress progressMsg
	results  []search.Result
	err      error
	elapsed  time.Duration

	cursor   int
	openNote string

	width  int
	height int

	quitting bool
}

// runTUI drives one search run inside the interactive UI.
func runTUI(engine *search.Engine, req search.Request) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := model{
		engine:  engine,
		req:     req,
		ctx:     ctx,
		cancel:  cancel,
		loading: true,
	}

	finalModel, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := finalModel.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(pollProgress(), m.runSearch())
}

// runSearch starts the engine on a worker goroutine. Progress flows through
// progressChan (drop-oldest so the latest value always gets through); the
// final result arrives as a single message.
func (m model) runSearch() tea.Cmd {
	m.engine.OnProgress = func(percent float64, name string) {
		msg := progressMsg{Percent: percent, Name: name}
		select {
		case progressChan <- msg:
		default:
			select {
			case <-progressChan:
			default:
			}
			select {
			case progressChan <- msg:
			default:
			}
		}
	}

	ctx := m.ctx
	req := m.req
	engine := m.engine
	start := time.Now()
	return func() tea.Msg {
		results, err := engine.Search(ctx, req)
		return resultMsg{
			results:    results,
			err:        err,
			cancelled:  ctx.Err() != nil,
			searchTime: time.Since(start),
		}
	}
}

func pollProgress() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(time.Time) tea.Msg {
		select {
		case msg := <-progressChan:
			return msg
		default:
			return progressTick{}
		}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case progressMsg:
		m.progress = msg
		return m, pollProgress()

	case progressTick:
		if m.loading {
			return m, pollProgress()
		}
		return m, nil

	case resultMsg:
		m.loading = false
		m.results = msg.results
		m.err = msg.err
		m.cancelled = m.cancelled || msg.cancelled
		m.elapsed = msg.searchTime
		if m.err != nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			switch msg.String() {
			case "q", "ctrl+c":
				m.cancel()
				m.cancelled = true
				return m, nil
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
		case "enter", "o":
			if m.cursor < len(m.results) {
				path := m.results[m.cursor].Path
				if err := OpenInViewer(path); err != nil {
					m.openNote = "cannot open " + path + ": " + err.Error()
				} else {
					m.openNote = "opened " + path
				}
			}
		}
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var parts []string
	parts = append(parts, headerStyle.Render("docsearch"))
	parts = append(parts, infoStyle.Render(fmt.Sprintf("term %q under %s", m.req.Term, m.req.Root)))

	if m.loading {
		name := m.progress.Name
		if name == "" {
			name = "scanning..."
		}
		parts = append(parts, "")
		parts = append(parts, fmt.Sprintf("⏳ %3.0f%%  %s", m.progress.Percent, name))
		if m.req.UseOCR {
			parts = append(parts, warningStyle.Render("OCR enabled - this can be slow"))
		}
		parts = append(parts, "")
		parts = append(parts, separatorStyle.Render("q: cancel"))
		return appStyle.Render(strings.Join(parts, "\n"))
	}

	parts = append(parts, "")
	if m.cancelled {
		parts = append(parts, warningStyle.Render("Cancelled - partial results"))
	}
	if len(m.results) == 0 {
		parts = append(parts, "No documents found")
	} else {
		parts = append(parts, successStyle.Render(fmt.Sprintf("%d document(s) found in %.1fs", len(m.results), m.elapsed.Seconds())))
		parts = append(parts, "")
		for i, r := range m.results {
			line := fmt.Sprintf("%-30.30s %-6s %4d", r.Name, r.Ext, r.Occurrences)
			if i == m.cursor {
				line = selectedStyle.Render("▸ " + line)
			} else {
				line = "  " + line
			}
			parts = append(parts, line)
		}
		if m.cursor < len(m.results) {
			path := m.results[m.cursor].Path
			if m.width > 8 && len(path) > m.width-8 {
				path = "..." + path[len(path)-(m.width-11):]
			}
			parts = append(parts, "")
			parts = append(parts, infoStyle.Render(path))
		}
	}
	if m.openNote != "" {
		parts = append(parts, infoStyle.Render(m.openNote))
	}
	parts = append(parts, "")
	parts = append(parts, separatorStyle.Render("↑/↓ select • enter: open • q: quit"))

	return appStyle.Render(strings.Join(parts, "\n"))
}
