// Package tui shows a live view of a running hazard corridor and lets the
// user cancel it from the keyboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/viz"
)

const barWidth = 40

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// ProgressMsg reports one finished propagation.
type ProgressMsg struct {
	Degraded bool
}

// DoneMsg carries the corridor once Generate returns.
type DoneMsg struct {
	Corridor *dynamo.HazardCorridor
	Err      error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model for a live corridor run.
type Model struct {
	name   string
	total  int
	run    tea.Cmd
	cancel context.CancelFunc

	done       int
	degraded   int
	frame      int
	start      time.Time
	elapsed    time.Duration
	cancelling bool
	finished   bool

	corridor *dynamo.HazardCorridor
	err      error
}

// NewModel builds the view for a corridor of total samples. run performs the
// computation and must return a DoneMsg; cancel aborts it.
func NewModel(name string, total int, run tea.Cmd, cancel context.CancelFunc) Model {
	return Model{
		name:   name,
		total:  total,
		run:    run,
		cancel: cancel,
		start:  time.Now(),
	}
}

// RunCorridor wraps a corridor computation as a command producing a DoneMsg.
func RunCorridor(compute func() (*dynamo.HazardCorridor, error)) tea.Cmd {
	return func() tea.Msg {
		c, err := compute()
		return DoneMsg{Corridor: c, Err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.run, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.finished {
				return m, tea.Quit
			}
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case ProgressMsg:
		m.done++
		if msg.Degraded {
			m.degraded++
		}
		return m, nil

	case DoneMsg:
		m.finished = true
		m.corridor = msg.Corridor
		m.err = msg.Err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit

	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("\n  " + viz.Title.Render("neodefense") + dim.Render(" · "+m.name) + "\n\n")

	if m.finished {
		switch {
		case m.err != nil:
			b.WriteString("  " + viz.Impact.Render("failed: ") + m.err.Error() + "\n")
		case m.corridor != nil:
			b.WriteString(viz.CorridorSummary(m.name, m.corridor) + "\n")
			b.WriteString(dim.Render(fmt.Sprintf("  finished in %s", m.elapsed.Round(time.Millisecond))) + "\n")
		}
		return b.String()
	}

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	fmt.Fprintf(&b, "  %s %s %s\n",
		cyan.Render(viz.Spinner(m.frame)),
		viz.ProgressBar(pct, barWidth),
		fmt.Sprintf("%d/%d", m.done, m.total),
	)
	if m.degraded > 0 {
		b.WriteString("  " + yellow.Render(fmt.Sprintf("%d degraded (linear fallback)", m.degraded)) + "\n")
	}

	b.WriteString("\n")
	if m.cancelling {
		b.WriteString("  " + yellow.Render("cancelling, waiting for in-flight samples...") + "\n")
	} else {
		b.WriteString("  " + viz.KeyHint.Render("q cancel") + "\n")
	}
	return b.String()
}

// Finished reports whether the run delivered its result.
func (m Model) Finished() bool { return m.finished }

// Result is the corridor and error the run finished with.
func (m Model) Result() (*dynamo.HazardCorridor, error) {
	return m.corridor, m.err
}
