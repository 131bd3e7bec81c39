package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Tracker forwards engine observations to a running program as messages.
// It satisfies trajectory.Observer.
type Tracker struct {
	send func(tea.Msg)
}

// NewTracker usually takes (*tea.Program).Send.
func NewTracker(send func(tea.Msg)) *Tracker {
	return &Tracker{send: send}
}

func (t *Tracker) ObservePropagation(degraded bool, _ time.Duration) {
	t.send(ProgressMsg{Degraded: degraded})
}

// ObserveCorridor is a no-op; completion arrives as a DoneMsg.
func (t *Tracker) ObserveCorridor(int, int, int, bool, time.Duration) {}
