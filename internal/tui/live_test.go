package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/neodefense/internal/dynamo"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

func TestModel_Progress(t *testing.T) {
	m := NewModel("apophis", 8, nil, nil)
	m, _ = update(t, m, ProgressMsg{})
	m, _ = update(t, m, ProgressMsg{Degraded: true})
	m, _ = update(t, m, ProgressMsg{})

	view := m.View()
	for _, s := range []string{"apophis", "3/8", "1 degraded", "q cancel"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q:\n%s", s, view)
		}
	}
}

func TestModel_CancelWhileRunning(t *testing.T) {
	cancelled := 0
	m := NewModel("x", 4, nil, func() { cancelled++ })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		t.Error("cancel should wait for the run instead of quitting")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cancelled != 1 {
		t.Errorf("cancel called %d times, want 1", cancelled)
	}
	if !strings.Contains(m.View(), "cancelling") {
		t.Error("view should show cancellation in progress")
	}

	c := &dynamo.HazardCorridor{Requested: 4, Cancelled: true}
	m, cmd = update(t, m, DoneMsg{Corridor: c})
	if cmd == nil {
		t.Fatal("expected quit after DoneMsg")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !m.Finished() {
		t.Error("model should be finished")
	}
	got, err := m.Result()
	if got != c || err != nil {
		t.Errorf("Result() = %v, %v", got, err)
	}
}

func TestModel_DoneWithError(t *testing.T) {
	m := NewModel("x", 4, nil, nil)
	m, _ = update(t, m, DoneMsg{Err: dynamo.ErrCorridorGenerationFailed})
	if !strings.Contains(m.View(), "failed") {
		t.Errorf("view should report the failure:\n%s", m.View())
	}

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q after completion should quit")
	}
}

func TestModel_TickStopsWhenFinished(t *testing.T) {
	m := NewModel("x", 1, nil, nil)
	m, cmd := update(t, m, tickMsg(time.Now()))
	if cmd == nil || m.frame != 1 {
		t.Error("running model should keep ticking")
	}
	m, _ = update(t, m, DoneMsg{Corridor: &dynamo.HazardCorridor{}})
	if _, cmd := update(t, m, tickMsg(time.Now())); cmd != nil {
		t.Error("finished model should stop ticking")
	}
}

func TestRunCorridorAndTracker(t *testing.T) {
	c := &dynamo.HazardCorridor{Requested: 2}
	msg := RunCorridor(func() (*dynamo.HazardCorridor, error) { return c, nil })()
	done, ok := msg.(DoneMsg)
	if !ok || done.Corridor != c {
		t.Fatalf("RunCorridor produced %#v", msg)
	}

	var got []tea.Msg
	tr := NewTracker(func(m tea.Msg) { got = append(got, m) })
	tr.ObservePropagation(false, time.Millisecond)
	tr.ObservePropagation(true, time.Millisecond)
	tr.ObserveCorridor(2, 2, 0, false, time.Millisecond)

	if len(got) != 2 {
		t.Fatalf("tracker sent %d messages, want 2", len(got))
	}
	if p := got[1].(ProgressMsg); !p.Degraded {
		t.Error("second message should be degraded")
	}
}
