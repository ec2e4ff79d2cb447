// Package tui renders a live progress view for a sync run.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driving"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(10)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

type statsMsg domain.SyncStats

type doneMsg struct{ err error }

type model struct {
	name  string
	stats domain.SyncStats
	done  bool
	err   error

	updates <-chan domain.SyncStats
	result  <-chan error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.waitForStats(), m.waitForResult())
}

func (m model) waitForStats() tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-m.updates
		if !ok {
			return nil
		}
		return statsMsg(snapshot)
	}
}

func (m model) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: <-m.result}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case statsMsg:
		m.stats = domain.SyncStats(msg)
		return m, m.waitForStats()

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	s := titleStyle.Render("syncing "+m.name) + "\n\n"

	rows := []struct {
		label string
		value int64
		style lipgloss.Style
	}{
		{"inserted", m.stats.Inserted, valueStyle},
		{"updated", m.stats.Updated, valueStyle},
		{"deleted", m.stats.Deleted, valueStyle},
		{"kept", m.stats.Kept, valueStyle},
		{"skipped", m.stats.Skipped, valueStyle},
		{"failed", m.stats.Failed, failedStyle},
	}
	for _, row := range rows {
		s += labelStyle.Render(row.label) + row.style.Render(fmt.Sprintf("%d", row.value)) + "\n"
	}

	switch {
	case m.done && m.err != nil:
		s += failedStyle.Render("\nrun failed: "+m.err.Error()) + "\n"
	case m.done:
		s += successStyle.Render("\nrun complete") + "\n"
	default:
		s += footerStyle.Render("press q to stop watching")
	}
	return s
}

// Run drives the sync while rendering live counters. It returns the run's
// error once the sync finishes or the view is closed.
func Run(ctx context.Context, runner driving.SyncRunner, name string) error {
	updates, unsubscribe := runner.Subscribe()
	defer unsubscribe()

	result := make(chan error, 1)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		result <- runner.Run(runCtx)
	}()

	m := model{name: name, updates: updates, result: result}
	program := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		cancel()
		return fmt.Errorf("progress view: %w", err)
	}

	if fm, ok := final.(model); ok && fm.done {
		return fm.err
	}

	// View closed before the run finished; stop the run and report its
	// outcome.
	cancel()
	return <-result
}
