// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/canline/hexupdate/pkg/hexwire"
)

// monitorEvent carries one Snapshot into the bubbletea program; it is
// sent from the receive loop's own goroutine via tea.Program.Send, the
// only point of contact between the loop that owns the Transfer and
// the TUI that renders it.
type monitorEvent hexwire.Snapshot

type monitorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

type monitorModel struct {
	snapshot      hexwire.Snapshot
	progress      progress.Model
	log           []monitorLogEntry
	maxLogEntries int
	quitting      bool
}

func newMonitorModel() monitorModel {
	return monitorModel{
		progress:      progress.New(progress.WithDefaultGradient()),
		maxLogEntries: 50,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 4

	case monitorEvent:
		prev := m.snapshot
		m.snapshot = hexwire.Snapshot(msg)
		if m.snapshot.State != prev.State {
			m.addLogEntry(fmt.Sprintf("state -> %s", m.snapshot.State), false)
		}
		if m.snapshot.LastError != "" && m.snapshot.LastError != prev.LastError {
			m.addLogEntry(m.snapshot.LastError, true)
		}

	case progress.FrameMsg:
		newModel, cmd := m.progress.Update(msg)
		m.progress = newModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, monitorLogEntry{timestamp: time.Now(), message: message, isError: isError})
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("HEXUPDATE - FIRMWARE RECEIVER"))
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("State:"), valueStyle.Render(m.snapshot.State)))

	var ratio float64
	if m.snapshot.ExpectedLines > 0 {
		ratio = float64(m.snapshot.CurrentLine) / float64(m.snapshot.ExpectedLines)
	}
	s.WriteString(m.progress.ViewAs(ratio))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("line %d / %d", m.snapshot.CurrentLine, m.snapshot.ExpectedLines)))
	s.WriteString("\n\n")

	if m.snapshot.LastError != "" {
		s.WriteString(errorStyle.Render("last error: " + m.snapshot.LastError))
		s.WriteString("\n\n")
	}

	logContent := strings.Builder{}
	if len(m.log) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for _, entry := range m.log {
			ts := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(ts), errorStyle.Render(entry.message)))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(ts), valueStyle.Render(entry.message)))
			}
		}
	}
	s.WriteString(boxStyle.Render(logContent.String()))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("Press 'q' to quit"))

	return s.String()
}

// startMonitorTUI launches the progress TUI in the background and
// returns a callback the receive loop feeds Snapshots through plus a
// stop function to tear the program down on exit.
func startMonitorTUI() (onEvent func(hexwire.Snapshot), stop func()) {
	p := tea.NewProgram(newMonitorModel())
	go func() {
		_, _ = p.Run()
	}()
	return func(s hexwire.Snapshot) {
			p.Send(monitorEvent(s))
		}, func() {
			p.Quit()
		}
}
