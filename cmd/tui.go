// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lumenworks/lumenbus/pkg/lumen"
)

// Log entry shown in the events pane
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// TUI model
type monitorModel struct {
	connInfo      string
	stats         *lumen.Statistics
	log           []logEntry
	maxLogEntries int
	logView       viewport.Model
	width         int
	height        int
	quitting      bool
}

// Messages
type tickMsg time.Time
type busDataMsg struct {
	msg       *lumen.Message
	decodeErr error
}
type busClosedMsg struct {
	err error
}

func initialMonitorModel(connInfo string) monitorModel {
	return monitorModel{
		connInfo:      connInfo,
		stats:         lumen.NewStatistics(),
		log:           make([]logEntry, 0),
		maxLogEntries: 200,
		logView:       viewport.New(80, 12),
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		default:
			// Scrolling keys go to the log pane
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = msg.Width - 4
		m.logView.Height = max(msg.Height-14, 5)

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case busDataMsg:
		m.stats.Update(msg.msg, msg.decodeErr)
		if msg.decodeErr != nil {
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
		} else if msg.msg != nil {
			m.addLogEntry(strings.TrimRight(lumen.FormatMessage(msg.msg), "\n"), false)
		}

	case busClosedMsg:
		m.addLogEntry(fmt.Sprintf("connection closed: %v", msg.err), true)
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}

	m.logView.SetContent(m.renderLog())
	m.logView.GotoBottom()
}

func (m monitorModel) renderLog() string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	var s strings.Builder
	for _, entry := range m.log {
		timestamp := entry.timestamp.Format("15:04:05.000")
		line := entry.message
		if entry.isError {
			line = errorStyle.Render(line)
		}
		// Indent continuation lines under the timestamp
		line = strings.ReplaceAll(line, "\n", "\n             ")
		s.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), line))
	}
	return s.String()
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("LUMENBUS - TRAFFIC MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	var validPercent float64
	if m.stats.TotalMessages > 0 {
		validPercent = float64(m.stats.ValidMessages) * 100.0 / float64(m.stats.TotalMessages)
	}
	totalErrors := m.stats.HeaderErrors + m.stats.VersionErrors + m.stats.TruncatedErrors + m.stats.UnknownTypes

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalMessages)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidMessages, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d", totalErrors)),
	))

	if totalErrors > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Header:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.HeaderErrors)),
			statsLabelStyle.Render("Truncated:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.TruncatedErrors)),
			statsLabelStyle.Render("Unknown:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.UnknownTypes)),
		))
	}

	byType := strings.Builder{}
	for _, t := range []uint8{lumen.MsgTypeOutput, lumen.MsgTypePoll, lumen.MsgTypeSetAddress, lumen.MsgTypeSensor, lumen.MsgTypeDumpConfig} {
		if n := m.stats.ByType[t]; n > 0 {
			byType.WriteString(fmt.Sprintf("%s %s   ",
				statsLabelStyle.Render(lumen.FormatMessageType(t)+":"),
				statsValueStyle.Render(fmt.Sprintf("%d", n))))
		}
	}
	if byType.Len() > 0 {
		statsContent.WriteString(strings.TrimRight(byType.String(), " "))
		statsContent.WriteString("\n")
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f msg/s", m.stats.MessageRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Message log
	s.WriteString(statsLabelStyle.Render("Recent Messages:"))
	s.WriteString("\n")
	if len(m.log) == 0 {
		s.WriteString(boxStyle.Width(m.width - 4).Render(headerStyle.Render("  (no messages yet)")))
	} else {
		s.WriteString(boxStyle.Width(m.width - 4).Render(m.logView.View()))
	}

	return s.String()
}

// runMonitorTUI runs the live dashboard, feeding decoded bus traffic
// into the bubbletea program from a reader goroutine.
func runMonitorTUI(conn Connection, connInfo string) error {
	m := initialMonitorModel(connInfo)
	p := tea.NewProgram(m)

	go func() {
		acc := lumen.NewAccumulator()
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				p.Send(busClosedMsg{err: err})
				return
			}
			for i := 0; i < n; i++ {
				frame, err := acc.Feed(buf[i])
				if err != nil {
					p.Send(busDataMsg{decodeErr: err})
					continue
				}
				if frame == nil {
					continue
				}
				msg, err := lumen.Decode(frame)
				p.Send(busDataMsg{msg: msg, decodeErr: err})
			}
		}
	}()

	_, err := p.Run()
	return err
}
