package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// messageDuration is how long a temporary status message stays up.
const messageDuration = 4 * time.Second

// StatusBarModel renders the bottom status bar.
type StatusBarModel struct {
	width     int
	position  string
	remaining int
	hidden    int

	// Set while a remote action is in flight.
	busy      string
	spinner   spinner.Model
	statusErr bool

	// Temporary flash message (e.g. "Comment posted on line 12")
	statusMessage string
	// Monotonic counter: incremented on each SetTemporaryMessage call.
	// StatusBarClearMsg carries the seq at time of scheduling; if it doesn't
	// match current seq the clear is stale and ignored.
	messageSeq int
}

func NewStatusBarModel() StatusBarModel {
	return StatusBarModel{spinner: newLoadingSpinner()}
}

func (m *StatusBarModel) SetWidth(width int) {
	m.width = width
}

// SetProgress updates the right-hand review counters.
func (m *StatusBarModel) SetProgress(position string, remaining, hidden int) {
	m.position = position
	m.remaining = remaining
	m.hidden = hidden
}

// StartBusy shows label with a spinner until StopBusy is called.
func (m *StatusBarModel) StartBusy(label string) tea.Cmd {
	m.busy = label
	return m.spinner.Tick
}

func (m *StatusBarModel) StopBusy() {
	m.busy = ""
}

// Busy reports whether a remote action is in flight.
func (m StatusBarModel) Busy() bool {
	return m.busy != ""
}

// Update advances the spinner while busy.
func (m StatusBarModel) Update(msg spinner.TickMsg) (StatusBarModel, tea.Cmd) {
	if m.busy == "" {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// SetTemporaryMessage shows a flash message in the status bar.
// Returns a tea.Cmd that will send a StatusBarClearMsg after the given duration,
// which the caller must include in the returned command batch.
func (m *StatusBarModel) SetTemporaryMessage(msg string, duration time.Duration) tea.Cmd {
	m.statusErr = false
	return m.setMessage(msg, duration)
}

// SetErrorMessage is SetTemporaryMessage in the error color.
func (m *StatusBarModel) SetErrorMessage(msg string, duration time.Duration) tea.Cmd {
	m.statusErr = true
	return m.setMessage(msg, duration)
}

func (m *StatusBarModel) setMessage(msg string, duration time.Duration) tea.Cmd {
	m.messageSeq++
	m.statusMessage = msg
	seq := m.messageSeq
	return tea.Tick(duration, func(_ time.Time) tea.Msg {
		return StatusBarClearMsg{Seq: seq}
	})
}

// ClearIfSeqMatch clears the message only if the given seq matches the current one.
// Returns true if the message was cleared.
func (m *StatusBarModel) ClearIfSeqMatch(seq int) bool {
	if seq == m.messageSeq {
		m.statusMessage = ""
		m.statusErr = false
		return true
	}
	return false
}

// Message returns the current flash message, if any.
func (m StatusBarModel) Message() string {
	return m.statusMessage
}

func (m StatusBarModel) View() string {
	var left string
	switch {
	case m.busy != "":
		left = " " + m.spinner.View() + statusBarAccentStyle.Render(" "+m.busy)
	case m.statusMessage != "" && m.statusErr:
		left = statusBarErrorStyle.Render(" " + m.statusMessage)
	case m.statusMessage != "":
		left = statusBarAccentStyle.Render(" " + m.statusMessage)
	default:
		left = statusBarAccentStyle.Render(" [y]approve [:]command [n/p]diff [?]help")
	}
	right := statusBarStyle.Render(m.contextInfo())

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	bar := left +
		statusBarStyle.Render(strings.Repeat(" ", padding)) +
		right

	return statusBarStyle.Width(m.width).MaxWidth(m.width).Render(bar)
}

func (m StatusBarModel) contextInfo() string {
	info := " " + m.position
	if m.position != "No diffs" && m.position != "" {
		info += fmt.Sprintf(" · %d to review", m.remaining)
	}
	if m.hidden > 0 {
		info += fmt.Sprintf(" · %d approved earlier", m.hidden)
	}
	return info + " "
}
