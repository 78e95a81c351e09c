package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Command describes one command-line keyword for completion and hints.
type Command struct {
	Keyword     string
	Usage       string
	Description string
}

// commandRegistry lists the keywords review.Interpret understands.
var commandRegistry = []Command{
	{Keyword: "y", Usage: "y", Description: "approve this diff and advance"},
	{Keyword: "c", Usage: "c <line> <text>", Description: "comment on a new-side line"},
	{Keyword: "g", Usage: "g <n>", Description: "go to diff n (0-based)"},
	{Keyword: "approve", Usage: "approve", Description: "approve the merge request"},
	{Keyword: "n", Usage: "n", Description: "next diff"},
	{Keyword: "p", Usage: "p", Description: "previous diff"},
	{Keyword: "q", Usage: "q", Description: "quit"},
}

const maxHistory = 50

// CommandModeModel is the `:` command line.
type CommandModeModel struct {
	input   textinput.Model
	width   int
	active  bool
	history []string
	// histIdx == len(history) means "not browsing history".
	histIdx int
	draft   string
}

// NewCommandModeModel creates a command line model.
func NewCommandModeModel() CommandModeModel {
	ti := textinput.New()
	ti.Prompt = ":"
	ti.PromptStyle = cmdPromptStyle
	ti.TextStyle = cmdInputTextStyle
	ti.Placeholder = "y | c <line> <text> | g <n> | approve"
	ti.PlaceholderStyle = cmdHintStyle
	ti.CharLimit = 4096
	return CommandModeModel{input: ti}
}

func (m *CommandModeModel) SetWidth(width int) {
	m.width = width
	m.input.Width = max(1, width-2)
}

// Open activates the command line with an optional prefilled value.
func (m *CommandModeModel) Open(prefill string) tea.Cmd {
	m.active = true
	m.histIdx = len(m.history)
	m.draft = ""
	m.input.SetValue(prefill)
	m.input.CursorEnd()
	return m.input.Focus()
}

// Close deactivates the command line.
func (m *CommandModeModel) Close() {
	m.active = false
	m.input.Blur()
	m.input.SetValue("")
}

// IsActive returns whether the command line is open.
func (m CommandModeModel) IsActive() bool {
	return m.active
}

// Update handles messages while the command line is open.
func (m CommandModeModel) Update(msg tea.Msg) (CommandModeModel, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		// Pass non-key messages to textinput (cursor blink, etc.)
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch kmsg.String() {
	case "esc":
		m.Close()
		return m, func() tea.Msg { return CommandCancelMsg{} }

	case "enter":
		line := strings.TrimSpace(m.input.Value())
		m.Close()
		if line == "" {
			return m, func() tea.Msg { return CommandCancelMsg{} }
		}
		m.remember(line)
		return m, func() tea.Msg { return CommandSubmitMsg{Line: line} }

	case "tab":
		if c, ok := completeKeyword(m.input.Value()); ok {
			m.input.SetValue(c.Keyword + " ")
			m.input.CursorEnd()
		}
		return m, nil

	case "up":
		if m.histIdx > 0 {
			if m.histIdx == len(m.history) {
				m.draft = m.input.Value()
			}
			m.histIdx--
			m.input.SetValue(m.history[m.histIdx])
			m.input.CursorEnd()
		}
		return m, nil

	case "down":
		if m.histIdx < len(m.history) {
			m.histIdx++
			if m.histIdx == len(m.history) {
				m.input.SetValue(m.draft)
			} else {
				m.input.SetValue(m.history[m.histIdx])
			}
			m.input.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(kmsg)
	return m, cmd
}

func (m *CommandModeModel) remember(line string) {
	if n := len(m.history); n > 0 && m.history[n-1] == line {
		return
	}
	m.history = append(m.history, line)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

// matchingCommands returns the commands whose keyword starts with the first
// word of input. Once a full keyword plus a space is typed only that command
// matches.
func matchingCommands(input string) []Command {
	input = strings.TrimLeft(input, " \t")
	word, _, typedArgs := strings.Cut(input, " ")
	var out []Command
	for _, c := range commandRegistry {
		if typedArgs {
			if c.Keyword == word {
				return []Command{c}
			}
			continue
		}
		if strings.HasPrefix(c.Keyword, word) {
			out = append(out, c)
		}
	}
	return out
}

// completeKeyword returns the single command whose keyword extends input.
func completeKeyword(input string) (Command, bool) {
	if strings.ContainsAny(strings.TrimLeft(input, " \t"), " \t") {
		return Command{}, false
	}
	matches := matchingCommands(input)
	if len(matches) != 1 {
		return Command{}, false
	}
	return matches[0], true
}

// View renders a usage hint line above the input line.
func (m CommandModeModel) View() string {
	if !m.active {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.hintLine(), m.input.View())
}

func (m CommandModeModel) hintLine() string {
	matches := matchingCommands(m.input.Value())
	if len(matches) == 0 {
		return cmdHintStyle.Render(" no such command")
	}
	parts := make([]string, 0, len(matches))
	for _, c := range matches {
		if len(matches) == 1 {
			parts = append(parts, cmdUsageStyle.Render(c.Usage)+cmdHintStyle.Render("  "+c.Description))
			continue
		}
		parts = append(parts, cmdUsageStyle.Render(c.Usage))
	}
	line := " " + strings.Join(parts, cmdHintStyle.Render(" · "))
	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return line
}
