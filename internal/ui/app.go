package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/shhac/mrtea/internal/highlight"
	"github.com/shhac/mrtea/internal/notify"
	"github.com/shhac/mrtea/internal/review"
)

const (
	headerHeight = 2
	minWidth     = 40
	minHeight    = 8
)

// Options configures the App.
type Options struct {
	// Context bounds remote actions. Defaults to context.Background.
	Context     context.Context
	Highlighter *highlight.Highlighter
	// Notifier, if set, is told when the last outstanding diff is approved.
	Notifier *notify.Notifier
	// OpenURL opens the merge request in a browser. Nil disables `o`.
	OpenURL func(string) error
	// Warnings are shown once in the status bar at startup.
	Warnings []string
	Logger   zerolog.Logger
}

// App is the root Bubbletea model for one review session.
type App struct {
	session *review.Session
	ctx     context.Context
	opts    Options
	logger  zerolog.Logger

	diffViewer DiffViewerModel
	commandBar CommandModeModel
	statusBar  StatusBarModel
	help       help.Model

	width  int
	height int
}

// New creates the App for s.
func New(s *review.Session, opts Options) App {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Highlighter == nil {
		opts.Highlighter = highlight.New(highlight.DefaultStyle)
	}
	m := App{
		session:    s,
		ctx:        opts.Context,
		opts:       opts,
		logger:     opts.Logger.With().Str("component", "ui").Logger(),
		diffViewer: NewDiffViewerModel(opts.Highlighter),
		commandBar: NewCommandModeModel(),
		statusBar:  NewStatusBarModel(),
		help:       help.New(),
	}
	m.syncStatus()
	return m
}

func (m App) Init() tea.Cmd {
	if len(m.opts.Warnings) == 0 {
		return nil
	}
	msg := m.opts.Warnings[0]
	if n := len(m.opts.Warnings); n > 1 {
		msg = fmt.Sprintf("%s (+%d more warnings, see log)", msg, n-1)
	}
	return func() tea.Msg { return startupWarningMsg{Text: msg} }
}

// startupWarningMsg carries the startup warning into Update, where the
// status bar can be mutated.
type startupWarningMsg struct{ Text string }

// Update dispatches messages to sub-handlers.
func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case CommandSubmitMsg:
		m.recalcLayout()
		return m.runCommand(msg.Line)

	case CommandCancelMsg:
		m.recalcLayout()
		return m, nil

	case RemoteDoneMsg:
		return m.handleRemoteDone(msg)

	case startupWarningMsg:
		return m, m.statusBar.SetErrorMessage(msg.Text, 2*messageDuration)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.statusBar, cmd = m.statusBar.Update(msg)
		return m, cmd

	case StatusBarClearMsg:
		m.statusBar.ClearIfSeqMatch(msg.Seq)
		return m, nil
	}

	if m.commandBar.IsActive() {
		var cmd tea.Cmd
		m.commandBar, cmd = m.commandBar.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyMsg dispatches keyboard input.
func (m App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, Keys.ForceQuit) {
		return m, tea.Quit
	}

	// Command line captures all other keys
	if m.commandBar.IsActive() {
		var cmd tea.Cmd
		m.commandBar, cmd = m.commandBar.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.recalcLayout()
		return m, nil

	case key.Matches(msg, Keys.Command):
		if m.statusBar.Busy() {
			return m, m.statusBar.SetErrorMessage("Wait for the current action to finish", messageDuration)
		}
		cmd := m.commandBar.Open("")
		m.recalcLayout()
		return m, cmd

	case key.Matches(msg, Keys.Approve):
		return m.runCommand("y")

	case key.Matches(msg, Keys.NextDiff):
		return m.runCommand("n")

	case key.Matches(msg, Keys.PrevDiff):
		return m.runCommand("p")

	case key.Matches(msg, Keys.OpenBrowser):
		mr := m.session.MergeRequest()
		if m.opts.OpenURL == nil || mr == nil || mr.WebURL == "" {
			return m, nil
		}
		return m, tea.Batch(
			openBrowserCmd(m.opts.OpenURL, mr.WebURL),
			m.statusBar.SetTemporaryMessage("Opening "+mr.WebURL, messageDuration),
		)
	}

	var cmd tea.Cmd
	m.diffViewer, cmd = m.diffViewer.Update(msg)
	return m, cmd
}

// runCommand interprets one command line. Local actions complete here;
// remote ones are dispatched and complete in handleRemoteDone.
func (m App) runCommand(line string) (tea.Model, tea.Cmd) {
	if m.statusBar.Busy() {
		return m, m.statusBar.SetErrorMessage("Wait for the current action to finish", messageDuration)
	}

	a, err := review.Interpret(line, m.session)
	if err != nil {
		return m, m.statusBar.SetErrorMessage(formatUserError(err), messageDuration)
	}

	if review.IsRemote(a) {
		m.logger.Debug().Str("command", line).Msg("dispatching remote action")
		return m, tea.Batch(
			m.statusBar.StartBusy(busyLabel(a)),
			dispatchCmd(m.ctx, m.session, a),
		)
	}
	return m.applyResult(m.session.Complete(a))
}

func (m App) handleRemoteDone(msg RemoteDoneMsg) (tea.Model, tea.Cmd) {
	m.statusBar.StopBusy()
	if msg.Err != nil {
		m.logger.Error().Err(msg.Err).Msg("remote action failed")
		return m, m.statusBar.SetErrorMessage(formatUserError(msg.Err), 2*messageDuration)
	}
	return m.applyResult(m.session.Complete(msg.Action))
}

func (m App) applyResult(res review.Result) (tea.Model, tea.Cmd) {
	if res.Quit {
		return m, tea.Quit
	}
	m.syncView()

	var cmds []tea.Cmd
	if res.Message != "" {
		cmds = append(cmds, m.statusBar.SetTemporaryMessage(res.Message, messageDuration))
	}
	if res.Done && m.opts.Notifier != nil {
		mr := m.session.MergeRequest()
		cmds = append(cmds, notifyCompleteCmd(m.opts.Notifier, mr.Project, mr.IID, m.session.Count()))
	}
	return m, tea.Batch(cmds...)
}

// syncView pushes the session's current diff and counters into the sub-models.
func (m *App) syncView() {
	d := m.session.Current()
	var notes map[int]int
	if d != nil {
		notes = m.session.NoteLines(d.Path())
	}
	m.diffViewer.SetDiff(d, notes)
	m.syncStatus()
}

func (m *App) syncStatus() {
	m.statusBar.SetProgress(m.session.Position(), m.session.Remaining(), m.session.Hidden())
}

func (m *App) recalcLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.statusBar.SetWidth(m.width)
	m.commandBar.SetWidth(m.width)
	m.help.Width = m.width

	rows := m.height - headerHeight - 1 - lipgloss.Height(m.help.View(Keys))
	if m.commandBar.IsActive() {
		rows -= 2
	}
	m.diffViewer.SetSize(m.width, max(1, rows))
	m.syncView()
}

func (m App) View() string {
	if m.width == 0 {
		return ""
	}
	if m.width < minWidth || m.height < minHeight {
		msg := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Render(fmt.Sprintf("Terminal too small. Please resize to at least %d×%d.", minWidth, minHeight))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)
	}

	parts := []string{m.renderHeader(), m.diffViewer.View()}
	if m.commandBar.IsActive() {
		parts = append(parts, m.commandBar.View())
	}
	parts = append(parts, m.statusBar.View(), m.help.View(Keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderHeader renders the merge request line and the current diff line.
func (m App) renderHeader() string {
	clip := lipgloss.NewStyle().MaxWidth(m.width)

	mr := m.session.MergeRequest()
	var first string
	if mr != nil {
		first = headerPositionStyle.Render(fmt.Sprintf("!%d", mr.IID)) + " " + mr.Title
		var meta []string
		if mr.Author != "" {
			meta = append(meta, "@"+mr.Author)
		}
		if mr.SourceBranch != "" {
			meta = append(meta, mr.SourceBranch+" → "+mr.TargetBranch)
		}
		if len(meta) > 0 {
			first += headerMetaStyle.Render("  " + strings.Join(meta, " · "))
		}
	}

	var second string
	if d := m.session.Current(); d != nil {
		badge := pendingBadgeStyle.Render("PENDING")
		if m.session.CurrentApproved() {
			badge = approvedBadgeStyle.Render("APPROVED")
		}
		second = headerPathStyle.Render(d.StatusLabel()) + "  " +
			headerPositionStyle.Render(m.session.Position()) + " " + badge
	} else {
		second = headerPositionStyle.Render(m.session.Position())
	}
	if ind := m.diffViewer.ScrollIndicator(); ind != "" {
		if gap := m.width - lipgloss.Width(second) - lipgloss.Width(ind); gap > 0 {
			second += strings.Repeat(" ", gap) + ind
		}
	}

	return clip.Render(first) + "\n" + clip.Render(second)
}
