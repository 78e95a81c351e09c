package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shhac/mrtea/internal/diff"
	"github.com/shhac/mrtea/internal/highlight"
)

// DiffViewerModel shows one diff's aligned rows in a single viewport, so
// the old and new panes always share a scroll offset.
type DiffViewerModel struct {
	viewport viewport.Model
	hl       *highlight.Highlighter
	ready    bool

	diff  *diff.Diff
	notes map[int]int
	lines []string
	infos []rowInfo
}

func NewDiffViewerModel(hl *highlight.Highlighter) DiffViewerModel {
	return DiffViewerModel{hl: hl}
}

// Update handles scrolling keys.
func (m DiffViewerModel) Update(msg tea.KeyMsg) (DiffViewerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Down):
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
	case key.Matches(msg, Keys.Up):
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
	case key.Matches(msg, Keys.HalfDown):
		m.viewport.HalfViewDown()
	case key.Matches(msg, Keys.HalfUp):
		m.viewport.HalfViewUp()
	case key.Matches(msg, Keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, Keys.Bottom):
		m.viewport.GotoBottom()
	}
	return m, nil
}

// SetSize sets the area available to rows and scrollbar.
func (m *DiffViewerModel) SetSize(width, height int) {
	innerWidth := max(1, width-1) // scrollbar
	height = max(1, height)
	if !m.ready {
		m.viewport = viewport.New(innerWidth, height)
		m.ready = true
	} else {
		m.viewport.Width = innerWidth
		m.viewport.Height = height
	}
	m.refreshContent()
}

// SetDiff shows d with the given note counts per new-side line. The scroll
// offset resets only when the diff changes.
func (m *DiffViewerModel) SetDiff(d *diff.Diff, notes map[int]int) {
	changed := d != m.diff
	m.diff = d
	m.notes = notes
	m.refreshContent()
	if changed {
		m.viewport.GotoTop()
	}
}

func (m *DiffViewerModel) refreshContent() {
	if !m.ready {
		return
	}
	m.lines, m.infos = renderDiff(m.diff, m.hl, m.notes, m.viewport.Width)
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
}

// ScrollIndicator returns the scroll position label, or "" when everything fits.
func (m DiffViewerModel) ScrollIndicator() string {
	if !m.ready {
		return ""
	}
	return scrollIndicator(m.viewport)
}

func (m DiffViewerModel) View() string {
	if !m.ready {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderScrollbar())
}
