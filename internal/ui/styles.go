package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/shhac/mrtea/internal/gitlab"
)

var accentColor = lipgloss.Color("62")

// Header
var (
	headerPathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)
	headerMetaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerPositionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	approvedBadgeStyle  = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("42")).
				Bold(true).
				Padding(0, 1)
	pendingBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244")).
				Background(lipgloss.Color("238")).
				Padding(0, 1)
)

// Side-by-side rows. The tints are dark enough to keep chroma foregrounds
// readable.
var (
	addedBg   = lipgloss.Color("#2b3328")
	removedBg = lipgloss.Color("#3c2a2a")

	lineNumberStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	fillerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	paneDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	hunkHeaderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	hunkSectionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	commentMarkerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// Status bar
var (
	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))
	statusBarAccentStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("236")).
				Foreground(accentColor).
				Bold(true)
	statusBarErrorStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("236")).
				Foreground(lipgloss.Color("196")).
				Bold(true)
)

// Command bar
var (
	cmdPromptStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	cmdInputTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cmdUsageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	cmdHintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Vertical scrollbar (1-char wide column beside the rows)
var (
	scrollbarTrackStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	scrollbarThumbStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	scrollbarCommentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var scrollIndicatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

// newLoadingSpinner creates a consistently styled spinner for remote actions.
func newLoadingSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentColor).Background(lipgloss.Color("236"))
	return s
}

// renderEmptyState renders a consistent empty state message with optional action hint.
func renderEmptyState(message, hint string) string {
	msg := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")).
		Padding(1, 2).
		Render(message)
	if hint == "" {
		return msg
	}
	h := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true).
		Padding(0, 2).
		Render(hint)
	return lipgloss.JoinVertical(lipgloss.Left, msg, h)
}

// formatUserError turns a command error into a one-line status message.
func formatUserError(err error) string {
	var authErr *gitlab.AuthorizationError
	var transientErr *gitlab.TransientError
	switch {
	case errors.As(err, &authErr):
		return "GitLab rejected the credential. Re-issue the command to sign in again."
	case errors.As(err, &transientErr):
		if transientErr.StatusCode == 429 {
			return "GitLab rate limit reached. Wait a moment and retry."
		}
		return fmt.Sprintf("GitLab unavailable (%v). Retry the command.", transientErr.Err)
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out. Check your connection and retry."
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}

// scrollIndicator returns a scroll position label for a viewport.
// Returns "" if all content fits within the viewport.
func scrollIndicator(vp viewport.Model) string {
	if vp.TotalLineCount() <= vp.Height {
		return ""
	}
	pct := int(vp.ScrollPercent() * 100)
	switch {
	case vp.AtTop():
		return scrollIndicatorStyle.Render(fmt.Sprintf("%d%% ▼", pct))
	case vp.AtBottom():
		return scrollIndicatorStyle.Render(fmt.Sprintf("▲ %d%%", pct))
	default:
		return scrollIndicatorStyle.Render(fmt.Sprintf("▲ %d%% ▼", pct))
	}
}
