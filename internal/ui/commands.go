package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/shhac/mrtea/internal/notify"
	"github.com/shhac/mrtea/internal/review"
)

// dispatchCmd runs the network half of a remote action off the update loop.
// Dispatch only reads the session, so this cannot race with View.
func dispatchCmd(ctx context.Context, s *review.Session, a review.Action) tea.Cmd {
	return func() tea.Msg {
		return RemoteDoneMsg{Action: a, Err: s.Dispatch(ctx, a)}
	}
}

// openBrowserCmd returns a command that opens a URL in the default browser.
func openBrowserCmd(open func(string) error, url string) tea.Cmd {
	return func() tea.Msg {
		if err := open(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("open browser failed")
		}
		return nil
	}
}

// notifyCompleteCmd sends an OS notification that the review is finished.
func notifyCompleteCmd(n *notify.Notifier, project string, iid, approved int) tea.Cmd {
	return func() tea.Msg {
		if err := n.ReviewComplete(project, iid, approved); err != nil {
			log.Debug().Err(err).Msg("completion notification")
		}
		return nil
	}
}

// busyLabel names an in-flight remote action for the status bar.
func busyLabel(a review.Action) string {
	switch a.(type) {
	case review.PostComment:
		return "Posting comment…"
	case review.ApproveMergeRequest:
		return "Approving merge request…"
	}
	return "Working…"
}
