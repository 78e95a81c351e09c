package ui

import "github.com/shhac/mrtea/internal/review"

// RemoteDoneMsg is sent when the network half of a remote action returns.
// The session is only updated once this arrives back in Update.
type RemoteDoneMsg struct {
	Action review.Action
	Err    error
}

// CommandSubmitMsg is emitted by the command bar when Enter is pressed.
type CommandSubmitMsg struct {
	Line string
}

// CommandCancelMsg is emitted when the command bar is dismissed.
type CommandCancelMsg struct{}

// StatusBarClearMsg clears a temporary status message if Seq is still current.
type StatusBarClearMsg struct {
	Seq int
}
