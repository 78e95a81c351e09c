package notify

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Runner executes an external command. Tests inject a fake.
type Runner func(name string, args ...string) error

// Notifier delivers OS-level notifications: osascript on macOS,
// notify-send on Linux, and a terminal bell everywhere else or when the
// platform tool fails.
type Notifier struct {
	App  string
	GOOS string
	Run  Runner
	Bell io.Writer
}

// New returns a Notifier for the current platform.
func New(app string) *Notifier {
	return &Notifier{
		App:  app,
		GOOS: runtime.GOOS,
		Run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
		Bell: os.Stdout,
	}
}

// Send delivers a notification. Errors are returned, but callers usually
// ignore them.
func (n *Notifier) Send(title, body string) error {
	var err error
	switch n.GOOS {
	case "darwin":
		script := fmt.Sprintf(
			`display notification %s with title %s`,
			escapeAppleScript(body),
			escapeAppleScript(title),
		)
		err = n.Run("osascript", "-e", script)
	case "linux":
		err = n.Run("notify-send", "-a", n.App, title, body)
	default:
		return n.bell()
	}
	if err != nil {
		if bellErr := n.bell(); bellErr != nil {
			return bellErr
		}
		return fmt.Errorf("%s notification failed, rang bell instead: %w", n.GOOS, err)
	}
	return nil
}

// ReviewComplete announces that every diff of a merge request has been
// reviewed.
func (n *Notifier) ReviewComplete(project string, iid, approved int) error {
	return n.Send(
		fmt.Sprintf("%s: review complete", n.App),
		fmt.Sprintf("%s!%d: all %d diffs reviewed", project, iid, approved),
	)
}

func (n *Notifier) bell() error {
	if n.Bell == nil {
		return nil
	}
	_, err := io.WriteString(n.Bell, "\a")
	return err
}

// escapeAppleScript returns a quoted AppleScript string with internal
// quotes and backslashes escaped.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
