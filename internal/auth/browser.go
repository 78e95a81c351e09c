package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultAuthTimeout bounds how long the browser login may take.
const DefaultAuthTimeout = 3 * time.Minute

// BrowserAuthorizer opens the provider's authorize page in the user's
// browser and waits for the redirect on a loopback listener.
type BrowserAuthorizer struct {
	Addr    string        // callback listen address, e.g. "localhost:7890"
	Timeout time.Duration // zero means DefaultAuthTimeout

	// Out receives the fallback instructions. Nil means os.Stderr.
	Out io.Writer
	// Open launches a browser. Nil means OpenBrowser.
	Open   func(url string) error
	Logger zerolog.Logger
}

// Authorize implements Authorizer.
func (b *BrowserAuthorizer) Authorize(ctx context.Context, authURL func(state, redirectURI string) string) (string, string, error) {
	cb, err := ListenCallback(b.Addr)
	if err != nil {
		return "", "", fmt.Errorf("failed to start authorization callback: %w", err)
	}
	defer cb.Close()

	out := b.Out
	if out == nil {
		out = os.Stderr
	}
	open := b.Open
	if open == nil {
		open = OpenBrowser
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}

	state := uuid.NewString()
	redirectURI := cb.RedirectURI()
	u := authURL(state, redirectURI)

	fmt.Fprintf(out, "Opening your browser to authorize with GitLab.\nIf it does not open, visit:\n\n  %s\n\n", u)
	if err := open(u); err != nil {
		b.Logger.Warn().Err(err).Msg("failed to open browser")
	}
	fmt.Fprintf(out, "Waiting up to %s for the redirect on %s ...\n", timeout, redirectURI)

	code, err := cb.Wait(ctx, state, timeout)
	if err != nil {
		return "", "", err
	}
	b.Logger.Info().Str("redirect_uri", redirectURI).Msg("authorization code received")
	return code, redirectURI, nil
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default: // linux, freebsd, etc.
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
