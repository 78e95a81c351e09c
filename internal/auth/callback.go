package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	successPage = `<html><body><h2>Authentication successful.</h2><p>You can close this tab and return to the terminal.</p></body></html>`
	failurePage = `<html><body><h2>Authentication failed.</h2><p>Return to the terminal for details.</p></body></html>`
)

type callbackResult struct {
	code    string
	state   string
	errDesc string
}

// CallbackListener receives the single OAuth redirect on a loopback address.
type CallbackListener struct {
	ln      net.Listener
	srv     *http.Server
	host    string
	results chan callbackResult
}

// ListenCallback starts listening on addr. A zero port picks a free one;
// use RedirectURI to learn the address the provider should redirect to.
func ListenCallback(addr string) (*CallbackListener, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid callback address %q: %w", addr, err)
	}
	if host == "" {
		host = "localhost"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	cb := &CallbackListener{
		ln:      ln,
		host:    host,
		results: make(chan callbackResult, 1),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/", cb.handle)

	cb.srv = &http.Server{Handler: e, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := cb.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cb.deliver(callbackResult{errDesc: err.Error()})
		}
	}()
	return cb, nil
}

// RedirectURI is the loopback URL this listener answers on.
func (cb *CallbackListener) RedirectURI() string {
	port := cb.ln.Addr().(*net.TCPAddr).Port
	return "http://" + net.JoinHostPort(cb.host, strconv.Itoa(port))
}

func (cb *CallbackListener) handle(c echo.Context) error {
	res := callbackResult{
		code:  c.QueryParam("code"),
		state: c.QueryParam("state"),
	}
	if res.code == "" {
		res.errDesc = c.QueryParam("error_description")
		if res.errDesc == "" {
			res.errDesc = c.QueryParam("error")
		}
		if res.errDesc == "" {
			res.errDesc = "callback carried no authorization code"
		}
	}

	if !cb.deliver(res) {
		return c.HTML(http.StatusGone, failurePage)
	}
	if res.code == "" {
		return c.HTML(http.StatusBadRequest, failurePage)
	}
	return c.HTML(http.StatusOK, successPage)
}

// deliver hands res to Wait; only the first callback counts.
func (cb *CallbackListener) deliver(res callbackResult) bool {
	select {
	case cb.results <- res:
		return true
	default:
		return false
	}
}

// Wait blocks until the redirect arrives and returns its authorization code.
// The callback's state must equal state.
func (cb *CallbackListener) Wait(ctx context.Context, state string, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-cb.results:
		if res.code == "" {
			return "", fmt.Errorf("authorization failed: %s", res.errDesc)
		}
		if res.state != state {
			return "", ErrStateMismatch
		}
		return res.code, nil
	case <-timer.C:
		return "", &AuthTimeoutError{Timeout: timeout}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the listener, letting an in-flight response finish.
func (cb *CallbackListener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return cb.srv.Shutdown(ctx)
}
