package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	gl "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"
)

// TokenSource supplies access tokens and is told when one is rejected.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	MarkExpired()
}

// DefaultRequestsPerSecond throttles API calls when Options leaves it unset.
const DefaultRequestsPerSecond = 5

// Options tunes a Client.
type Options struct {
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            zerolog.Logger
}

// Client talks to one GitLab instance's REST API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     zerolog.Logger

	mu       sync.Mutex
	api      *gl.Client
	apiToken string
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL string, tokens TokenSource, opts Options) *Client {
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger.With().Str("component", "gitlab").Logger(),
	}
}

// client returns an API client carrying the current access token. It is
// rebuilt whenever the token changes.
func (c *Client) client(ctx context.Context) (*gl.Client, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api != nil && c.apiToken == token {
		return c.api, nil
	}

	options := []gl.ClientOptionFunc{
		gl.WithBaseURL(c.baseURL),
		gl.WithCustomLimiter(c.limiter),
		gl.WithoutRetries(),
	}
	if c.httpClient != nil {
		options = append(options, gl.WithHTTPClient(c.httpClient))
	}
	api, err := gl.NewOAuthClient(token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	c.api, c.apiToken = api, token
	return api, nil
}

// call acquires a client, runs fn, and classifies the failure.
func (c *Client) call(ctx context.Context, op string, fn func(api *gl.Client) (*gl.Response, error)) error {
	api, err := c.client(ctx)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return &TransientError{Op: op, Err: err}
		}
		return err
	}

	resp, err := fn(api)
	if err != nil {
		err = c.classify(op, resp, err)
		c.logger.Debug().Err(err).Str("op", op).Msg("request failed")
		return err
	}
	return nil
}

func (c *Client) classify(op string, resp *gl.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var errResp *gl.ErrorResponse
	if status == 0 && errors.As(err, &errResp) && errResp.Response != nil {
		status = errResp.Response.StatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.tokens.MarkExpired()
		return &AuthorizationError{Op: op, StatusCode: status, Err: err}
	case status == 0:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &TransientError{Op: op, Err: err}
	case status == http.StatusTooManyRequests || status >= 500:
		return &TransientError{Op: op, StatusCode: status, Err: err}
	default:
		return fmt.Errorf("gitlab %s: %w", op, err)
	}
}
