package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Exchanger talks to the provider's OAuth endpoints.
type Exchanger interface {
	AuthCodeURL(state, redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (Credential, error)
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
}

// Authorizer runs the interactive part of the authorization-code flow and
// returns the code together with the redirect URI it was delivered to.
type Authorizer interface {
	Authorize(ctx context.Context, authURL func(state, redirectURI string) string) (code, redirectURI string, err error)
}

// CredentialWriter persists a credential after every successful exchange.
type CredentialWriter interface {
	WriteCredential(Credential) error
}

// DefaultRefreshSkew is how long before expires_at a token is refreshed.
const DefaultRefreshSkew = 60 * time.Second

// Options tunes a Lifecycle. Zero values pick defaults.
type Options struct {
	RefreshSkew time.Duration
	Now         func() time.Time
	Logger      zerolog.Logger
}

// Lifecycle owns the process-wide credential. AccessToken is the only way
// other components obtain a token.
type Lifecycle struct {
	mu    sync.Mutex
	state State
	cred  Credential

	exchanger  Exchanger
	authorizer Authorizer
	writer     CredentialWriter

	skew   time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewLifecycle starts from a stored credential. An empty access token
// starts Absent; a stored token past its expiry starts Expired.
func NewLifecycle(stored Credential, ex Exchanger, az Authorizer, w CredentialWriter, opts Options) *Lifecycle {
	l := &Lifecycle{
		cred:       stored,
		exchanger:  ex,
		authorizer: az,
		writer:     w,
		skew:       opts.RefreshSkew,
		now:        opts.Now,
		logger:     opts.Logger.With().Str("component", "auth").Logger(),
	}
	if l.skew <= 0 {
		l.skew = DefaultRefreshSkew
	}
	if l.now == nil {
		l.now = time.Now
	}

	switch {
	case stored.AccessToken == "":
		l.state = StateAbsent
	case l.nearingExpiry():
		l.state = StateExpired
	default:
		l.state = StateValid
	}
	return l
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Credential returns a copy of the current credential.
func (l *Lifecycle) Credential() Credential {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cred
}

// MarkExpired records that the provider rejected the current token. The
// next AccessToken call refreshes or re-authorizes.
func (l *Lifecycle) MarkExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateValid {
		l.setState(StateExpired)
	}
}

// AccessToken returns a token that is Valid at the time of the call,
// refreshing or re-running the browser login as needed.
func (l *Lifecycle) AccessToken(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateValid && l.nearingExpiry() {
		l.setState(StateExpired)
	}

	switch l.state {
	case StateValid:
		return l.cred.AccessToken, nil
	case StateExpired:
		err := l.refresh(ctx)
		if err == nil {
			return l.cred.AccessToken, nil
		}
		var rejected *RefreshRejectedError
		if !errors.As(err, &rejected) {
			return "", err
		}
		l.logger.Info().Err(err).Msg("refresh failed, falling back to browser login")
		l.setState(StateAbsent)
	}

	if err := l.authorize(ctx); err != nil {
		return "", err
	}
	return l.cred.AccessToken, nil
}

func (l *Lifecycle) refresh(ctx context.Context) error {
	if l.cred.RefreshToken == "" {
		return &RefreshRejectedError{Err: errors.New("no refresh token stored")}
	}

	l.setState(StateRefreshing)
	cred, err := l.exchanger.Refresh(ctx, l.cred.RefreshToken)
	if err != nil {
		l.setState(StateExpired)
		return fmt.Errorf("failed to refresh access token: %w", err)
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = l.cred.RefreshToken
	}
	l.accept(cred)
	return nil
}

func (l *Lifecycle) authorize(ctx context.Context) error {
	l.setState(StatePendingAuthorization)

	code, redirectURI, err := l.authorizer.Authorize(ctx, l.exchanger.AuthCodeURL)
	if err != nil {
		l.setState(StateAbsent)
		return err
	}

	cred, err := l.exchanger.Exchange(ctx, code, redirectURI)
	if err != nil {
		l.setState(StateAbsent)
		return &AuthExchangeError{Err: err}
	}
	l.accept(cred)
	return nil
}

func (l *Lifecycle) accept(cred Credential) {
	l.cred = cred
	l.setState(StateValid)
	if l.writer == nil {
		return
	}
	if err := l.writer.WriteCredential(cred); err != nil {
		l.logger.Error().Err(err).Msg("failed to persist credential")
		return
	}
	l.logger.Debug().Time("expires_at", cred.ExpiresAt).Msg("credential persisted")
}

func (l *Lifecycle) nearingExpiry() bool {
	if l.cred.ExpiresAt.IsZero() {
		return false
	}
	return !l.now().Add(l.skew).Before(l.cred.ExpiresAt)
}

func (l *Lifecycle) setState(s State) {
	if s == l.state {
		return
	}
	l.logger.Debug().Stringer("from", l.state).Stringer("to", s).Msg("credential state")
	l.state = s
}
