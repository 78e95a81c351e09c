package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// OAuthExchanger implements Exchanger against a GitLab instance's
// /oauth/authorize and /oauth/token endpoints.
type OAuthExchanger struct {
	conf   oauth2.Config
	client *http.Client
}

// NewOAuthExchanger builds an exchanger for the instance at baseURL
// (e.g. "https://gitlab.com").
func NewOAuthExchanger(baseURL, clientID, clientSecret string, scopes []string) *OAuthExchanger {
	base := strings.TrimRight(baseURL, "/")
	return &OAuthExchanger{
		conf: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth/authorize",
				TokenURL:  base + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// WithHTTPClient sets the client used for token requests.
func (x *OAuthExchanger) WithHTTPClient(c *http.Client) *OAuthExchanger {
	x.client = c
	return x
}

func (x *OAuthExchanger) AuthCodeURL(state, redirectURI string) string {
	conf := x.conf
	conf.RedirectURL = redirectURI
	return conf.AuthCodeURL(state)
}

func (x *OAuthExchanger) Exchange(ctx context.Context, code, redirectURI string) (Credential, error) {
	conf := x.conf
	conf.RedirectURL = redirectURI
	tok, err := conf.Exchange(x.context(ctx), code)
	if err != nil {
		return Credential{}, err
	}
	return fromToken(tok), nil
}

// Refresh trades refreshToken for a new credential. A provider rejection is
// returned as *RefreshRejectedError; anything else is a transport failure.
func (x *OAuthExchanger) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	src := x.conf.TokenSource(x.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && (re.Response == nil || re.Response.StatusCode < 500) {
			return Credential{}, &RefreshRejectedError{Err: err}
		}
		return Credential{}, err
	}
	return fromToken(tok), nil
}

func (x *OAuthExchanger) context(ctx context.Context) context.Context {
	if x.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, x.client)
}

func fromToken(tok *oauth2.Token) Credential {
	return Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
}
