// Package auth drives the external-IdP authorization-code login flow.
package auth

import (
	"encoding/base64"
	"encoding/gob"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/markbates/goth"

	"github.com/hdale/clockless/internal/session"
)

// Identity is the authenticated visitor derived from the IdP profile on each
// login. It lives only inside the session; display name is denormalized into
// content rows at creation time.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func init() {
	gob.Register(Identity{})
}

// Login failures, in the order the flow can reject them.
var (
	ErrMissingCsrf        = errors.New("missing csrf token")
	ErrCsrfMismatch       = errors.New("csrf token mismatch")
	ErrExchangeFailed     = errors.New("code exchange failed")
	ErrProfileFetchFailed = errors.New("profile fetch failed")
)

// Coordinator runs the per-login state machine against one OAuth provider.
type Coordinator struct {
	provider goth.Provider
}

// NewCoordinator constructs a coordinator for the given provider.
func NewCoordinator(provider goth.Provider) *Coordinator {
	return &Coordinator{provider: provider}
}

// BeginLogin generates a fresh CSRF token, stores it in the session
// (discarding any prior in-flight token, so only one attempt is in flight
// per session), and returns the IdP authorization URL carrying the token as
// the state parameter.
func (c *Coordinator) BeginLogin(sess *session.Session) (string, error) {
	state := newStateToken()
	gsess, err := c.provider.BeginAuth(state)
	if err != nil {
		return "", fmt.Errorf("begin auth: %w", err)
	}
	authURL, err := gsess.GetAuthURL()
	if err != nil {
		return "", fmt.Errorf("resolve auth url: %w", err)
	}
	sess.Insert(session.KeyCSRFToken, state)
	return authURL, nil
}

// CompleteLogin validates state against the stored CSRF token, exchanges the
// authorization code, fetches the profile, and stores the resulting identity
// in the session, overwriting any prior one.
//
// The CSRF comparison happens before any network call. The stored token is
// not cleared on success or failure: a replayed (code, state) pair still
// fails at the exchange because the IdP rejects reused codes; single-use of
// the code is the IdP's job, not this coordinator's.
func (c *Coordinator) CompleteLogin(sess *session.Session, code, state string) (Identity, error) {
	stored, ok := sess.Get(session.KeyCSRFToken)
	token, _ := stored.(string)
	if !ok || token == "" {
		return Identity{}, ErrMissingCsrf
	}
	if state != token {
		return Identity{}, ErrCsrfMismatch
	}

	// Rebuilding the provider session from the stored state is a pure URL
	// computation; the first network call is the code exchange below.
	gsess, err := c.provider.BeginAuth(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	params := url.Values{}
	params.Set("code", code)
	params.Set("state", state)
	if _, err := gsess.Authorize(c.provider, params); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	profile, err := c.provider.FetchUser(gsess)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}

	ident := Identity{
		Email: strings.TrimSpace(profile.Email),
		Name:  strings.TrimSpace(profile.Name),
	}
	if ident.Email == "" {
		return Identity{}, fmt.Errorf("%w: profile has no email", ErrProfileFetchFailed)
	}
	if ident.Name == "" {
		ident.Name = strings.Split(ident.Email, "@")[0]
	}

	sess.Insert(session.KeyIdentity, ident)
	return ident, nil
}

// CurrentIdentity reads the authenticated identity from the session.
func (c *Coordinator) CurrentIdentity(sess *session.Session) (Identity, bool) {
	value, ok := sess.Get(session.KeyIdentity)
	if !ok {
		return Identity{}, false
	}
	ident, ok := value.(Identity)
	if !ok || ident.Email == "" {
		return Identity{}, false
	}
	return ident, true
}

// Logout invalidates the whole session.
func (c *Coordinator) Logout(sess *session.Session) {
	sess.Purge()
}

func newStateToken() string {
	return base64.URLEncoding.EncodeToString(securecookie.GenerateRandomKey(64))
}
