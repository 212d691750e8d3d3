// Package session holds all authenticated and in-flight login state in a
// signed client-side cookie. There is no server-side session table.
//
// The signing key has process-wide lifetime. When configured externally the
// same key is reused across restarts and sessions survive a redeploy; when
// absent a fresh key is generated at startup and every prior cookie fails
// verification, which readers observe as an empty session (everyone is
// implicitly logged out). Both modes are intentional.
package session

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const cookieName = "clockless-session"

// Reserved session keys.
const (
	// KeyCSRFToken is present only while a login is in flight.
	KeyCSRFToken = "csrf_token"
	// KeyIdentity is present from a completed login until logout or expiry.
	KeyIdentity = "identity"
)

// Store issues per-request session views backed by a signed cookie.
type Store struct {
	cookies *sessions.CookieStore
	name    string
}

// NewStore builds a cookie-backed session store signed with secret.
func NewStore(secret []byte, secure bool) *Store {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs, name: cookieName}
}

// NewRandomKey returns a fresh signing key for the ephemeral mode.
func NewRandomKey() []byte {
	return securecookie.GenerateRandomKey(32)
}

// Open reads the request cookie once and returns the per-request view.
// A cookie that is missing, expired, or fails signature verification yields
// an empty view; callers cannot distinguish tampering from absence.
func (s *Store) Open(r *http.Request, w http.ResponseWriter) *Session {
	sess, err := s.cookies.Get(r, s.name)
	if err != nil {
		// gorilla returns a blank session alongside decode errors; using it
		// fails closed without surfacing the error to callers.
		sess.Values = map[any]any{}
	}
	return &Session{sess: sess, req: r, res: w}
}

// Session is one request's view of the cookie session. Concurrent requests
// sharing a cookie each get their own view; the final cookie value is
// last-write-wins at the transport layer.
type Session struct {
	sess *sessions.Session
	req  *http.Request
	res  http.ResponseWriter
}

// Insert stores value under key. The last write for a key wins within one
// request; there are no partial or merged writes.
func (v *Session) Insert(key string, value any) {
	v.sess.Values[key] = value
}

// Get returns the value stored under key, or ok=false if absent.
func (v *Session) Get(key string) (any, bool) {
	value, ok := v.sess.Values[key]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// Purge invalidates the whole session: every key reads as absent and the
// cookie is expired on save.
func (v *Session) Purge() {
	v.sess.Values = map[any]any{}
	v.sess.Options.MaxAge = -1
}

// Save writes the session back to the response cookie. Handlers that mutate
// session state call this at most once before responding.
func (v *Session) Save() error {
	return v.sess.Save(v.req, v.res)
}
