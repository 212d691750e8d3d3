package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/markbates/goth"
	"golang.org/x/oauth2"

	"github.com/hdale/clockless/internal/session"
)

type stubSession struct {
	provider *stubProvider
	authURL  string
}

func (s *stubSession) GetAuthURL() (string, error) {
	return s.authURL, nil
}

func (s *stubSession) Marshal() string {
	return s.authURL
}

func (s *stubSession) Authorize(_ goth.Provider, params goth.Params) (string, error) {
	s.provider.authorizeCalls++
	s.provider.lastCode = params.Get("code")
	if s.provider.authorizeErr != nil {
		return "", s.provider.authorizeErr
	}
	return "access-token", nil
}

type stubProvider struct {
	authorizeCalls int
	fetchCalls     int
	lastCode       string
	authorizeErr   error
	fetchErr       error
	user           goth.User
}

func (p *stubProvider) Name() string    { return "stub" }
func (p *stubProvider) SetName(string)  {}
func (p *stubProvider) Debug(bool)      {}
func (p *stubProvider) RefreshTokenAvailable() bool { return false }

func (p *stubProvider) RefreshToken(string) (*oauth2.Token, error) {
	return nil, errors.New("refresh not supported")
}

func (p *stubProvider) BeginAuth(state string) (goth.Session, error) {
	return &stubSession{provider: p, authURL: "https://idp.example/authorize?state=" + state}, nil
}

func (p *stubProvider) UnmarshalSession(value string) (goth.Session, error) {
	return &stubSession{provider: p, authURL: value}, nil
}

func (p *stubProvider) FetchUser(goth.Session) (goth.User, error) {
	p.fetchCalls++
	if p.fetchErr != nil {
		return goth.User{}, p.fetchErr
	}
	return p.user, nil
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	store := session.NewStore(session.NewRandomKey(), false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return store.Open(req, httptest.NewRecorder())
}

func TestBeginLoginStoresTokenAndBuildsURL(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	coordinator := NewCoordinator(provider)
	sess := newTestSession(t)

	authURL, err := coordinator.BeginLogin(sess)
	if err != nil {
		t.Fatalf("begin login: %v", err)
	}

	value, ok := sess.Get(session.KeyCSRFToken)
	if !ok {
		t.Fatal("expected csrf token in session")
	}
	token, _ := value.(string)
	if token == "" {
		t.Fatal("expected non-empty csrf token")
	}
	if authURL != "https://idp.example/authorize?state="+token {
		t.Fatalf("auth url does not carry the token as state: %q", authURL)
	}
}

func TestBeginLoginDiscardsPriorToken(t *testing.T) {
	t.Parallel()

	coordinator := NewCoordinator(&stubProvider{})
	sess := newTestSession(t)

	if _, err := coordinator.BeginLogin(sess); err != nil {
		t.Fatalf("first begin: %v", err)
	}
	first, _ := sess.Get(session.KeyCSRFToken)
	if _, err := coordinator.BeginLogin(sess); err != nil {
		t.Fatalf("second begin: %v", err)
	}
	second, _ := sess.Get(session.KeyCSRFToken)
	if first == second {
		t.Fatal("expected a fresh token per attempt")
	}
}

func TestCompleteLoginMissingCsrf(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	coordinator := NewCoordinator(provider)
	sess := newTestSession(t)

	_, err := coordinator.CompleteLogin(sess, "code", "state")
	if !errors.Is(err, ErrMissingCsrf) {
		t.Fatalf("expected ErrMissingCsrf, got %v", err)
	}
	if provider.authorizeCalls != 0 {
		t.Fatal("no exchange may happen without a stored token")
	}
	if _, ok := coordinator.CurrentIdentity(sess); ok {
		t.Fatal("identity must stay unset")
	}
}

func TestCompleteLoginCsrfMismatchRejectedBeforeExchange(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	coordinator := NewCoordinator(provider)
	sess := newTestSession(t)
	sess.Insert(session.KeyCSRFToken, "xyz")

	_, err := coordinator.CompleteLogin(sess, "code", "abc")
	if !errors.Is(err, ErrCsrfMismatch) {
		t.Fatalf("expected ErrCsrfMismatch, got %v", err)
	}
	if provider.authorizeCalls != 0 || provider.fetchCalls != 0 {
		t.Fatal("mismatch must be rejected before any IdP call")
	}
	if _, ok := coordinator.CurrentIdentity(sess); ok {
		t.Fatal("identity must stay unset")
	}
}

func TestCompleteLoginExchangeFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{authorizeErr: errors.New("idp says no")}
	coordinator := NewCoordinator(provider)
	sess := newTestSession(t)
	sess.Insert(session.KeyCSRFToken, "tok")

	_, err := coordinator.CompleteLogin(sess, "bad-code", "tok")
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("expected ErrExchangeFailed, got %v", err)
	}
	if provider.fetchCalls != 0 {
		t.Fatal("profile must not be fetched after a failed exchange")
	}
	if _, ok := coordinator.CurrentIdentity(sess); ok {
		t.Fatal("identity must stay unset")
	}
}

func TestCompleteLoginProfileFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{fetchErr: errors.New("profile unavailable")}
	coordinator := NewCoordinator(provider)
	sess := newTestSession(t)
	sess.Insert(session.KeyCSRFToken, "tok")

	_, err := coordinator.CompleteLogin(sess, "code", "tok")
	if !errors.Is(err, ErrProfileFetchFailed) {
		t.Fatalf("expected ErrProfileFetchFailed, got %v", err)
	}
	if _, ok := coordinator.CurrentIdentity(sess); ok {
		t.Fatal("identity must stay unset")
	}
}

func TestCompleteLoginEmptyEmailIsProfileFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{user: goth.User{Name: "No Email"}}
	coordinator := NewCoordinator(provider)
	sess := newTestSession(t)
	sess.Insert(session.KeyCSRFToken, "tok")

	_, err := coordinator.CompleteLogin(sess, "code", "tok")
	if !errors.Is(err, ErrProfileFetchFailed) {
		t.Fatalf("expected ErrProfileFetchFailed, got %v", err)
	}
}

func TestCompleteLoginSuccessSetsIdentity(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{user: goth.User{Email: " Dale@Example.com ", Name: "Harrison Dale"}}
	coordinator := NewCoordinator(provider)
	sess := newTestSession(t)
	sess.Insert(session.KeyCSRFToken, "tok")

	ident, err := coordinator.CompleteLogin(sess, "good-code", "tok")
	if err != nil {
		t.Fatalf("complete login: %v", err)
	}
	if provider.lastCode != "good-code" {
		t.Fatalf("exchange used wrong code: %q", provider.lastCode)
	}
	if ident.Email != "Dale@Example.com" || ident.Name != "Harrison Dale" {
		t.Fatalf("unexpected identity: %+v", ident)
	}

	current, ok := coordinator.CurrentIdentity(sess)
	if !ok {
		t.Fatal("expected identity in session")
	}
	if current != ident {
		t.Fatalf("session identity differs: %+v", current)
	}
}

func TestCompleteLoginOverwritesPriorIdentity(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{user: goth.User{Email: "new@x.com", Name: "New"}}
	coordinator := NewCoordinator(provider)
	sess := newTestSession(t)
	sess.Insert(session.KeyIdentity, Identity{Email: "old@x.com", Name: "Old"})
	sess.Insert(session.KeyCSRFToken, "tok")

	if _, err := coordinator.CompleteLogin(sess, "code", "tok"); err != nil {
		t.Fatalf("complete login: %v", err)
	}
	current, _ := coordinator.CurrentIdentity(sess)
	if current.Email != "new@x.com" {
		t.Fatalf("expected identity overwrite, got %+v", current)
	}
}

func TestLogoutPurgesSession(t *testing.T) {
	t.Parallel()

	coordinator := NewCoordinator(&stubProvider{})
	sess := newTestSession(t)
	sess.Insert(session.KeyIdentity, Identity{Email: "a@x.com"})

	coordinator.Logout(sess)
	if _, ok := coordinator.CurrentIdentity(sess); ok {
		t.Fatal("expected identity gone after logout")
	}
}

func TestFallbackNameFromEmail(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{user: goth.User{Email: "harrison@x.com"}}
	coordinator := NewCoordinator(provider)
	sess := newTestSession(t)
	sess.Insert(session.KeyCSRFToken, "tok")

	ident, err := coordinator.CompleteLogin(sess, "code", "tok")
	if err != nil {
		t.Fatalf("complete login: %v", err)
	}
	if ident.Name != "harrison" {
		t.Fatalf("expected local-part fallback name, got %q", ident.Name)
	}
}
