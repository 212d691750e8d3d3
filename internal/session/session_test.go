package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func roundTrip(t *testing.T, store *Store, mutate func(*Session)) []*http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	sess := store.Open(req, rec)
	mutate(sess)
	if err := sess.Save(); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return rec.Result().Cookies()
}

func openWithCookies(store *Store, cookies []*http.Cookie) *Session {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return store.Open(req, httptest.NewRecorder())
}

func TestInsertGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(NewRandomKey(), false)
	cookies := roundTrip(t, store, func(sess *Session) {
		sess.Insert(KeyCSRFToken, "token-1")
	})
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie to be set")
	}

	sess := openWithCookies(store, cookies)
	value, ok := sess.Get(KeyCSRFToken)
	if !ok {
		t.Fatal("expected csrf token to be present")
	}
	if value != "token-1" {
		t.Fatalf("unexpected value: %v", value)
	}
}

func TestInsertOverwritesPriorValue(t *testing.T) {
	t.Parallel()

	store := NewStore(NewRandomKey(), false)
	cookies := roundTrip(t, store, func(sess *Session) {
		sess.Insert(KeyCSRFToken, "old")
		sess.Insert(KeyCSRFToken, "new")
	})

	sess := openWithCookies(store, cookies)
	value, _ := sess.Get(KeyCSRFToken)
	if value != "new" {
		t.Fatalf("expected last write to win, got %v", value)
	}
}

func TestGetAbsentKey(t *testing.T) {
	t.Parallel()

	store := NewStore(NewRandomKey(), false)
	sess := openWithCookies(store, nil)
	if _, ok := sess.Get(KeyIdentity); ok {
		t.Fatal("expected absent for a never-set key")
	}
}

func TestTamperedCookieReadsAsAbsent(t *testing.T) {
	t.Parallel()

	store := NewStore(NewRandomKey(), false)
	cookies := roundTrip(t, store, func(sess *Session) {
		sess.Insert(KeyCSRFToken, "secret")
	})

	cookies[0].Value = cookies[0].Value + "tampered"
	sess := openWithCookies(store, cookies)
	if _, ok := sess.Get(KeyCSRFToken); ok {
		t.Fatal("expected tampered cookie to read as absent")
	}
}

func TestDifferentKeyCannotReadSession(t *testing.T) {
	t.Parallel()

	writer := NewStore(NewRandomKey(), false)
	cookies := roundTrip(t, writer, func(sess *Session) {
		sess.Insert(KeyCSRFToken, "secret")
	})

	// Simulates a restart in ephemeral-key mode: the new process generates
	// a fresh key and every prior cookie reads as an empty session.
	reader := NewStore(NewRandomKey(), false)
	sess := openWithCookies(reader, cookies)
	if _, ok := sess.Get(KeyCSRFToken); ok {
		t.Fatal("expected sessions signed with another key to be unreadable")
	}
}

func TestPurgeInvalidatesEverything(t *testing.T) {
	t.Parallel()

	store := NewStore(NewRandomKey(), false)
	cookies := roundTrip(t, store, func(sess *Session) {
		sess.Insert(KeyCSRFToken, "a")
		sess.Insert(KeyIdentity, "b")
	})

	sess := openWithCookies(store, cookies)
	sess.Purge()
	if _, ok := sess.Get(KeyCSRFToken); ok {
		t.Fatal("expected purge to clear csrf token")
	}
	if _, ok := sess.Get(KeyIdentity); ok {
		t.Fatal("expected purge to clear identity")
	}
}
