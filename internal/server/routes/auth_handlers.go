package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hdale/clockless/internal/auth"
	"github.com/hdale/clockless/internal/metrics"
)

func (a *AuthRoutes) handleLogin(c echo.Context) error {
	sess := a.sessions.Open(c.Request(), c.Response())
	if _, ok := a.coordinator.CurrentIdentity(sess); ok {
		return c.Redirect(http.StatusFound, "/")
	}

	authURL, err := a.coordinator.BeginLogin(sess)
	if err != nil {
		return err
	}
	if err := sess.Save(); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, authURL)
}

func (a *AuthRoutes) handleCallback(c echo.Context) error {
	sess := a.sessions.Open(c.Request(), c.Response())
	code := c.QueryParam("code")
	state := c.QueryParam("state")

	_, err := a.coordinator.CompleteLogin(sess, code, state)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMissingCsrf):
		a.collector.RecordLoginOutcome(metrics.OutcomeMissingCsrf)
		return errorJSON(c, http.StatusBadRequest, "missing_csrf")
	case errors.Is(err, auth.ErrCsrfMismatch):
		a.collector.RecordLoginOutcome(metrics.OutcomeCsrfMismatch)
		return errorJSON(c, http.StatusBadRequest, "csrf_mismatch")
	case errors.Is(err, auth.ErrExchangeFailed):
		// IdP detail stays in the log; the client gets a generic failure.
		slog.Warn("oauth code exchange failed", "error", err)
		a.collector.RecordLoginOutcome(metrics.OutcomeExchangeFailed)
		return errorJSON(c, http.StatusBadGateway, "login_failed")
	case errors.Is(err, auth.ErrProfileFetchFailed):
		slog.Warn("oauth profile fetch failed", "error", err)
		a.collector.RecordLoginOutcome(metrics.OutcomeProfileFetchFailed)
		return errorJSON(c, http.StatusBadGateway, "login_failed")
	default:
		return err
	}

	a.collector.RecordLoginOutcome(metrics.OutcomeAuthenticated)
	if err := sess.Save(); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}

func (a *AuthRoutes) handleMe(c echo.Context) error {
	sess := a.sessions.Open(c.Request(), c.Response())
	ident, ok := a.coordinator.CurrentIdentity(sess)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "not_logged_in")
	}
	return c.JSON(http.StatusOK, ident)
}

func (a *AuthRoutes) handleLogout(c echo.Context) error {
	sess := a.sessions.Open(c.Request(), c.Response())
	a.coordinator.Logout(sess)
	if err := sess.Save(); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}
