package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hdale/clockless/internal/app/ports"
	"github.com/hdale/clockless/internal/application/authz"
	"github.com/hdale/clockless/internal/auth"
	"github.com/hdale/clockless/internal/metrics"
	"github.com/hdale/clockless/internal/session"
)

// sessionReader reads the caller's identity once per request. The zero
// Identity means anonymous.
type sessionReader struct {
	sessions    *session.Store
	coordinator *auth.Coordinator
}

func (s sessionReader) identity(c echo.Context) auth.Identity {
	sess := s.sessions.Open(c.Request(), c.Response())
	ident, _ := s.coordinator.CurrentIdentity(sess)
	return ident
}

func errorJSON(c echo.Context, status int, reason string) error {
	return c.JSON(status, map[string]string{"error": reason})
}

// writeServiceError maps service errors onto the HTTP taxonomy. Denials and
// expected store outcomes get reason codes; everything else is a backend
// failure, logged in detail and returned as a generic 500.
func writeServiceError(c echo.Context, collector *metrics.Collector, err error) error {
	switch {
	case errors.Is(err, authz.ErrNotLoggedIn):
		collector.RecordAuthzDenial(metrics.DenialNotLoggedIn)
		return errorJSON(c, http.StatusUnauthorized, "not_logged_in")
	case errors.Is(err, authz.ErrNotAuthorized):
		collector.RecordAuthzDenial(metrics.DenialNotAuthorized)
		return errorJSON(c, http.StatusForbidden, "not_authorized")
	case errors.Is(err, authz.ErrInvalidEmail):
		return errorJSON(c, http.StatusBadRequest, "invalid_email")
	case errors.Is(err, ports.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "not_found")
	case errors.Is(err, ports.ErrAlreadyExists):
		return errorJSON(c, http.StatusBadRequest, "already_exists")
	case errors.Is(err, ports.ErrLastAdminProtected):
		return errorJSON(c, http.StatusBadRequest, "last_admin")
	default:
		slog.Error("storage failure", "error", err)
		return errorJSON(c, http.StatusInternalServerError, "internal")
	}
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
