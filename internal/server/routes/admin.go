package routes

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hdale/clockless/internal/application/authz"
	"github.com/hdale/clockless/internal/application/content"
	"github.com/hdale/clockless/internal/auth"
	"github.com/hdale/clockless/internal/metrics"
	"github.com/hdale/clockless/internal/session"
)

// AdminRoutes serves the admin-gated mutation surface. Authorization happens
// inside the services, before any id or body is consulted against storage,
// so non-admins always see a denial and never learn whether a resource
// exists.
type AdminRoutes struct {
	sessionReader
	content   *content.Service
	gate      *authz.Service
	collector *metrics.Collector
}

// NewAdminRoutes constructs the admin routes.
func NewAdminRoutes(sessions *session.Store, coordinator *auth.Coordinator, contentService *content.Service, gate *authz.Service, collector *metrics.Collector) *AdminRoutes {
	return &AdminRoutes{
		sessionReader: sessionReader{sessions: sessions, coordinator: coordinator},
		content:       contentService,
		gate:          gate,
		collector:     collector,
	}
}

// RegisterRoutes registers the admin surface on the server.
func (a *AdminRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/admin/posts", a.handleCreatePost)
	s.PUT("/admin/posts/:id", a.handleUpdatePost)
	s.DELETE("/admin/posts/:id", a.handleDeletePost)
	s.DELETE("/admin/comments/:id", a.handleDeleteComment)
	s.GET("/admin/users", a.handleListAdmins)
	s.POST("/admin/users", a.handleAddAdmin)
	s.DELETE("/admin/users/:email", a.handleRemoveAdmin)
	s.GET("/admin/dashboard", a.handleDashboard)
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (a *AdminRoutes) handleCreatePost(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_body")
	}
	post, err := a.content.CreatePost(c.Request().Context(), a.identity(c), req.Title, req.Content)
	if err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusCreated, post)
}

func (a *AdminRoutes) handleUpdatePost(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not_found")
	}
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_body")
	}
	if err := a.content.UpdatePost(c.Request().Context(), a.identity(c), id, req.Title, req.Content); err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

func (a *AdminRoutes) handleDeletePost(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not_found")
	}
	if err := a.content.DeletePost(c.Request().Context(), a.identity(c), id); err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

func (a *AdminRoutes) handleDeleteComment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not_found")
	}
	if err := a.content.DeleteComment(c.Request().Context(), a.identity(c), id); err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

func (a *AdminRoutes) handleListAdmins(c echo.Context) error {
	admins, err := a.gate.ListAdmins(c.Request().Context(), a.identity(c))
	if err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusOK, admins)
}

type addAdminRequest struct {
	Email string `json:"email"`
}

func (a *AdminRoutes) handleAddAdmin(c echo.Context) error {
	var req addAdminRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_body")
	}
	admin, err := a.gate.AddAdmin(c.Request().Context(), a.identity(c), req.Email)
	if err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusCreated, admin)
}

func (a *AdminRoutes) handleRemoveAdmin(c echo.Context) error {
	email := c.Param("email")
	if err := a.gate.RemoveAdmin(c.Request().Context(), a.identity(c), email); err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

func (a *AdminRoutes) handleDashboard(c echo.Context) error {
	ident := a.identity(c)
	if err := a.gate.RequireAdmin(c.Request().Context(), ident); err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"secret": fmt.Sprintf("Welcome %s", ident.Email),
	})
}
