package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hdale/clockless/internal/application/content"
	"github.com/hdale/clockless/internal/auth"
	"github.com/hdale/clockless/internal/metrics"
	"github.com/hdale/clockless/internal/session"
)

// APIRoutes serves the public read surface and authenticated commenting.
type APIRoutes struct {
	sessionReader
	content   *content.Service
	collector *metrics.Collector
}

// NewAPIRoutes constructs the public API routes.
func NewAPIRoutes(sessions *session.Store, coordinator *auth.Coordinator, contentService *content.Service, collector *metrics.Collector) *APIRoutes {
	return &APIRoutes{
		sessionReader: sessionReader{sessions: sessions, coordinator: coordinator},
		content:       contentService,
		collector:     collector,
	}
}

// RegisterRoutes registers the public API on the server.
func (a *APIRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/api/hello", a.handleHello)
	s.GET("/api/posts", a.handleListPosts)
	s.GET("/api/posts/:id", a.handleGetPost)
	s.GET("/api/posts/:id/comments", a.handleListComments)
	s.POST("/api/posts/:id/comments", a.handleCreateComment)
}

func (a *APIRoutes) handleHello(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "In the Dusty Clockless Hours",
	})
}

func (a *APIRoutes) handleListPosts(c echo.Context) error {
	posts, err := a.content.ListPosts(c.Request().Context())
	if err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *APIRoutes) handleGetPost(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not_found")
	}
	post, err := a.content.GetPost(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusOK, post)
}

func (a *APIRoutes) handleListComments(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not_found")
	}
	comments, err := a.content.ListComments(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusOK, comments)
}

type createCommentRequest struct {
	Content string `json:"content"`
}

func (a *APIRoutes) handleCreateComment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not_found")
	}
	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_body")
	}

	comment, err := a.content.CreateComment(c.Request().Context(), a.identity(c), id, req.Content)
	if err != nil {
		return writeServiceError(c, a.collector, err)
	}
	return c.JSON(http.StatusCreated, comment)
}
