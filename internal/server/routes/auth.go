package routes

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/google"
	"golang.org/x/time/rate"

	"github.com/hdale/clockless/internal/auth"
	"github.com/hdale/clockless/internal/metrics"
	"github.com/hdale/clockless/internal/session"
)

// AuthConfig configures the Google OAuth provider.
type AuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// NewGoogleProvider builds the Google provider with the scopes the identity
// flow needs. prompt=select_account forces the account chooser so a shared
// browser does not silently reuse the previous Google login.
func NewGoogleProvider(config AuthConfig) goth.Provider {
	p := google.New(
		config.GoogleClientID,
		config.GoogleClientSecret,
		config.GoogleCallbackURL,
		"email",
		"profile",
	)
	p.SetPrompt("select_account")
	return p
}

// AuthRoutes registers the login, callback, identity, and logout endpoints.
type AuthRoutes struct {
	sessionReader
	collector *metrics.Collector
}

// NewAuthRoutes constructs auth routes.
func NewAuthRoutes(sessions *session.Store, coordinator *auth.Coordinator, collector *metrics.Collector) *AuthRoutes {
	return &AuthRoutes{
		sessionReader: sessionReader{sessions: sessions, coordinator: coordinator},
		collector:     collector,
	}
}

// RegisterRoutes registers authentication routes on the server. The group is
// rate limited per client IP to slow down login abuse.
func (a *AuthRoutes) RegisterRoutes(s *echo.Echo) {
	g := s.Group("/auth", middleware.RateLimiter(
		middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(5),
			Burst:     20,
			ExpiresIn: 3 * time.Minute,
		}),
	))
	g.GET("/login", a.handleLogin)
	g.GET("/callback", a.handleCallback)
	g.GET("/me", a.handleMe)
	g.GET("/logout", a.handleLogout)
}
