package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	// SessionSecret signs the session cookie. Empty means an ephemeral key
	// is generated at startup and all prior sessions are invalidated on
	// restart.
	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	SecureCookie       bool
	BootstrapAdmin     string
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("clockless_env", "")
	v.SetDefault("clockless_port", 8080)
	v.SetDefault("clockless_db_path", "data/blog")
	v.SetDefault("clockless_session_secret", "")
	v.SetDefault("clockless_secure_cookie", false)
	v.SetDefault("clockless_bootstrap_admin", "harrison.dale@googlemail.com")
	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("google_callback_url", "")

	port := v.GetInt("clockless_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid CLOCKLESS_PORT: %d", port)
	}

	callbackURL := strings.TrimSpace(v.GetString("google_callback_url"))
	if callbackURL == "" {
		callbackURL = fmt.Sprintf("http://localhost:%d/auth/callback", port)
	}

	bootstrapAdmin := strings.TrimSpace(v.GetString("clockless_bootstrap_admin"))
	if bootstrapAdmin == "" {
		return Config{}, fmt.Errorf("CLOCKLESS_BOOTSTRAP_ADMIN must not be empty")
	}

	return Config{
		Environment: strings.ToLower(strings.TrimSpace(v.GetString("clockless_env"))),
		Server: ServerConfig{
			Port: port,
		},
		Database: DatabaseConfig{
			Path: v.GetString("clockless_db_path"),
		},
		Auth: AuthConfig{
			SessionSecret:      v.GetString("clockless_session_secret"),
			GoogleClientID:     v.GetString("google_client_id"),
			GoogleClientSecret: v.GetString("google_client_secret"),
			GoogleCallbackURL:  callbackURL,
			SecureCookie:       v.GetBool("clockless_secure_cookie"),
			BootstrapAdmin:     bootstrapAdmin,
		},
	}, nil
}

func (c Config) IsLocalDevelopment() bool {
	switch c.Environment {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

// HasPersistentSessionKey reports whether sessions survive a restart.
func (c Config) HasPersistentSessionKey() bool {
	return c.Auth.SessionSecret != ""
}
