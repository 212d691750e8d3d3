package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "data/blog" {
		t.Fatalf("db path = %q", cfg.Database.Path)
	}
	if cfg.Auth.GoogleCallbackURL != "http://localhost:8080/auth/callback" {
		t.Fatalf("callback = %q", cfg.Auth.GoogleCallbackURL)
	}
	if cfg.Auth.BootstrapAdmin != "harrison.dale@googlemail.com" {
		t.Fatalf("bootstrap admin = %q", cfg.Auth.BootstrapAdmin)
	}
	if !cfg.IsLocalDevelopment() {
		t.Fatal("empty environment should count as local development")
	}
	if cfg.HasPersistentSessionKey() {
		t.Fatal("no secret configured, key should be ephemeral")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CLOCKLESS_ENV", "Production")
	t.Setenv("CLOCKLESS_PORT", "9999")
	t.Setenv("CLOCKLESS_DB_PATH", "/tmp/blog")
	t.Setenv("CLOCKLESS_SESSION_SECRET", "super-secret")
	t.Setenv("CLOCKLESS_SECURE_COOKIE", "true")
	t.Setenv("CLOCKLESS_BOOTSTRAP_ADMIN", "ops@example.com")
	t.Setenv("GOOGLE_CALLBACK_URL", "https://blog.example.com/auth/callback")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "production" {
		t.Fatalf("environment = %q", cfg.Environment)
	}
	if cfg.IsLocalDevelopment() {
		t.Fatal("production must not count as local development")
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if !cfg.Auth.SecureCookie {
		t.Fatal("secure cookie should be on")
	}
	if cfg.Auth.GoogleCallbackURL != "https://blog.example.com/auth/callback" {
		t.Fatalf("callback = %q", cfg.Auth.GoogleCallbackURL)
	}
	if !cfg.HasPersistentSessionKey() {
		t.Fatal("configured secret should be persistent")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("CLOCKLESS_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestLoadRejectsEmptyBootstrapAdmin(t *testing.T) {
	t.Setenv("CLOCKLESS_BOOTSTRAP_ADMIN", "   ")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty bootstrap admin")
	}
}

func TestCallbackDefaultTracksPort(t *testing.T) {
	t.Setenv("CLOCKLESS_PORT", "3000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.GoogleCallbackURL != "http://localhost:3000/auth/callback" {
		t.Fatalf("callback = %q", cfg.Auth.GoogleCallbackURL)
	}
}
