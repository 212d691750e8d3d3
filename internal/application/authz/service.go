// Package authz decides admin/non-admin from session identity plus the
// persisted admin roster, and owns roster mutation.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hdale/clockless/internal/app/ports"
	"github.com/hdale/clockless/internal/auth"
)

var (
	// ErrNotLoggedIn means no identity was present for a gated operation.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrNotAuthorized means an identity was present but is not on the roster.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrInvalidEmail rejects a roster mutation with an unusable address.
	ErrInvalidEmail = errors.New("invalid email")
)

// NormalizeEmail trims whitespace and case-folds an address. Every roster
// comparison goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Service is the authorization gate. It owns no data; it is a decision
// function over the session identity and the roster store.
type Service struct {
	roster ports.AdminRoster
}

// NewService constructs the gate over a roster store.
func NewService(roster ports.AdminRoster) *Service {
	return &Service{roster: roster}
}

// IsAdmin reports whether the identity's email is on the roster. Roster
// lookup failures deny: the error is logged and never surfaced.
func (s *Service) IsAdmin(ctx context.Context, ident auth.Identity) bool {
	email := NormalizeEmail(ident.Email)
	if email == "" {
		return false
	}
	ok, err := s.roster.IsAdmin(ctx, email)
	if err != nil {
		slog.Warn("roster lookup failed, denying", "error", err)
		return false
	}
	return ok
}

// RequireAdmin gates an operation on the caller's identity. The zero
// Identity means no login. The returned denial never reveals roster
// membership beyond the caller's own email.
func (s *Service) RequireAdmin(ctx context.Context, ident auth.Identity) error {
	if ident.Email == "" {
		return ErrNotLoggedIn
	}
	if !s.IsAdmin(ctx, ident) {
		return ErrNotAuthorized
	}
	return nil
}

// ListAdmins returns the roster to an admin caller.
func (s *Service) ListAdmins(ctx context.Context, caller auth.Identity) ([]ports.Admin, error) {
	if err := s.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	return s.roster.ListAdmins(ctx)
}

// AddAdmin inserts a normalized address for an admin caller.
// ports.ErrAlreadyExists when the address is already on the roster.
func (s *Service) AddAdmin(ctx context.Context, caller auth.Identity, email string) (ports.Admin, error) {
	if err := s.RequireAdmin(ctx, caller); err != nil {
		return ports.Admin{}, err
	}
	normalized := NormalizeEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") {
		return ports.Admin{}, ErrInvalidEmail
	}
	return s.roster.AddAdmin(ctx, normalized)
}

// RemoveAdmin removes a normalized address for an admin caller. The size
// check and the removal are one indivisible storage operation;
// ports.ErrLastAdminProtected when the roster would empty.
func (s *Service) RemoveAdmin(ctx context.Context, caller auth.Identity, email string) error {
	if err := s.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return ErrInvalidEmail
	}
	return s.roster.RemoveAdmin(ctx, normalized)
}

// Bootstrap seeds one admin into an empty roster so the system is never
// unrecoverable. Running it against a non-empty roster is a no-op.
func (s *Service) Bootstrap(ctx context.Context, seedEmail string) error {
	count, err := s.roster.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	normalized := NormalizeEmail(seedEmail)
	if normalized == "" {
		return fmt.Errorf("bootstrap admin email is empty")
	}
	if _, err := s.roster.AddAdmin(ctx, normalized); err != nil {
		// A concurrent bootstrap may have seeded first; that satisfies the
		// invariant.
		if errors.Is(err, ports.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.Info("bootstrapped initial admin", "email", normalized)
	return nil
}
