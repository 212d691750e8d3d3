// Package content holds the gated content operations. Every mutating
// operation checks authorization before touching storage, so a denial never
// causes a partial write.
package content

import (
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hdale/clockless/internal/app/ports"
	"github.com/hdale/clockless/internal/application/authz"
	"github.com/hdale/clockless/internal/auth"
)

// Service applies authorization and input policy in front of the content
// store.
type Service struct {
	store ports.ContentStore
	gate  *authz.Service
	ugc   *bluemonday.Policy
}

// NewService constructs the content service. Comment content is untrusted
// visitor input and passes through bluemonday's UGC policy before storage.
func NewService(store ports.ContentStore, gate *authz.Service) *Service {
	return &Service{store: store, gate: gate, ugc: bluemonday.UGCPolicy()}
}

// ListPosts returns all posts, newest first. No identity required.
func (s *Service) ListPosts(ctx context.Context) ([]ports.Post, error) {
	return s.store.ListPosts(ctx)
}

// GetPost returns one post. No identity required.
func (s *Service) GetPost(ctx context.Context, id int64) (ports.Post, error) {
	return s.store.GetPost(ctx, id)
}

// ListComments returns a post's comments in creation order. No identity
// required.
func (s *Service) ListComments(ctx context.Context, postID int64) ([]ports.Comment, error) {
	return s.store.ListComments(ctx, postID)
}

// CreatePost creates a post for an admin caller, denormalizing the caller's
// display name as the author.
func (s *Service) CreatePost(ctx context.Context, caller auth.Identity, title, content string) (ports.Post, error) {
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return ports.Post{}, err
	}
	return s.store.CreatePost(ctx, ports.CreatePostInput{
		Title:      strings.TrimSpace(title),
		Content:    content,
		AuthorName: authorName(caller),
	})
}

// UpdatePost replaces the mutable fields of one post for an admin caller.
// Authorization runs before the id is consulted, so non-admins always see a
// denial regardless of whether the post exists.
func (s *Service) UpdatePost(ctx context.Context, caller auth.Identity, id int64, title, content string) error {
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	return s.store.UpdatePost(ctx, id, ports.UpdatePostInput{
		Title:   strings.TrimSpace(title),
		Content: content,
	})
}

// DeletePost removes one post for an admin caller.
func (s *Service) DeletePost(ctx context.Context, caller auth.Identity, id int64) error {
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	return s.store.DeletePost(ctx, id)
}

// CreateComment creates a comment for any authenticated caller, admin or
// not. Content is sanitized before storage.
func (s *Service) CreateComment(ctx context.Context, caller auth.Identity, postID int64, content string) (ports.Comment, error) {
	if caller.Email == "" {
		return ports.Comment{}, authz.ErrNotLoggedIn
	}
	return s.store.CreateComment(ctx, ports.CreateCommentInput{
		PostID:     postID,
		AuthorName: authorName(caller),
		Content:    s.ugc.Sanitize(content),
	})
}

// DeleteComment removes one comment for an admin caller.
func (s *Service) DeleteComment(ctx context.Context, caller auth.Identity, id int64) error {
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	return s.store.DeleteComment(ctx, id)
}

func authorName(ident auth.Identity) string {
	if name := strings.TrimSpace(ident.Name); name != "" {
		return name
	}
	return strings.Split(ident.Email, "@")[0]
}
