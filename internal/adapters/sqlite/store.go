// Package sqlite adapts the database layer to the app-level store ports.
// Future adapters (e.g. Postgres) should implement the same ports.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/hdale/clockless/internal/app/ports"
	"github.com/hdale/clockless/internal/db"
)

// Store is the sqlite-backed implementation of ContentStore and AdminRoster.
type Store struct {
	database *db.Database
}

// NewStore constructs a sqlite adapter around the shared database.
func NewStore(database *db.Database) *Store {
	return &Store{database: database}
}

var (
	_ ports.ContentStore = (*Store)(nil)
	_ ports.AdminRoster  = (*Store)(nil)
)

func mapPost(row db.Post) ports.Post {
	return ports.Post{
		ID:         row.ID,
		Title:      row.Title,
		Content:    row.Content,
		CreatedAt:  row.CreatedAt.UTC(),
		AuthorName: row.AuthorName,
	}
}

func mapComment(row db.Comment) ports.Comment {
	return ports.Comment{
		ID:         row.ID,
		PostID:     row.PostID,
		AuthorName: row.AuthorName,
		Content:    row.Content,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

func mapAdmin(row db.Admin) ports.Admin {
	return ports.Admin{Email: row.Email, CreatedAt: row.CreatedAt.UTC()}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ListPosts returns all posts, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]ports.Post, error) {
	rows, err := s.database.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ports.Post, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapPost(row))
	}
	return out, nil
}

// GetPost returns one post by id.
func (s *Store) GetPost(ctx context.Context, id int64) (ports.Post, error) {
	row, err := s.database.GetPost(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Post{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.Post{}, err
	}
	return mapPost(row), nil
}

// CreatePost inserts a post with a server-assigned id and timestamp.
func (s *Store) CreatePost(ctx context.Context, input ports.CreatePostInput) (ports.Post, error) {
	row, err := s.database.CreatePost(ctx, input.Title, input.Content, input.AuthorName, time.Now().UTC())
	if err != nil {
		return ports.Post{}, err
	}
	return mapPost(row), nil
}

// UpdatePost replaces title and content of one post.
func (s *Store) UpdatePost(ctx context.Context, id int64, input ports.UpdatePostInput) error {
	affected, err := s.database.UpdatePost(ctx, id, input.Title, input.Content)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// DeletePost removes one post and, via the schema foreign key, its comments.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	affected, err := s.database.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// ListComments returns comments for a post in creation order.
func (s *Store) ListComments(ctx context.Context, postID int64) ([]ports.Comment, error) {
	rows, err := s.database.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	out := make([]ports.Comment, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapComment(row))
	}
	return out, nil
}

// CreateComment inserts a comment on an existing post.
func (s *Store) CreateComment(ctx context.Context, input ports.CreateCommentInput) (ports.Comment, error) {
	row, err := s.database.CreateComment(ctx, input.PostID, input.AuthorName, input.Content, time.Now().UTC())
	if err != nil {
		// FOREIGN KEY failure means the parent post does not exist.
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return ports.Comment{}, ports.ErrNotFound
		}
		return ports.Comment{}, err
	}
	return mapComment(row), nil
}

// DeleteComment removes one comment.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	affected, err := s.database.DeleteComment(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// ListAdmins returns the roster, newest first.
func (s *Store) ListAdmins(ctx context.Context) ([]ports.Admin, error) {
	rows, err := s.database.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ports.Admin, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapAdmin(row))
	}
	return out, nil
}

// IsAdmin reports case-insensitive roster membership.
func (s *Store) IsAdmin(ctx context.Context, email string) (bool, error) {
	return s.database.AdminExists(ctx, email)
}

// AddAdmin inserts one roster entry. ErrAlreadyExists on duplicates.
func (s *Store) AddAdmin(ctx context.Context, email string) (ports.Admin, error) {
	row, err := s.database.InsertAdmin(ctx, email, time.Now().UTC())
	if isUniqueViolation(err) {
		return ports.Admin{}, ports.ErrAlreadyExists
	}
	if err != nil {
		return ports.Admin{}, err
	}
	return mapAdmin(row), nil
}

// RemoveAdmin deletes one roster entry behind the single-statement size
// guard. When the statement matches nothing, a follow-up existence check
// splits ErrLastAdminProtected from ErrNotFound; the check cannot break the
// invariant because only the guarded statement deletes.
func (s *Store) RemoveAdmin(ctx context.Context, email string) error {
	affected, err := s.database.DeleteAdminGuarded(ctx, email)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	exists, err := s.database.AdminExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return ports.ErrLastAdminProtected
	}
	return ports.ErrNotFound
}

// CountAdmins returns the roster size.
func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	return s.database.CountAdmins(ctx)
}
