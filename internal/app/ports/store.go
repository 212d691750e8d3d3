package ports

import (
	"context"
	"errors"
	"time"
)

// Store errors shared across adapters. Adapters translate backend-specific
// failures into these; everything else is a backend failure and surfaces as-is.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrLastAdminProtected = errors.New("cannot remove the last admin")
)

// Post is an app-level blog post. AuthorName is denormalized from the
// author's identity at creation time and never updated afterwards.
type Post struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"author_name"`
}

// Comment is an app-level comment on a post.
type Comment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"post_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Admin is one admin roster entry. Email is unique case-insensitively.
type Admin struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePostInput carries post creation fields; the store assigns id and
// created_at.
type CreatePostInput struct {
	Title      string
	Content    string
	AuthorName string
}

// UpdatePostInput replaces the mutable post fields in place.
type UpdatePostInput struct {
	Title   string
	Content string
}

// CreateCommentInput carries comment creation fields.
type CreateCommentInput struct {
	PostID     int64
	AuthorName string
	Content    string
}

// ContentStore is the persistence port for posts and comments.
type ContentStore interface {
	ListPosts(ctx context.Context) ([]Post, error)
	GetPost(ctx context.Context, id int64) (Post, error)
	CreatePost(ctx context.Context, input CreatePostInput) (Post, error)
	UpdatePost(ctx context.Context, id int64, input UpdatePostInput) error
	DeletePost(ctx context.Context, id int64) error
	ListComments(ctx context.Context, postID int64) ([]Comment, error)
	CreateComment(ctx context.Context, input CreateCommentInput) (Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// AdminRoster is the persistence port for the admin roster. Callers pass
// normalized (trimmed, lowercased) emails; the adapter compares
// case-insensitively on top of that so rows written by older tooling stay
// reachable.
type AdminRoster interface {
	ListAdmins(ctx context.Context) ([]Admin, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
	AddAdmin(ctx context.Context, email string) (Admin, error)
	// RemoveAdmin must perform the roster-size check and the delete as one
	// indivisible storage operation. ErrLastAdminProtected when the roster
	// would empty, ErrNotFound when the email is not on the roster.
	RemoveAdmin(ctx context.Context, email string) error
	CountAdmins(ctx context.Context) (int64, error)
}
