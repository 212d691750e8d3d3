package db

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "clockless_db_query_duration_seconds",
	Help:    "Latency of database queries by name.",
	Buckets: prometheus.DefBuckets,
}, []string{"query"})

func observe(name string) func() {
	start := time.Now()
	return func() {
		queryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

// Post is one posts row.
type Post struct {
	ID         int64
	Title      string
	Content    string
	CreatedAt  time.Time
	AuthorName string
}

// Comment is one comments row.
type Comment struct {
	ID         int64
	PostID     int64
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

// Admin is one admins row.
type Admin struct {
	Email     string
	CreatedAt time.Time
}

// ListPosts returns all posts, newest first.
func (c *Database) ListPosts(ctx context.Context) ([]Post, error) {
	defer observe("ListPosts")()
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, title, content, created_at, author_name FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.CreatedAt, &p.AuthorName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPost returns one post by id. sql.ErrNoRows when missing.
func (c *Database) GetPost(ctx context.Context, id int64) (Post, error) {
	defer observe("GetPost")()
	var p Post
	err := c.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at, author_name FROM posts WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Content, &p.CreatedAt, &p.AuthorName)
	return p, err
}

// CreatePost inserts a post and returns the stored row.
func (c *Database) CreatePost(ctx context.Context, title, content, authorName string, createdAt time.Time) (Post, error) {
	defer observe("CreatePost")()
	var p Post
	err := c.db.QueryRowContext(ctx,
		`INSERT INTO posts (title, content, created_at, author_name) VALUES (?, ?, ?, ?)
		 RETURNING id, title, content, created_at, author_name`,
		title, content, createdAt, authorName).
		Scan(&p.ID, &p.Title, &p.Content, &p.CreatedAt, &p.AuthorName)
	return p, err
}

// UpdatePost replaces title and content of one post. Returns rows affected.
func (c *Database) UpdatePost(ctx context.Context, id int64, title, content string) (int64, error) {
	defer observe("UpdatePost")()
	res, err := c.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ? WHERE id = ?`, title, content, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeletePost removes one post; comments cascade via the schema foreign key.
// Returns rows affected.
func (c *Database) DeletePost(ctx context.Context, id int64) (int64, error) {
	defer observe("DeletePost")()
	res, err := c.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListComments returns comments for a post in creation order.
func (c *Database) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	defer observe("ListComments")()
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, post_id, author_name, content, created_at FROM comments WHERE post_id = ? ORDER BY created_at ASC, id ASC`,
		postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.AuthorName, &cm.Content, &cm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

// CreateComment inserts a comment and returns the stored row.
func (c *Database) CreateComment(ctx context.Context, postID int64, authorName, content string, createdAt time.Time) (Comment, error) {
	defer observe("CreateComment")()
	var cm Comment
	err := c.db.QueryRowContext(ctx,
		`INSERT INTO comments (post_id, author_name, content, created_at) VALUES (?, ?, ?, ?)
		 RETURNING id, post_id, author_name, content, created_at`,
		postID, authorName, content, createdAt).
		Scan(&cm.ID, &cm.PostID, &cm.AuthorName, &cm.Content, &cm.CreatedAt)
	return cm, err
}

// DeleteComment removes one comment. Returns rows affected.
func (c *Database) DeleteComment(ctx context.Context, id int64) (int64, error) {
	defer observe("DeleteComment")()
	res, err := c.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListAdmins returns the roster, newest first.
func (c *Database) ListAdmins(ctx context.Context) ([]Admin, error) {
	defer observe("ListAdmins")()
	rows, err := c.db.QueryContext(ctx,
		`SELECT email, created_at FROM admins ORDER BY created_at DESC, email ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Admin
	for rows.Next() {
		var a Admin
		if err := rows.Scan(&a.Email, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AdminExists reports case-insensitive roster membership.
func (c *Database) AdminExists(ctx context.Context, email string) (bool, error) {
	defer observe("AdminExists")()
	var count int64
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admins WHERE lower(email) = lower(?)`, email).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountAdmins returns the roster size.
func (c *Database) CountAdmins(ctx context.Context) (int64, error) {
	defer observe("CountAdmins")()
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

// InsertAdmin adds one roster entry and returns the stored row.
func (c *Database) InsertAdmin(ctx context.Context, email string, createdAt time.Time) (Admin, error) {
	defer observe("InsertAdmin")()
	var a Admin
	err := c.db.QueryRowContext(ctx,
		`INSERT INTO admins (email, created_at) VALUES (?, ?) RETURNING email, created_at`,
		email, createdAt).
		Scan(&a.Email, &a.CreatedAt)
	return a, err
}

// DeleteAdminGuarded removes one roster entry only while at least one other
// entry remains. The size check and the delete run as a single statement, so
// concurrent removals against a two-entry roster cannot both succeed.
// Returns rows affected: zero means the email was absent or the guard held.
func (c *Database) DeleteAdminGuarded(ctx context.Context, email string) (int64, error) {
	defer observe("DeleteAdminGuarded")()
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM admins WHERE lower(email) = lower(?) AND (SELECT COUNT(*) FROM admins) > 1`,
		email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
