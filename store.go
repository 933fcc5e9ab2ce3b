package inkpress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested post does not exist.
	ErrNotFound = errors.New("inkpress: not found")

	// ErrSlugTaken is returned when a post save would reuse another
	// post's slug.
	ErrSlugTaken = errors.New("inkpress: slug already in use")

	// ErrDuplicateInquiry is returned when an inquiry reuses the email
	// or phone of a previous submission.
	ErrDuplicateInquiry = errors.New("inkpress: duplicate inquiry")
)

// Store wraps a SQLite database and provides CRUD operations for posts
// and the append-only inquiry table.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy_timeout so writers wait
	// instead of returning SQLITE_BUSY immediately. synchronous=NORMAL
	// is safe with WAL and avoids an fsync per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    sub_heading TEXT NOT NULL,
    content TEXT NOT NULL,
    author TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    bg_image TEXT NOT NULL DEFAULT '',
    posted_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS inquiries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone TEXT NOT NULL UNIQUE,
    message TEXT NOT NULL,
    submitted_at TEXT NOT NULL
);
`)
	return err
}

const postColumns = `id, title, sub_heading, content, author, slug, bg_image, posted_at`

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var p Post
	var postedAt string
	if err := row.Scan(&p.ID, &p.Title, &p.SubHeading, &p.Content, &p.Author, &p.Slug, &p.BgImage, &postedAt); err != nil {
		return Post{}, err
	}
	t, err := time.Parse(time.RFC3339, postedAt)
	if err != nil {
		return Post{}, fmt.Errorf("parse posted_at: %w", err)
	}
	p.PostedAt = t
	return p, nil
}

// ListPosts returns all posts in insertion order.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPostBySlug returns a single post by its slug.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, fmt.Errorf("get post by slug: %w", err)
	}
	return p, nil
}

// GetPostByID returns a single post by its numeric identifier.
func (s *Store) GetPostByID(ctx context.Context, id int64) (Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, fmt.Errorf("get post by id: %w", err)
	}
	return p, nil
}

// CreatePost inserts a new post, assigning its identifier and timestamp.
// A slug already used by another post fails with ErrSlugTaken.
func (s *Store) CreatePost(ctx context.Context, p Post) (Post, error) {
	p.PostedAt = time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (title, sub_heading, content, author, slug, bg_image, posted_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.SubHeading, p.Content, p.Author, p.Slug, p.BgImage, p.PostedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return Post{}, ErrSlugTaken
		}
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	p.ID = id
	return p, nil
}

// UpdatePost mutates the targeted post in place, refreshing its
// timestamp. The identifier is immutable; a missing row fails with
// ErrNotFound and a slug owned by a different post with ErrSlugTaken.
func (s *Store) UpdatePost(ctx context.Context, id int64, p Post) (Post, error) {
	p.ID = id
	p.PostedAt = time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, sub_heading = ?, content = ?, author = ?, slug = ?, bg_image = ?, posted_at = ? WHERE id = ?`,
		p.Title, p.SubHeading, p.Content, p.Author, p.Slug, p.BgImage, p.PostedAt.Format(time.RFC3339), id)
	if err != nil {
		if isUniqueViolation(err) {
			return Post{}, ErrSlugTaken
		}
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	if n == 0 {
		return Post{}, ErrNotFound
	}
	return p, nil
}

// DeletePost removes a post by id. Deleting a missing post fails with
// ErrNotFound.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateInquiry appends a contact submission, assigning its identifier
// and timestamp. A repeat email or phone fails with ErrDuplicateInquiry.
func (s *Store) CreateInquiry(ctx context.Context, q Inquiry) (Inquiry, error) {
	q.SubmittedAt = time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO inquiries (name, email, phone, message, submitted_at) VALUES (?, ?, ?, ?, ?)`,
		q.Name, q.Email, q.Phone, q.Message, q.SubmittedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return Inquiry{}, ErrDuplicateInquiry
		}
		return Inquiry{}, fmt.Errorf("create inquiry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Inquiry{}, fmt.Errorf("create inquiry: %w", err)
	}
	q.ID = id
	return q, nil
}

// ListInquiries returns all inquiries, newest first, for the dashboard.
func (s *Store) ListInquiries(ctx context.Context) ([]Inquiry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, phone, message, submitted_at FROM inquiries ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	defer rows.Close()

	var inquiries []Inquiry
	for rows.Next() {
		var q Inquiry
		var submittedAt string
		if err := rows.Scan(&q.ID, &q.Name, &q.Email, &q.Phone, &q.Message, &submittedAt); err != nil {
			return nil, fmt.Errorf("list inquiries: %w", err)
		}
		t, err := time.Parse(time.RFC3339, submittedAt)
		if err != nil {
			return nil, fmt.Errorf("list inquiries: parse submitted_at: %w", err)
		}
		q.SubmittedAt = t
		inquiries = append(inquiries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	return inquiries, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite surfaces these as plain errors, so the
// message text is the only handle.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
