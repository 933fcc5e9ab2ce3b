package inkpress

import (
	"context"
	"sync"
	"time"
)

// PostCache is an in-memory cache of the full post collection with TTL.
// The public read paths (home, single post, feed, sitemap) go through
// it; every admin mutation calls Invalidate.
type PostCache struct {
	mu      sync.RWMutex
	posts   []Post
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// ensureLoaded returns the cached posts after ensuring freshness. It
// tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]Post, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	posts, err := c.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []Post{}
	}
	c.posts = posts
	c.fetched = time.Now()
	return posts, nil
}

// ListPosts returns all posts in insertion order.
func (c *PostCache) ListPosts(ctx context.Context) ([]Post, error) {
	return c.ensureLoaded(ctx)
}

// GetPostBySlug returns a single post by slug from the cache.
func (c *PostCache) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

// GetPostByID returns a single post by id from the cache.
func (c *PostCache) GetPostByID(ctx context.Context, id int64) (Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}
