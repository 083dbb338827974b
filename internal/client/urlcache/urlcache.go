// Package urlcache memoizes presigned document URLs until they expire.
// Concurrent misses for the same document collapse into a single fetch.
package urlcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher obtains a fresh presigned URL for a document. The API client
// satisfies this interface.
type Fetcher interface {
	DocumentURL(ctx context.Context, documentID string) (url string, expiresAt time.Time, err error)
}

type entry struct {
	url       string
	expiresAt time.Time
}

// Cache maps document ids to presigned URLs with expiry.
type Cache struct {
	fetcher Fetcher

	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group

	// now is a test seam.
	now func() time.Time
}

func New(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached URL while it is still valid. A stale or missing
// entry triggers exactly one refetch, even under concurrent callers.
func (c *Cache) Get(ctx context.Context, documentID string) (string, error) {
	c.mu.Lock()
	if e, ok := c.entries[documentID]; ok && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.url, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(documentID, func() (any, error) {
		// Another flight may have refreshed the entry while this caller
		// waited on the group lock.
		c.mu.Lock()
		if e, ok := c.entries[documentID]; ok && c.now().Before(e.expiresAt) {
			c.mu.Unlock()
			return e.url, nil
		}
		c.mu.Unlock()

		url, expiresAt, err := c.fetcher.DocumentURL(ctx, documentID)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.entries[documentID] = entry{url: url, expiresAt: expiresAt}
		c.mu.Unlock()
		return url, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached URL for a document. The next Get refetches.
func (c *Cache) Invalidate(documentID string) {
	c.mu.Lock()
	delete(c.entries, documentID)
	c.mu.Unlock()
}
