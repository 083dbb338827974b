package urlcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	mu      sync.Mutex
	calls   atomic.Int64
	ttl     time.Duration
	err     error
	blockOn chan struct{}
	now     func() time.Time
}

func (f *countingFetcher) DocumentURL(ctx context.Context, documentID string) (string, time.Time, error) {
	n := f.calls.Add(1)
	if f.blockOn != nil {
		<-f.blockOn
	}
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return fmt.Sprintf("https://bucket.test/%s?fetch=%d", documentID, n), f.now().Add(f.ttl), nil
}

func newTestCache(ttl time.Duration) (*Cache, *countingFetcher, *time.Time) {
	current := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }
	f := &countingFetcher{ttl: ttl, now: now}
	c := New(f)
	c.now = now
	return c, f, &current
}

func TestGet_CachesWithinValidity(t *testing.T) {
	c, f, _ := newTestCache(15 * time.Minute)
	ctx := context.Background()

	first, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)
	second, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), f.calls.Load())
}

func TestGet_RefetchesAfterExpiry(t *testing.T) {
	c, f, current := newTestCache(15 * time.Minute)
	ctx := context.Background()

	first, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)

	*current = current.Add(16 * time.Minute)

	second, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, int64(2), f.calls.Load(), "exactly one refetch after expiry")
}

func TestGet_ConcurrentMissesCollapse(t *testing.T) {
	c, f, _ := newTestCache(15 * time.Minute)
	f.blockOn = make(chan struct{})
	ctx := context.Background()

	const callers = 8
	urls := make([]string, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			url, err := c.Get(ctx, "doc-1")
			assert.NoError(t, err)
			urls[i] = url
		}(i)
	}

	// Give every caller a chance to reach the flight, then release it.
	time.Sleep(50 * time.Millisecond)
	close(f.blockOn)
	wg.Wait()

	assert.Equal(t, int64(1), f.calls.Load(), "concurrent misses must share one fetch")
	for _, u := range urls {
		assert.Equal(t, urls[0], u)
	}
}

func TestGet_DistinctDocumentsFetchSeparately(t *testing.T) {
	c, f, _ := newTestCache(15 * time.Minute)
	ctx := context.Background()

	u1, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)
	u2, err := c.Get(ctx, "doc-2")
	require.NoError(t, err)

	assert.NotEqual(t, u1, u2)
	assert.Equal(t, int64(2), f.calls.Load())
}

func TestGet_FetchErrorNotCached(t *testing.T) {
	c, f, _ := newTestCache(15 * time.Minute)
	ctx := context.Background()

	f.err = errors.New("presign failed")
	_, err := c.Get(ctx, "doc-1")
	require.Error(t, err)

	f.err = nil
	url, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	c, f, _ := newTestCache(15 * time.Minute)
	ctx := context.Background()

	first, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)

	c.Invalidate("doc-1")

	second, err := c.Get(ctx, "doc-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, int64(2), f.calls.Load())
}
