// Package querycache is the client's read-through cache. Entries are keyed by
// endpoint path and served until they go stale; failures are never cached.
package querycache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime = 5 * time.Minute
	DefaultSize      = 256
)

type Options struct {
	Size      int
	StaleTime time.Duration
}

type Client struct {
	entries *expirable.LRU[string, any]
	group   singleflight.Group

	// mu orders stores against invalidations. gen changes on every invalidation so
	// fetches started before it are not stored.
	mu  sync.Mutex
	gen uint64
}

func New(opts Options) *Client {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	return &Client{entries: expirable.NewLRU[string, any](opts.Size, nil, opts.StaleTime)}
}

// Fetch returns the fresh value stored under key, or calls fn once to get it.
// Concurrent fetches of one key share a single call to fn. There is no retry.
//
// fn does not inherit the caller's cancellation: a caller whose ctx ends gets
// ctx.Err() at once while the shared call finishes for the others.
func (c *Client) Fetch(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()

		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.entries.Add(key, v)
		}
		c.mu.Unlock()
		return v, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Peek returns the stored value without fetching.
func (c *Client) Peek(key string) (any, bool) {
	return c.entries.Peek(key)
}

// Invalidate drops every entry whose key starts with prefix. An empty prefix clears
// the cache.
func (c *Client) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if prefix == "" {
		c.entries.Purge()
		return
	}
	for _, k := range c.entries.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.entries.Remove(k)
		}
	}
}

func (c *Client) Len() int { return c.entries.Len() }

// Get is Fetch with a typed result.
func Get[T any](ctx context.Context, c *Client, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}
