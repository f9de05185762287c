package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/historyguesser/internal/history"
)

// countingSource wraps a Static corpus and counts upstream calls.
type countingSource struct {
	inner       *history.Static
	eventCalls  int
	findCalls   int
	failLookups bool
}

func (c *countingSource) Event(ctx context.Context, id int) (history.Event, error) {
	c.eventCalls++
	return c.inner.Event(ctx, id)
}

func (c *countingSource) Find(ctx context.Context, q history.Query) ([]history.Event, error) {
	c.findCalls++
	if c.failLookups {
		return nil, history.ErrTransient
	}
	return c.inner.Find(ctx, q)
}

func newCache(t *testing.T, ttl time.Duration) (*Source, *countingSource) {
	t.Helper()
	static, err := history.NewStatic([]history.Event{
		{ID: 10, Year: 1800, Month: 1, Day: 1, Description: "a"},
		{ID: 11, Year: 1800, Month: 1, Day: 1, Description: "b"},
		{ID: 12, Year: 1800, Month: 3, Day: 4, Description: "c"},
	})
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	up := &countingSource{inner: static}
	c, err := Open(filepath.Join(t.TempDir(), "data", "cache.db"), up, ttl)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, up
}

func TestFindIsCached(t *testing.T) {
	ctx := context.Background()
	c, up := newCache(t, 0)

	q := history.Query{Year: 1800, Month: 1, Day: 1}
	first, err := c.Find(ctx, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	second, err := c.Find(ctx, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if up.findCalls != 1 {
		t.Fatalf("upstream Find called %d times, want 1", up.findCalls)
	}
	if len(first) != 2 || len(second) != 2 || first[0] != second[0] || first[1] != second[1] {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}

	// Empty results are cached too.
	for i := 0; i < 2; i++ {
		out, err := c.Find(ctx, history.Query{Year: 1900})
		if err != nil || len(out) != 0 {
			t.Fatalf("Find(1900) = %+v, %v", out, err)
		}
	}
	if up.findCalls != 2 {
		t.Fatalf("upstream Find called %d times, want 2", up.findCalls)
	}
}

func TestEventFromLookupIsCached(t *testing.T) {
	ctx := context.Background()
	c, up := newCache(t, 0)

	if _, err := c.Find(ctx, history.Query{Year: 1800}); err != nil {
		t.Fatalf("Find: %v", err)
	}
	e, err := c.Event(ctx, 12)
	if err != nil || e.Description != "c" {
		t.Fatalf("Event(12) = %+v, %v", e, err)
	}
	if up.eventCalls != 0 {
		t.Fatalf("event should come from the cache, upstream called %d times", up.eventCalls)
	}

	if _, err := c.Event(ctx, 99); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupTTL(t *testing.T) {
	ctx := context.Background()
	c, up := newCache(t, time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	q := history.Query{Year: 1800, Month: 3}
	_, _ = c.Find(ctx, q)
	now = now.Add(30 * time.Minute)
	_, _ = c.Find(ctx, q)
	if up.findCalls != 1 {
		t.Fatalf("fresh lookup refetched: %d calls", up.findCalls)
	}
	now = now.Add(2 * time.Hour)
	_, _ = c.Find(ctx, q)
	if up.findCalls != 2 {
		t.Fatalf("stale lookup not refetched: %d calls", up.findCalls)
	}
}

func TestUpstreamErrorsPassThrough(t *testing.T) {
	c, up := newCache(t, 0)
	up.failLookups = true
	if _, err := c.Find(context.Background(), history.Query{Year: 1800}); !errors.Is(err, history.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	up.failLookups = false
	if out, err := c.Find(context.Background(), history.Query{Year: 1800}); err != nil || len(out) != 3 {
		t.Fatalf("errors must not be cached: %+v, %v", out, err)
	}
}

func TestReopenKeepsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	static, _ := history.NewStatic(nil)
	for i := 0; i < 2; i++ {
		c, err := Open(path, static, 0)
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		_ = c.Close()
	}
}
