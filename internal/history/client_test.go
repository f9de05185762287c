package history

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{
		BaseURL:    srv.URL,
		Timeout:    2 * time.Second,
		MaxTries:   3,
		Backoff:    time.Millisecond,
		MaxBackoff: 2 * time.Millisecond,
	})
}

func TestClientEvent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":42,"year":1969,"month":7,"day":20,"description":"Moon landing"}`))
	})

	e, err := c.Event(context.Background(), 42)
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	want := Event{ID: 42, Year: 1969, Month: 7, Day: 20, Description: "Moon landing"}
	if e != want {
		t.Fatalf("got %+v, want %+v", e, want)
	}
}

func TestClientFindQueryParams(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"day", Query{Year: 1800, Month: 1, Day: 1}, "day=1&month=1&year=1800"},
		{"month", Query{Year: 1800, Month: 1}, "month=1&year=1800"},
		{"year", Query{Year: 1800}, "year=1800"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/data" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.RawQuery; got != tc.want {
					t.Errorf("query = %q, want %q", got, tc.want)
				}
				_, _ = w.Write([]byte(`[]`))
			})
			out, err := c.Find(context.Background(), tc.q)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if out == nil || len(out) != 0 {
				t.Fatalf("expected empty non-nil slice, got %#v", out)
			}
		})
	}
}

func TestClientNotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})
	_, err := c.Event(context.Background(), 7)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("not-found must not be retried, got %d calls", calls.Load())
	}
}

func TestClientRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"year":1800,"month":1,"day":1,"description":"x"}]`))
	})
	out, err := c.Find(context.Background(), Query{Year: 1800})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(out) != 1 || calls.Load() != 3 {
		t.Fatalf("got %d events after %d calls", len(out), calls.Load())
	}
}

func TestClientTransientExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Find(context.Background(), Query{Year: 1800})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClientMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"bad date", `[{"id":1,"year":1800,"month":13,"day":1,"description":"x"}]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.Find(context.Background(), Query{Year: 1800})
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if calls.Load() != 1 {
				t.Fatalf("malformed responses must not be retried, got %d calls", calls.Load())
			}
		})
	}
}
