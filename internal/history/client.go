// internal/history/client.go
//
// HTTP client for the remote historical-events data service.
// Endpoints:
//   - GET {base}/data/{id}                     → single Event
//   - GET {base}/data?year=Y[&month=M[&day=D]] → []Event
//
// Failure classification:
//   - network errors, 429 and 5xx → ErrTransient (retried with exponential backoff)
//   - 404 on a by-id lookup       → ErrNotFound
//   - undecodable body, bad dates → ErrMalformed (never retried)

package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultBaseURL is the public deployment of the events service.
const DefaultBaseURL = "https://hisotry-events.app01.xyzapps.xyz"

// ClientOptions tunes a Client. Zero values select the defaults.
type ClientOptions struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration // per request, default 10s
	MaxTries   uint          // attempts per lookup, default 3
	Backoff    time.Duration // first retry delay, default 200ms
	MaxBackoff time.Duration // cap on retry delay, default 2s
}

// Client talks to the remote events service.
type Client struct {
	baseURL    string
	userAgent  string
	http       *http.Client
	maxTries   uint
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewClient builds a Client with a tuned transport.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	if opts.MaxBackoff < opts.Backoff {
		opts.MaxBackoff = 10 * opts.Backoff
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		http:       &http.Client{Timeout: opts.Timeout, Transport: tr},
		maxTries:   opts.MaxTries,
		backoff:    opts.Backoff,
		maxBackoff: opts.MaxBackoff,
	}
}

// Event fetches a single event by id.
func (c *Client) Event(ctx context.Context, id int) (Event, error) {
	var e Event
	if err := c.get(ctx, "/data/"+strconv.Itoa(id), nil, &e); err != nil {
		return Event{}, fmt.Errorf("event %d: %w", id, err)
	}
	if err := validate(e); err != nil {
		return Event{}, fmt.Errorf("event %d: %w", id, err)
	}
	return e, nil
}

// Find lists the events matching q.
func (c *Client) Find(ctx context.Context, q Query) ([]Event, error) {
	v := url.Values{}
	v.Set("year", strconv.Itoa(q.Year))
	if q.Month != 0 {
		v.Set("month", strconv.Itoa(q.Month))
		if q.Day != 0 {
			v.Set("day", strconv.Itoa(q.Day))
		}
	}
	var out []Event
	err := c.get(ctx, "/data", v, &out)
	if errors.Is(err, ErrNotFound) {
		return []Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", q.Key(), err)
	}
	if err := validate(out...); err != nil {
		return nil, fmt.Errorf("find %s: %w", q.Key(), err)
	}
	if out == nil {
		out = []Event{}
	}
	return out, nil
}

// get performs a GET with retries and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoff
	b.MaxInterval = c.maxBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.do(ctx, u, out)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxTries))

	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) && !errors.Is(err, ErrTransient) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}

// do runs one attempt. Errors that must not be retried are wrapped as permanent.
func (c *Client) do(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: http %d", ErrTransient, resp.StatusCode)
	case resp.StatusCode/100 != 2:
		return backoff.Permanent(fmt.Errorf("%w: http %d", ErrMalformed, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: %w", ErrMalformed, err))
	}
	return nil
}
