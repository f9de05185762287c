package history

import (
	"context"
	"errors"
	"fmt"
)

// Source is a read-only view of the events corpus.
// Implementations: Client (remote HTTP service), Static (YAML corpus) and
// cache.Source (SQLite read-through in front of either).
type Source interface {
	// Event returns the event with the given id, or ErrNotFound.
	Event(ctx context.Context, id int) (Event, error)

	// Find returns every event matching q. An empty result is not an error.
	Find(ctx context.Context, q Query) ([]Event, error)
}

// Source failures are classified so callers can decide what to do with them:
// transient ones may be retried, malformed ones are fatal to that one
// operation, and a missing id is an expected outcome of random target picks.
var (
	ErrNotFound  = errors.New("event not found")
	ErrTransient = errors.New("event source unavailable")
	ErrMalformed = errors.New("malformed event source response")
)

// validate rejects events whose date cannot be placed on a calendar.
func validate(events ...Event) error {
	for _, e := range events {
		if !e.Valid() {
			return fmt.Errorf("%w: event %d has date %s", ErrMalformed, e.ID, e.Date().Key())
		}
	}
	return nil
}
