// internal/store/memory.go
//
// In-memory implementation of the session Store.
// Sessions live only as long as the process; there is no persistence.
//
// Characteristics:
//   - Stores *game.Session values keyed by ID in a map, handing out clones.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Acquire/Release serialise guesses: while one guess is resolving the
//     session sits in guess-in-flight and a second Acquire fails.
//   - Sweep evicts idle sessions.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/historyguesser/internal/game"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save persists or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Get returns a copy of the session with the given ID.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Acquire marks the session guess-in-flight and returns a copy to
	// resolve against. It fails with game.ErrGuessInFlight if another guess
	// holds the session.
	Acquire(ctx context.Context, id string) (*game.Session, error)

	// Release ends an Acquire. A non-nil next replaces the stored session;
	// nil restores the state held before Acquire.
	Release(ctx context.Context, id string, next *game.Session) error

	// Sweep drops sessions idle since before cutoff and reports how many.
	Sweep(ctx context.Context, cutoff time.Time) int

	// Len is the number of live sessions.
	Len() int
}

type entry struct {
	session   *game.Session
	prevState game.State // state to restore on a failed guess
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex      // guards sessions
	sessions map[string]*entry // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*entry)}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &entry{session: s.Clone()}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.sessions[id]; ok {
		return e.session.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *memory) Acquire(ctx context.Context, id string) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.session.State == game.StateGuessInFlight {
		return nil, game.ErrGuessInFlight
	}
	if e.session.State == game.StateWon {
		// Nothing to hold; Resolve will reject the guess.
		return e.session.Clone(), nil
	}
	e.prevState = e.session.State
	e.session.State = game.StateGuessInFlight
	return e.session.Clone(), nil
}

func (m *memory) Release(ctx context.Context, id string, next *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if e.session.State != game.StateGuessInFlight {
		return nil
	}
	if next == nil {
		e.session.State = e.prevState
		return nil
	}
	e.session = next.Clone()
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if e.session.State == game.StateGuessInFlight {
			continue
		}
		if e.session.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
