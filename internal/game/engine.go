// internal/game/engine.go
//
// Core game engine for a single History Guesser session.
// Responsibilities:
//   - Pick and fetch the hidden target event.
//   - Validate and deduplicate guesses; count tries.
//   - Resolve each guess into a clue (day → month → year → placeholder).
//   - Keep the revealed list sorted and track playing → won.
//
// Notes:
//   - Resolve takes a session and returns the next one; the input is never
//     mutated, so a failed lookup leaves the caller's session untouched.
//   - All randomness flows through the injected *rand.Rand.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/historyguesser/internal/history"
)

const (
	// DefaultCorpusSize is the number of events the public service holds.
	DefaultCorpusSize = 16726

	// DefaultExactWindow is the distance in days at or under which only an
	// exact day-level clue is accepted.
	DefaultExactWindow = 30

	maxTargetPicks = 3
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrDuplicateGuess    = errors.New("please enter a different date")
	ErrGameWon           = errors.New("game already won")
	ErrGuessInFlight     = errors.New("a guess is already being resolved")
	ErrTargetUnavailable = errors.New("no target event available")
)

// Resolver runs the game rules against an event source.
type Resolver struct {
	Source      history.Source
	Rand        *rand.Rand
	ExactWindow int
	Now         func() time.Time
}

// NewResolver returns a Resolver with the default exact-only window.
// A nil rng is replaced by a randomly seeded one from NewRand.
func NewResolver(src history.Source, rng *rand.Rand) *Resolver {
	if rng == nil {
		rng = NewRand(rand.Uint64())
	}
	return &Resolver{Source: src, Rand: rng, ExactWindow: DefaultExactWindow, Now: time.Now}
}

// lockedSource serialises access to a rand.Source.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (l *lockedSource) Uint64() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Uint64()
}

// NewRand returns a *rand.Rand seeded with seed that is safe to share
// between goroutines, as a server-wide Resolver must be.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(&lockedSource{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)})
}

// RandomTargetID picks an id uniformly in [0, corpusSize).
func RandomTargetID(rng *rand.Rand, corpusSize int) int {
	if corpusSize <= 0 {
		return 0
	}
	return rng.IntN(corpusSize)
}

// NewSession fetches a target id chosen by pick and starts a session around it.
// Ids missing from the corpus are re-picked a few times before giving up; any
// other source failure is returned as is.
func (r *Resolver) NewSession(ctx context.Context, mode Mode, pick func() int) (*Session, error) {
	s := &Session{
		ID:      uuid.NewString(),
		Mode:    mode,
		Guessed: make(map[string]struct{}),
		State:   StateLoadingTarget,
	}

	var lastErr error
	for i := 0; i < maxTargetPicks; i++ {
		id := pick()
		target, err := r.Source.Event(ctx, id)
		if errors.Is(err, history.ErrNotFound) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetch target %d: %w", id, err)
		}
		now := r.now()
		s.Target = target
		s.Clues = []history.Event{target}
		s.State = StateAwaitingGuess
		s.CreatedAt, s.UpdatedAt = now, now
		return s, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrTargetUnavailable, lastErr)
}

// Resolve applies guess to s and returns the resulting session and outcome.
//
// Rules, in order:
//   - an invalid date or a won session is rejected;
//   - a date already guessed is rejected without counting a try;
//   - otherwise the try counter increments and the date is recorded;
//   - a guess equal to the target date wins, clue generation still runs;
//   - within ExactWindow days only a day-level clue is accepted, beyond it
//     the lookup cascades day → month → year;
//   - with no clue, or a clue already revealed, the placeholder is used;
//   - the clue is appended and the list re-sorted by date.
func (r *Resolver) Resolve(ctx context.Context, s *Session, guess history.Date) (*Session, Outcome, error) {
	if !guess.Valid() {
		return s, Outcome{}, fmt.Errorf("%w: %s", ErrInvalidDate, guess.Key())
	}
	if s.Won() {
		return s, Outcome{}, ErrGameWon
	}
	key := guess.Key()
	if _, seen := s.Guessed[key]; seen {
		return s, Outcome{}, ErrDuplicateGuess
	}

	target := s.Target.Date()
	exact := history.DaysBetween(guess, target) <= r.ExactWindow

	clue, tier, ok, err := FetchClue(ctx, r.Source, r.Rand, guess, exact)
	if err != nil {
		return s, Outcome{}, fmt.Errorf("resolve %s: %w", key, err)
	}

	next := s.Clone()
	next.Tries++
	next.Guessed[key] = struct{}{}

	won := guess == target
	if won {
		next.State = StateWon
	} else {
		next.State = StateAwaitingGuess
	}

	if !ok || containsID(next.Clues, clue.ID) {
		clue, tier = Placeholder(guess), TierPlaceholder
	}

	next.Clues = append(next.Clues, clue)
	SortEvents(next.Clues)
	newest := clue
	next.Newest = &newest
	next.UpdatedAt = r.now()

	return next, Outcome{
		Guess:   guess,
		Clue:    clue,
		Tier:    tier,
		Exact:   exact,
		Won:     won,
		Tries:   next.Tries,
		Message: clueMessage(clue),
	}, nil
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
