// internal/game/types.go
//
// Core type definitions for the History Guesser engine.
// Defines:
//   - State:   lifecycle of a session (loading-target → awaiting-guess ⇄ guess-in-flight → won).
//   - Mode:    how the hidden target was chosen (random or daily).
//   - Session: state for a single game.
//   - Outcome: what one resolved guess produced.

package game

import (
	"maps"
	"time"

	"github.com/robalobadob/historyguesser/internal/history"
)

// State is the lifecycle stage of a session.
type State string

const (
	StateLoadingTarget State = "loading-target"
	StateAwaitingGuess State = "awaiting-guess"
	StateGuessInFlight State = "guess-in-flight"
	StateWon           State = "won"
)

// Mode names the target selection strategy.
type Mode string

const (
	ModeRandom Mode = "random"
	ModeDaily  Mode = "daily"
)

// ClueTier is the granularity a clue was found at, or TierPlaceholder when
// no real event was used.
type ClueTier string

const (
	TierDay         ClueTier = ClueTier(history.TierDay)
	TierMonth       ClueTier = ClueTier(history.TierMonth)
	TierYear        ClueTier = ClueTier(history.TierYear)
	TierPlaceholder ClueTier = "placeholder"
)

// Session holds the state of a single game.
type Session struct {
	ID        string              // Unique session identifier (uuid).
	Mode      Mode                // How Target was chosen.
	Target    history.Event       // The hidden event; fixed for the session.
	Clues     []history.Event     // Revealed events incl. the target, sorted by date.
	Guessed   map[string]struct{} // Date keys ("Y-M-D") already submitted.
	Tries     int                 // Count of accepted (unique) guesses.
	State     State
	Newest    *history.Event // Most recently revealed clue, nil before the first guess.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Won reports whether the target date has been guessed.
func (s *Session) Won() bool { return s.State == StateWon }

// Clone returns a deep copy; Resolve never mutates its input.
func (s *Session) Clone() *Session {
	c := *s
	c.Clues = append([]history.Event(nil), s.Clues...)
	c.Guessed = maps.Clone(s.Guessed)
	if c.Guessed == nil {
		c.Guessed = make(map[string]struct{})
	}
	if s.Newest != nil {
		n := *s.Newest
		c.Newest = &n
	}
	return &c
}

// Outcome describes one accepted guess.
type Outcome struct {
	Guess   history.Date
	Clue    history.Event
	Tier    ClueTier
	Exact   bool   // guess was within the exact-only window
	Won     bool   // guess equals the target date
	Tries   int    // try counter after this guess
	Message string // transient notification text
}
