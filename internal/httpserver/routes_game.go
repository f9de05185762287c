// internal/httpserver/routes_game.go
//
// HTTP routes for playing a game.
//   - POST /game/new   → pick a target (random or daily) and start a session
//   - POST /game/guess → submit a date, get a clue back
//   - GET  /game/state → the session as the player may see it
//
// The target appears in the clue list from the start so the player can see
// which revealed events bracket it; its date stays hidden until it is guessed.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/historyguesser/internal/daily"
	"github.com/robalobadob/historyguesser/internal/game"
	"github.com/robalobadob/historyguesser/internal/history"
)

const hiddenLabel = "--- Guess Me ---"

// eventView is an event as shown to the player.
type eventView struct {
	ID          int           `json:"id"`
	Description string        `json:"description"`
	Date        *history.Date `json:"date,omitempty"` // nil while the target is hidden
	Label       string        `json:"label"`
	Target      bool          `json:"target,omitempty"`
	Newest      bool          `json:"newest,omitempty"`
}

// sessionView is the player-visible part of a session.
type sessionView struct {
	GameID string      `json:"gameId"`
	Mode   game.Mode   `json:"mode"`
	State  game.State  `json:"state"`
	Tries  int         `json:"tries"`
	Target eventView   `json:"target"`
	Clues  []eventView `json:"clues"`
}

func viewEvent(s *game.Session, e history.Event) eventView {
	v := eventView{ID: e.ID, Description: e.Description}
	if e == s.Target {
		v.Target = true
		if !s.Won() {
			v.Label = hiddenLabel
			return v
		}
	}
	d := e.Date()
	v.Date = &d
	v.Label = d.String()
	if s.Newest != nil && *s.Newest == e {
		v.Newest = true
	}
	return v
}

func viewSession(s *game.Session) sessionView {
	clues := make([]eventView, 0, len(s.Clues))
	for _, e := range s.Clues {
		clues = append(clues, viewEvent(s, e))
	}
	return sessionView{
		GameID: s.ID,
		Mode:   s.Mode,
		State:  s.State,
		Tries:  s.Tries,
		Target: viewEvent(s, s.Target),
		Clues:  clues,
	}
}

// -----------------------------------------------------------------------------
// /game/new

type newGameReq struct {
	Mode game.Mode `json:"mode"` // "random" (default) | "daily"
}

type newGameRes struct {
	sessionView
	Token string `json:"token"`
}

// handleNewGame fetches a target and stores a fresh session.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_json", Message: err.Error()})
		return
	}

	var pick func() int
	switch req.Mode {
	case "", game.ModeRandom:
		req.Mode = game.ModeRandom
		pick = func() int { return game.RandomTargetID(s.resolver.Rand, s.opts.CorpusSize) }
	case game.ModeDaily:
		pick = daily.Picker(s.now(), s.opts.DailySalt, s.opts.CorpusSize)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_mode", Message: string(req.Mode)})
		return
	}

	sess, err := s.resolver.NewSession(r.Context(), req.Mode, pick)
	if err != nil {
		log.Error().Err(err).Str("mode", string(req.Mode)).Msg("new game")
		writeError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, err)
		return
	}

	tok, exp, err := s.signSession(sess.ID)
	if err != nil {
		log.Error().Err(err).Msg("sign session")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "sign_failed"})
		return
	}
	s.setSessionCookie(w, tok, exp)
	s.metrics.SessionStarted(string(req.Mode))
	log.Info().Str("gameId", sess.ID).Str("mode", string(req.Mode)).Int("targetId", sess.Target.ID).Msg("game started")

	writeJSON(w, http.StatusOK, newGameRes{sessionView: viewSession(sess), Token: tok})
}

// -----------------------------------------------------------------------------
// /game/guess

// guessReq accepts either "date" ("YYYY-MM-DD") or year/month/day.
type guessReq struct {
	GameID string `json:"gameId"` // optional; must match the token when set
	Date   string `json:"date"`
	Year   *int   `json:"year"`
	Month  *int   `json:"month"`
	Day    *int   `json:"day"`
}

func (g guessReq) date() (history.Date, error) {
	if g.Date != "" {
		d, err := history.ParseDate(g.Date)
		if err != nil {
			return history.Date{}, errors.Join(game.ErrInvalidDate, err)
		}
		return d, nil
	}
	if g.Year == nil || g.Month == nil || g.Day == nil {
		return history.Date{}, game.ErrInvalidDate
	}
	return history.Date{Year: *g.Year, Month: *g.Month, Day: *g.Day}, nil
}

type guessRes struct {
	Clue    eventView     `json:"clue"`
	Tier    game.ClueTier `json:"tier"`
	Exact   bool          `json:"exact"`
	Won     bool          `json:"won"`
	Message string        `json:"message"`
	sessionView
}

// handleGuess resolves one guess. The session is held in guess-in-flight
// while the source is consulted so a concurrent submission is refused.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	gid := gameIDFrom(r.Context())

	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_json", Message: err.Error()})
		return
	}
	if req.GameID != "" && req.GameID != gid {
		writeError(w, errUnauthorized)
		return
	}
	guess, err := req.date()
	if err != nil {
		s.metrics.Guess("rejected")
		writeError(w, err)
		return
	}

	cur, err := s.store.Acquire(r.Context(), gid)
	if err != nil {
		writeError(w, err)
		return
	}

	next, out, err := s.resolver.Resolve(r.Context(), cur, guess)
	if err != nil {
		if rerr := s.store.Release(r.Context(), gid, nil); rerr != nil {
			log.Warn().Err(rerr).Str("gameId", gid).Msg("release session")
		}
		s.metrics.Guess(guessResult(err))
		if !errors.Is(err, game.ErrDuplicateGuess) && !errors.Is(err, game.ErrGameWon) {
			log.Warn().Err(err).Str("gameId", gid).Str("guess", guess.Key()).Msg("guess failed")
		}
		writeError(w, err)
		return
	}
	if err := s.store.Release(r.Context(), gid, next); err != nil {
		writeError(w, err)
		return
	}

	if out.Won {
		s.metrics.Guess("won")
	} else {
		s.metrics.Guess("miss")
	}
	s.metrics.Clue(string(out.Tier))
	log.Info().
		Str("gameId", gid).
		Str("guess", guess.Key()).
		Str("tier", string(out.Tier)).
		Int("clueId", out.Clue.ID).
		Int("tries", out.Tries).
		Bool("won", out.Won).
		Msg("guess resolved")

	writeJSON(w, http.StatusOK, guessRes{
		Clue:        viewEvent(next, out.Clue),
		Tier:        out.Tier,
		Exact:       out.Exact,
		Won:         out.Won,
		Message:     out.Message,
		sessionView: viewSession(next),
	})
}

func guessResult(err error) string {
	switch {
	case errors.Is(err, game.ErrDuplicateGuess):
		return "duplicate"
	case errors.Is(err, game.ErrGameWon), errors.Is(err, game.ErrInvalidDate):
		return "rejected"
	default:
		return "error"
	}
}

// -----------------------------------------------------------------------------
// /game/state

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), gameIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(sess))
}
