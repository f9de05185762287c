package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/robalobadob/historyguesser/internal/game"
	"github.com/robalobadob/historyguesser/internal/history"
	"github.com/robalobadob/historyguesser/internal/store"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain and source errors onto status codes. Source
// failures become 502/503 so the client can show a notice and retry.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, errUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, game.ErrInvalidDate):
		status, code = http.StatusBadRequest, "invalid_date"
	case errors.Is(err, game.ErrDuplicateGuess):
		status, code = http.StatusConflict, "duplicate_guess"
	case errors.Is(err, game.ErrGuessInFlight):
		status, code = http.StatusConflict, "guess_in_flight"
	case errors.Is(err, game.ErrGameWon):
		status, code = http.StatusConflict, "game_won"
	case errors.Is(err, game.ErrTargetUnavailable):
		status, code = http.StatusServiceUnavailable, "target_unavailable"
	case errors.Is(err, history.ErrTransient):
		status, code = http.StatusServiceUnavailable, "source_unavailable"
	case errors.Is(err, history.ErrMalformed):
		status, code = http.StatusBadGateway, "source_malformed"
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = ""
	}
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}
