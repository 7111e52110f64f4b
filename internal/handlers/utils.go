package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cardtable/blackjack/internal/auth"
	"github.com/cardtable/blackjack/internal/game"
)

// writeJSON serializes v with the right content type.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the game error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, game.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrBadRequest):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// sessionID parses the {id} path segment.
func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, game.ErrNotFound
	}
	return id, nil
}

// resolvePlayer figures out who is acting: a bearer token issued on
// create/join takes precedence; a raw playerId in the body does the same job
// for clients that never stored the token.
func resolvePlayer(r *http.Request, sid uuid.UUID, bodyPlayerID string) (uuid.UUID, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		pid, tokenSID, err := auth.AuthenticatePlayerToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return uuid.Nil, game.ErrForbidden
		}
		if tokenSID != sid {
			return uuid.Nil, game.ErrForbidden
		}
		return pid, nil
	}
	pid, err := uuid.Parse(bodyPlayerID)
	if err != nil {
		return uuid.Nil, game.ErrBadRequest
	}
	return pid, nil
}
