package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"hectoclash/internal/service"
)

// SessionHandler exposes read access to game sessions.
type SessionHandler struct {
	matches *service.MatchService
}

func NewSessionHandler(matches *service.MatchService) *SessionHandler {
	return &SessionHandler{matches: matches}
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.matches.Lookup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
