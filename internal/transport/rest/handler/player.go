package handler

import (
	"net/http"

	"hectoclash/internal/service"
	"hectoclash/internal/transport/rest/middleware"
)

const defaultHistoryLimit = 20

// PlayerHandler handles presence, leaderboard and per-user stats endpoints
type PlayerHandler struct {
	presence *service.PresenceService
	stats    *service.StatsService
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(presence *service.PresenceService, stats *service.StatsService) *PlayerHandler {
	return &PlayerHandler{presence: presence, stats: stats}
}

// Online handles GET /v1/players/online
func (h *PlayerHandler) Online(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"players": h.presence.OnlinePlayers(userID),
	})
}

// Leaderboard handles GET /v1/leaderboard
func (h *PlayerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a number")
		return
	}

	entries, err := h.stats.Leaderboard(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

// Stats handles GET /v1/me/stats
func (h *PlayerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.stats.UserStats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Results handles GET /v1/me/results
func (h *PlayerHandler) Results(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, ok := queryInt(r, "limit", defaultHistoryLimit)
	if !ok || limit <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive number")
		return
	}

	records, err := h.stats.History(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": records})
}
