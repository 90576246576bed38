package handler

import (
	"net/http"

	"manara/internal/service"
	"manara/internal/transport/rest/middleware"
)

// LeaderboardHandler handles leaderboard endpoints
type LeaderboardHandler struct {
	leaderboardSvc *service.LeaderboardService
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboardSvc *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardSvc: leaderboardSvc}
}

// Top handles GET /v1/leaderboard
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboardSvc.GetTop(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Rank handles GET /v1/leaderboard/rank for the authenticated user
func (h *LeaderboardHandler) Rank(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	rank, err := h.leaderboardSvc.Rank(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"rank": rank})
}
