package handlers

import (
	"net/http"

	"deckiq-backend/internal/repository"
)

type DashboardHandler struct {
	repo *repository.DeckRepo
}

func NewDashboardHandler(repo *repository.DeckRepo) *DashboardHandler {
	return &DashboardHandler{repo: repo}
}

// Stats handles GET /dashboard/stats with aggregates recomputed from the
// current collections.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.repo.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_decks":         stats.TotalDecks,
		"total_sessions":      stats.TotalSessions,
		"total_cards_studied": stats.TotalCardsStudied,
		"total_mastered":      stats.TotalMastered,
	})
}

// Results handles GET /results, most recent first.
func (h *DashboardHandler) Results(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": h.repo.StudyResults(),
	})
}
