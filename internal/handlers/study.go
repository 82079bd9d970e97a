package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"deckiq-backend/internal/models"
	"deckiq-backend/internal/services"
	"deckiq-backend/internal/study"
)

type StudyHandler struct {
	manager *study.Manager
}

func NewStudyHandler(manager *study.Manager) *StudyHandler {
	return &StudyHandler{manager: manager}
}

// Start handles POST /study/start and opens a session on a deck.
func (h *StudyHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartStudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	id, session, err := h.manager.Start(req.DeckID)
	if err != nil {
		switch err {
		case study.ErrDeckNotFound:
			handleServiceError(w, r, &services.NotFoundError{Message: "Deck not found"})
		case study.ErrNoCards:
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start study session", r))
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": id,
		"state":      session.Snapshot(),
	})
}

// Get handles GET /study/{sessionId}.
func (h *StudyHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.manager.Get(chi.URLParam(r, "sessionId"))
	if !ok {
		handleServiceError(w, r, &services.NotFoundError{Message: "Study session not found"})
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// Action handles POST /study/{sessionId}/{action}, applies the input, and
// returns the resulting state. Inputs a finished session ignores still
// return 200 with the final state.
func (h *StudyHandler) Action(w http.ResponseWriter, r *http.Request) {
	session, ok := h.manager.Get(chi.URLParam(r, "sessionId"))
	if !ok {
		handleServiceError(w, r, &services.NotFoundError{Message: "Study session not found"})
		return
	}

	switch chi.URLParam(r, "action") {
	case "flip":
		session.Flip()
	case "mark-mastered":
		session.MarkMastered()
	case "mark-not-mastered":
		session.MarkNotMastered()
	case "back":
		session.GoBack()
	case "forward":
		session.GoForward()
	case "restart":
		session.Restart()
	default:
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown study action", r))
		return
	}

	writeJSON(w, http.StatusOK, session.Snapshot())
}

// End handles DELETE /study/{sessionId}. Ending an unknown session is fine.
func (h *StudyHandler) End(w http.ResponseWriter, r *http.Request) {
	h.manager.End(chi.URLParam(r, "sessionId"))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Study session ended"})
}
