package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"deckiq-backend/internal/models"
	"deckiq-backend/internal/repository"
	"deckiq-backend/internal/services"
)

type DeckHandler struct {
	repo *repository.DeckRepo
}

func NewDeckHandler(repo *repository.DeckRepo) *DeckHandler {
	return &DeckHandler{repo: repo}
}

// ListDecks returns all decks, most recently created first.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"decks":   h.repo.Decks(),
		"loading": h.repo.IsLoading(),
	})
}

func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deck := h.repo.GetDeck(chi.URLParam(r, "deckId"))
	if deck == nil {
		handleServiceError(w, r, &services.NotFoundError{Message: "Deck not found"})
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckId")

	var req models.UpdateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if h.repo.GetDeck(deckID) == nil {
		handleServiceError(w, r, &services.NotFoundError{Message: "Deck not found"})
		return
	}

	h.repo.UpdateDeck(deckID, models.DeckUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Color:       req.Color,
	})

	writeJSON(w, http.StatusOK, h.repo.GetDeck(deckID))
}

func (h *DeckHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckId")
	cardID := chi.URLParam(r, "cardId")

	var req models.UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	deck := h.repo.GetDeck(deckID)
	if deck == nil {
		handleServiceError(w, r, &services.NotFoundError{Message: "Deck not found"})
		return
	}
	found := false
	for _, c := range deck.Cards {
		if c.ID == cardID {
			found = true
			break
		}
	}
	if !found {
		handleServiceError(w, r, &services.NotFoundError{Message: "Card not found"})
		return
	}

	h.repo.UpdateCard(deckID, cardID, models.CardUpdate{
		Front:    req.Front,
		Back:     req.Back,
		Mastered: req.Mastered,
	})

	writeJSON(w, http.StatusOK, h.repo.GetDeck(deckID))
}

// DeleteDeck is idempotent: deleting an absent deck still succeeds.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	h.repo.DeleteDeck(chi.URLParam(r, "deckId"))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deck deleted"})
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.GenerationError:
		writeJSON(w, http.StatusBadGateway, errorResp("GENERATION_FAILED", e.Message, r))
	case *services.RateLimitError:
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", e.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
