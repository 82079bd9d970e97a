package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"deckiq-backend/internal/models"
	"deckiq-backend/internal/services"
)

const maxUploadBytes = 20 * 1024 * 1024 // 20MB

// CreateHandler owns the deck creation flows: manual assembly plus the
// AI-backed topic, text, upload, and YouTube generators.
type CreateHandler struct {
	service *services.DeckService
	files   *services.FileExtractService
}

func NewCreateHandler(service *services.DeckService, files *services.FileExtractService) *CreateHandler {
	return &CreateHandler{service: service, files: files}
}

// CreateManual handles POST /decks with hand-written cards.
func (h *CreateHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	var req models.ManualDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	deck, err := h.service.CreateManual(req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, deck)
}

// Generate handles POST /decks/generate: AI cards for a named topic.
func (h *CreateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	deck, err := h.service.GenerateDeck(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, deck)
}

// FromText handles POST /decks/from-text: AI cards from pasted notes.
func (h *CreateHandler) FromText(w http.ResponseWriter, r *http.Request) {
	var req models.FromTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	deck, err := h.service.CreateFromText(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, deck)
}

// FromYouTube handles POST /decks/from-youtube: AI cards from a video
// transcript.
func (h *CreateHandler) FromYouTube(w http.ResponseWriter, r *http.Request) {
	var req models.FromYouTubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	deck, err := h.service.CreateFromYouTube(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, deck)
}

// Upload handles POST /decks/upload. The multipart form carries a "file"
// field holding either an image of study material or a text document, plus
// optional title, num_cards, and color fields.
func (h *CreateHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 20MB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	color := r.FormValue("color")
	var numCards *int
	if v := r.FormValue("num_cards"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "num_cards must be a number", r))
			return
		}
		numCards = &n
	}

	// Sniff the first 512 bytes to tell images from documents
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	buf = buf[:n]
	mimeType := http.DetectContentType(buf)
	file.Seek(0, io.SeekStart)

	if strings.HasPrefix(mimeType, "image/") {
		image, err := io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read uploaded image", r))
			return
		}

		deck, err := h.service.CreateFromImage(r.Context(), title, image, mimeType, numCards, color)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, deck)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !h.files.SupportedExt(ext) {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "File type not supported", r))
		return
	}

	// Document extraction works on paths, so spool the upload to a temp file
	tmp, err := os.CreateTemp("", "deckiq-upload-*"+ext)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store upload", r))
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store upload", r))
		return
	}
	tmp.Close()

	deck, err := h.service.CreateFromDocument(r.Context(), title, tmp.Name(), numCards, color)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deck)
}
