package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"deckiq-backend/internal/models"
	"deckiq-backend/internal/repository"
)

// Deck color palette; the first entry is the default.
var cardColors = []string{"#10B981", "#3B82F6", "#8B5CF6", "#F59E0B", "#EF6461", "#EC4899"}

const maxCardsPerRequest = 100

// DeckService implements the deck creation flows on top of the repository
// and the card generator.
type DeckService struct {
	repo    *repository.DeckRepo
	gemini  *GeminiService
	files   *FileExtractService
	youtube *YouTubeService
}

func NewDeckService(repo *repository.DeckRepo, gemini *GeminiService, files *FileExtractService, youtube *YouTubeService) *DeckService {
	return &DeckService{repo: repo, gemini: gemini, files: files, youtube: youtube}
}

// GenerateDeck creates a deck of AI-generated practice cards for a topic.
func (s *DeckService) GenerateDeck(ctx context.Context, req models.GenerateDeckRequest) (*models.Deck, error) {
	fieldErrors := map[string]string{}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		fieldErrors["topic"] = "Please enter a topic."
	}
	count, countErr := normalizeCount(req.NumCards)
	if countErr != "" {
		fieldErrors["num_cards"] = countErr
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	cards, err := s.gemini.GenerateFromTopic(ctx, topic, strings.TrimSpace(req.Description), count)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fmt.Sprintf("AI-generated flashcards for %s", topic)
	}

	deck := s.buildDeck(topic, description, cards, req.Category, req.Subcategory, req.Color)
	s.repo.AddDeck(deck)
	return &deck, nil
}

// CreateFromText creates a deck generated from pasted notes.
func (s *DeckService) CreateFromText(ctx context.Context, req models.FromTextRequest) (*models.Deck, error) {
	fieldErrors := map[string]string{}
	if strings.TrimSpace(req.Text) == "" {
		fieldErrors["text"] = "Please paste some text first."
	}
	count, countErr := normalizeCount(req.NumCards)
	if countErr != "" {
		fieldErrors["num_cards"] = countErr
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	cards, err := s.gemini.GenerateFromNotes(ctx, req.Text, count)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Notes Flashcards"
	}

	deck := s.buildDeck(title, "Generated from pasted notes", cards, "", "", req.Color)
	s.repo.AddDeck(deck)
	return &deck, nil
}

// CreateFromImage creates a deck generated from a photo of study material.
func (s *DeckService) CreateFromImage(ctx context.Context, title string, image []byte, mimeType string, numCards *int, color string) (*models.Deck, error) {
	fieldErrors := map[string]string{}
	if len(image) == 0 {
		fieldErrors["file"] = "Please upload an image first."
	}
	count, countErr := normalizeCount(numCards)
	if countErr != "" {
		fieldErrors["num_cards"] = countErr
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	cards, err := s.gemini.GenerateFromImage(ctx, image, mimeType, count)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Uploaded Notes"
	}

	deck := s.buildDeck(title, "Generated from uploaded content", cards, "", "", color)
	s.repo.AddDeck(deck)
	return &deck, nil
}

// CreateFromDocument extracts text from an uploaded document and generates a
// deck from it.
func (s *DeckService) CreateFromDocument(ctx context.Context, title, path string, numCards *int, color string) (*models.Deck, error) {
	count, countErr := normalizeCount(numCards)
	if countErr != "" {
		return nil, &ValidationError{Fields: map[string]string{"num_cards": countErr}}
	}

	text, err := s.files.Extract(path)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"file": err.Error()}}
	}

	cards, err := s.gemini.GenerateFromDocument(ctx, text, count)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Uploaded Notes"
	}

	deck := s.buildDeck(title, "Generated from uploaded content", cards, "", "", color)
	s.repo.AddDeck(deck)
	return &deck, nil
}

// CreateFromYouTube fetches a video transcript and generates a deck from it.
func (s *DeckService) CreateFromYouTube(ctx context.Context, req models.FromYouTubeRequest) (*models.Deck, error) {
	fieldErrors := map[string]string{}
	videoID, idErr := ExtractVideoID(req.VideoID)
	if idErr != nil {
		fieldErrors["video_id"] = "Please provide a valid YouTube video URL or id."
	}
	count, countErr := normalizeCount(req.NumCards)
	if countErr != "" {
		fieldErrors["num_cards"] = countErr
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	transcript, err := s.youtube.GetTranscript(videoID)
	if err != nil {
		return nil, &GenerationError{Message: err.Error()}
	}

	cards, err := s.gemini.GenerateFromNotes(ctx, transcript, count)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		if t := s.youtube.GetVideoTitle(videoID); t != "" {
			title = t
		} else {
			title = "YouTube Flashcards"
		}
	}

	deck := s.buildDeck(title, "Generated from a YouTube video transcript", cards, "", "", req.Color)
	s.repo.AddDeck(deck)
	return &deck, nil
}

// CreateManual creates a deck from hand-written cards. Cards with a blank
// front or back are dropped; at least one complete card is required.
func (s *DeckService) CreateManual(req models.ManualDeckRequest) (*models.Deck, error) {
	fieldErrors := map[string]string{}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		fieldErrors["title"] = "Please enter a deck title."
	}

	var validCards []models.GeneratedCard
	for _, c := range req.Cards {
		front := strings.TrimSpace(c.Front)
		back := strings.TrimSpace(c.Back)
		if front == "" || back == "" {
			continue
		}
		validCards = append(validCards, models.GeneratedCard{Front: front, Back: back})
	}
	if len(validCards) == 0 {
		fieldErrors["cards"] = "Please fill in at least one card with both front and back."
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Custom flashcard deck"
	}

	deck := s.buildDeck(title, description, validCards, "", "", req.Color)
	s.repo.AddDeck(deck)
	return &deck, nil
}

func (s *DeckService) buildDeck(title, description string, cards []models.GeneratedCard, category, subcategory, color string) models.Deck {
	if category == "" {
		category = "custom"
	}
	if subcategory == "" {
		subcategory = "custom"
	}
	if color == "" {
		color = cardColors[0]
	}

	deckCards := make([]models.Flashcard, len(cards))
	for i, c := range cards {
		deckCards[i] = models.Flashcard{
			ID:       uuid.NewString(),
			Front:    c.Front,
			Back:     c.Back,
			Mastered: false,
		}
	}

	return models.Deck{
		ID:                 uuid.NewString(),
		Title:              title,
		Description:        description,
		Category:           category,
		Subcategory:        subcategory,
		Cards:              deckCards,
		CreatedAt:          time.Now().UTC(),
		LastStudied:        nil,
		TotalStudySessions: 0,
		Color:              color,
	}
}

// normalizeCount applies the card count bounds. An absent count means "use
// the default of 10"; anything outside 1..100, explicit zero included, is
// rejected.
func normalizeCount(n *int) (int, string) {
	if n == nil {
		return 10, ""
	}
	if *n < 1 {
		return 0, "Please enter a valid number of cards."
	}
	if *n > maxCardsPerRequest {
		return 0, "Please enter 100 or fewer cards."
	}
	return *n, ""
}
