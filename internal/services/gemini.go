package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"deckiq-backend/internal/models"
)

const missingKeyMessage = "AI API key is not configured. Set GEMINI_API_KEY in your environment."

type GeminiService struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	rateChan    chan struct{} // Token bucket
	rateTimeout time.Duration
}

// NewGeminiService builds the card generator. An empty API key is not an
// error: the service starts, and generation calls fail with a
// GenerationError so manual deck creation keeps working.
func NewGeminiService(apiKey string, concurrentReqs int) (*GeminiService, error) {
	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	s := &GeminiService{rateChan: rateChan, rateTimeout: 5 * time.Minute}
	if apiKey == "" {
		log.Println("WARNING: GEMINI_API_KEY not set, AI generation disabled")
		return s, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.7)
	model.SetTopP(0.95)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction())},
	}

	s.client = client
	s.model = model
	return s, nil
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.rateTimeout):
		return &RateLimitError{Message: "AI generator is busy. Please try again later."}
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// GenerateFromTopic produces practice cards for a named topic.
func (s *GeminiService) GenerateFromTopic(ctx context.Context, topic, description string, count int) ([]models.GeneratedCard, error) {
	return s.generate(ctx, genai.Text(buildTopicPrompt(topic, description, count)))
}

// GenerateFromNotes produces cards grounded in pasted notes.
func (s *GeminiService) GenerateFromNotes(ctx context.Context, notes string, count int) ([]models.GeneratedCard, error) {
	prompt := buildNotesPrompt(count) + "\n\n---NOTES---\n" + notes + "\n---END---\n"
	return s.generate(ctx, genai.Text(prompt))
}

// GenerateFromDocument produces cards from extracted document text.
func (s *GeminiService) GenerateFromDocument(ctx context.Context, text string, count int) ([]models.GeneratedCard, error) {
	prompt := buildDocumentPrompt(count) + "\n\n---DOCUMENT---\n" + text + "\n---END---\n"
	return s.generate(ctx, genai.Text(prompt))
}

// GenerateFromImage produces cards from a photo of study material.
func (s *GeminiService) GenerateFromImage(ctx context.Context, image []byte, mimeType string, count int) ([]models.GeneratedCard, error) {
	format := "jpeg"
	if strings.HasPrefix(mimeType, "image/") {
		format = strings.TrimPrefix(mimeType, "image/")
	}
	return s.generate(ctx,
		genai.Text(buildImagePrompt(count)),
		genai.ImageData(format, image),
	)
}

func (s *GeminiService) generate(ctx context.Context, parts ...genai.Part) ([]models.GeneratedCard, error) {
	if s.model == nil {
		return nil, &GenerationError{Message: missingKeyMessage}
	}

	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, &GenerationError{Message: fmt.Sprintf("Gemini API error: %v", err)}
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	cards, err := decodeGeneratedCards(extractText(resp))
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// decodeGeneratedCards parses the model output into cards. Markdown fences
// are stripped and, if the payload has extra prose around it, the outermost
// JSON object is extracted before decoding. Cards missing a front or a back
// are dropped.
func decodeGeneratedCards(raw string) ([]models.GeneratedCard, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return nil, &GenerationError{Message: "No content returned from AI API."}
	}

	var payload models.GeneratedCards
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return nil, &GenerationError{Message: "AI response was not valid JSON"}
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
			return nil, &GenerationError{Message: "AI response was not valid JSON"}
		}
	}

	var cards []models.GeneratedCard
	for _, c := range payload.Cards {
		front := strings.TrimSpace(c.Front)
		back := strings.TrimSpace(c.Back)
		if front == "" || back == "" {
			continue
		}
		cards = append(cards, models.GeneratedCard{Front: front, Back: back})
	}

	if len(cards) == 0 {
		return nil, &GenerationError{Message: "AI returned no usable flashcards"}
	}
	return cards, nil
}

// Prompt builders

func systemInstruction() string {
	schema := `{
  "cards": [
    {
      "front": "Question or term goes here",
      "back": "Answer or definition goes here"
    }
  ]
}`
	return "You are a helpful assistant that generates structured data. Always respond with valid JSON matching this exact structure:\n" +
		schema +
		"\n\nRespond ONLY with the JSON object, no markdown, no code fences, no extra text."
}

func buildTopicPrompt(topic, description string, count int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Generate exactly %d practice flashcards for %q. ", count, topic))
	if description != "" {
		b.WriteString(fmt.Sprintf("Cover these specific topics: %s. ", description))
	}
	b.WriteString("CRITICAL RULES: ")
	b.WriteString("1) Every card must be an actual practice question that could realistically appear on this exam or in this subject. ")
	b.WriteString(fmt.Sprintf("2) NEVER generate questions about the test itself (like \"what does %s stand for\" or \"how many sections does the test have\"). ", topic))
	b.WriteString("3) Front of card = a specific practice question, problem, or key term. ")
	b.WriteString("4) Back of card = the correct answer, solution, or definition. ")
	b.WriteString("5) Make cards progressively harder from beginner to advanced. ")
	b.WriteString("6) Use the exact style and difficulty level of the real exam.")

	return b.String()
}

func buildNotesPrompt(count int) string {
	return fmt.Sprintf("Read the following notes/text carefully and generate exactly %d flashcards from the content. "+
		"Extract the most important concepts, terms, facts, and relationships. "+
		"Front of card = a specific question or key term from the notes. "+
		"Back of card = the correct answer or definition. "+
		"Make sure all cards are directly based on the provided content.", count)
}

func buildDocumentPrompt(count int) string {
	return fmt.Sprintf("Read the following document carefully and generate exactly %d flashcards from the content. "+
		"Extract the most important concepts, terms, facts, and relationships. "+
		"Front of card = a specific question or key term. "+
		"Back of card = the correct answer or definition.", count)
}

func buildImagePrompt(count int) string {
	return fmt.Sprintf("Look at this image of notes/study material and generate exactly %d flashcards from the visible content. "+
		"Extract the most important concepts, terms, facts, and relationships you can see. "+
		"Front of card = a specific question or key term. "+
		"Back of card = the correct answer or definition. "+
		"Make sure all cards are based on what is actually shown in the image.", count)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
