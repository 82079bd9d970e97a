// Package study drives one linear pass through a deck's cards: flip state,
// mastery marking, back/forward navigation, and the completion summary. A
// session holds only transient state; the deck repository stays the owner of
// everything durable.
package study

import (
	"errors"
	"sync"
	"time"

	"deckiq-backend/internal/models"
)

var (
	// ErrDeckNotFound is returned when a session is started for an unknown deck.
	ErrDeckNotFound = errors.New("deck not found")
	// ErrNoCards is returned for a deck with an empty card list; such a deck
	// never enters the reviewing state.
	ErrNoCards = errors.New("this deck has no cards")
)

// DeckStore is the slice of the repository the engine needs: reading the deck
// at session start and persisting mastery and completion side effects.
type DeckStore interface {
	GetDeck(deckID string) *models.Deck
	UpdateCard(deckID, cardID string, u models.CardUpdate)
	UpdateDeck(deckID string, u models.DeckUpdate)
	AddStudyResult(result models.StudyResult)
}

// Session is one pass over a deck. Cards are snapshotted at start; concurrent
// edits to the deck do not reshuffle a running session.
type Session struct {
	repo DeckStore
	now  func() time.Time

	mu           sync.Mutex
	deckID       string
	cards        []models.Flashcard
	currentIndex int
	isFlipped    bool
	mastered     map[string]struct{}
	complete     bool
}

// Summary reports a finished (or running) session's numbers.
type Summary struct {
	DeckID        string `json:"deck_id"`
	TotalCards    int    `json:"total_cards"`
	MasteredCards int    `json:"mastered_cards"`
}

// State is the full observable session state, shaped for the HTTP surface.
type State struct {
	DeckID          string  `json:"deck_id"`
	CurrentIndex    int     `json:"current_index"`
	TotalCards      int     `json:"total_cards"`
	IsFlipped       bool    `json:"is_flipped"`
	MasteredCount   int     `json:"mastered_this_session"`
	SessionComplete bool    `json:"session_complete"`
	Progress        float64 `json:"progress"`
	Front           string  `json:"front,omitempty"`
	Back            string  `json:"back,omitempty"`
}

// NewSession snapshots the deck's cards and enters the reviewing state at
// index 0, face up.
func NewSession(repo DeckStore, deckID string) (*Session, error) {
	deck := repo.GetDeck(deckID)
	if deck == nil {
		return nil, ErrDeckNotFound
	}
	if len(deck.Cards) == 0 {
		return nil, ErrNoCards
	}

	return &Session{
		repo:     repo,
		now:      time.Now,
		deckID:   deckID,
		cards:    deck.Cards,
		mastered: make(map[string]struct{}),
	}, nil
}

// Flip toggles between question and answer. No index change.
func (s *Session) Flip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete {
		return
	}
	s.isFlipped = !s.isFlipped
}

// MarkMastered persists mastered=true for the current card, records it in the
// session's mastered set, and advances. A card id stays in the set for the
// rest of the pass even if the card is later marked not-mastered after
// back-navigation; the summary counts "ever marked Got It this pass".
func (s *Session) MarkMastered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete {
		return
	}

	card := s.cards[s.currentIndex]
	mastered := true
	s.repo.UpdateCard(s.deckID, card.ID, models.CardUpdate{Mastered: &mastered})
	s.mastered[card.ID] = struct{}{}
	s.advance()
}

// MarkNotMastered persists mastered=false for the current card and advances.
// The session's mastered set is untouched.
func (s *Session) MarkNotMastered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete {
		return
	}

	card := s.cards[s.currentIndex]
	mastered := false
	s.repo.UpdateCard(s.deckID, card.ID, models.CardUpdate{Mastered: &mastered})
	s.advance()
}

// GoBack steps to the previous card. A no-op at index 0. Mastery already
// recorded is never undone.
func (s *Session) GoBack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete || s.currentIndex == 0 {
		return
	}
	s.isFlipped = false
	s.currentIndex--
}

// GoForward moves to the next card without touching mastery state. At the last
// index it is a no-op: finishing only happens through a mark action on the
// last card.
func (s *Session) GoForward() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete || s.currentIndex >= len(s.cards)-1 {
		return
	}
	s.isFlipped = false
	s.currentIndex++
}

// advance resets flip state and either steps forward or, at the last card,
// finishes the session. Callers hold s.mu.
func (s *Session) advance() {
	s.isFlipped = false
	if s.currentIndex < len(s.cards)-1 {
		s.currentIndex++
		return
	}
	s.finish()
}

// finish runs the completion side effects exactly once per completion: deck
// metadata update plus one appended StudyResult.
func (s *Session) finish() {
	now := s.now()

	sessions := 1
	if deck := s.repo.GetDeck(s.deckID); deck != nil {
		sessions = deck.TotalStudySessions + 1
	}
	s.repo.UpdateDeck(s.deckID, models.DeckUpdate{
		LastStudied:        &now,
		TotalStudySessions: &sessions,
	})
	s.repo.AddStudyResult(models.StudyResult{
		DeckID:        s.deckID,
		TotalCards:    len(s.cards),
		MasteredCards: len(s.mastered),
		Date:          now,
	})

	s.complete = true
}

// Restart re-enters reviewing from the completion state: index 0, face up,
// mastered set cleared. It does not create a StudyResult; only reaching
// completion again does. Mid-pass it is a no-op.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.complete {
		return
	}
	s.currentIndex = 0
	s.isFlipped = false
	s.mastered = make(map[string]struct{})
	s.complete = false
}

func (s *Session) DeckID() string {
	return s.deckID
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

func (s *Session) IsFlipped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isFlipped
}

func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

// MasteredThisSession returns how many distinct cards were marked Got It
// during this pass.
func (s *Session) MasteredThisSession() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mastered)
}

// Progress is the display fraction (currentIndex+1)/len(cards). The card list
// is never empty once a session exists.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.currentIndex+1) / float64(len(s.cards))
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		DeckID:        s.deckID,
		TotalCards:    len(s.cards),
		MasteredCards: len(s.mastered),
	}
}

// Snapshot returns the observable state in one consistent read.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		DeckID:          s.deckID,
		CurrentIndex:    s.currentIndex,
		TotalCards:      len(s.cards),
		IsFlipped:       s.isFlipped,
		MasteredCount:   len(s.mastered),
		SessionComplete: s.complete,
		Progress:        float64(s.currentIndex+1) / float64(len(s.cards)),
	}
	if !s.complete {
		card := s.cards[s.currentIndex]
		state.Front = card.Front
		state.Back = card.Back
	}
	return state
}
