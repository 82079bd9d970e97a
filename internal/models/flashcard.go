package models

import "time"

// Flashcard is one front/back pair inside a deck. Mastered is the persisted,
// session-independent flag; the per-session mastered set lives in the study
// engine.
type Flashcard struct {
	ID       string `json:"id"`
	Front    string `json:"front"`
	Back     string `json:"back"`
	Mastered bool   `json:"mastered"`
}

// Complete reports whether the card has both sides filled in. Blank cards may
// exist while a deck is being authored but are filtered out before save.
func (f Flashcard) Complete() bool {
	return f.Front != "" && f.Back != ""
}

// Deck is a named, ordered collection of flashcards. Card order is display and
// study order and is preserved across all operations.
type Deck struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	Category           string      `json:"category"`
	Subcategory        string      `json:"subcategory"`
	Cards              []Flashcard `json:"cards"`
	CreatedAt          time.Time   `json:"createdAt"`
	LastStudied        *time.Time  `json:"lastStudied"`
	TotalStudySessions int         `json:"totalStudySessions"`
	Color              string      `json:"color"`
}

// StudyResult records the outcome of one completed session. It is append-only:
// never mutated, never deleted, and it outlives its deck (DeckID is a weak
// reference).
type StudyResult struct {
	DeckID        string    `json:"deckId"`
	TotalCards    int       `json:"totalCards"`
	MasteredCards int       `json:"masteredCards"`
	Date          time.Time `json:"date"`
}

// DeckUpdate carries a shallow partial update for a deck. Nil fields are left
// untouched. Cards are deliberately absent: metadata updates never reorder or
// replace the card list.
type DeckUpdate struct {
	Title              *string
	Description        *string
	Category           *string
	Subcategory        *string
	Color              *string
	LastStudied        *time.Time
	TotalStudySessions *int
}

// CardUpdate carries a shallow partial update for a single card, most commonly
// just the mastered flag.
type CardUpdate struct {
	Front    *string
	Back     *string
	Mastered *bool
}

// RepoStats are the derived read-only aggregates, recomputed from the current
// in-memory collections on every access.
type RepoStats struct {
	TotalDecks        int `json:"total_decks"`
	TotalSessions     int `json:"total_sessions"`
	TotalCardsStudied int `json:"total_cards_studied"`
	TotalMastered     int `json:"total_mastered"`
}
