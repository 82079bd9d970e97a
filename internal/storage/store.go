// Package storage provides durable storage for the two DeckIQ collections:
// decks and study results. Each collection lives under a fixed logical key and
// every save is a whole-collection overwrite; there are no incremental updates
// at this layer.
package storage

import (
	"context"
	"fmt"

	"deckiq-backend/internal/models"
)

// Logical keys the collections are stored under. Kept identical to the mobile
// app's storage keys so an exported payload is recognizable.
const (
	DecksKey   = "deckiq_decks"
	ResultsKey = "deckiq_results"
)

// Store is the persistence boundary for the deck repository. Loads return an
// empty slice when no data has been saved yet; "nothing there" is never an
// error. An unreadable medium or a malformed payload yields a *StorageError.
type Store interface {
	LoadDecks(ctx context.Context) ([]models.Deck, error)
	SaveDecks(ctx context.Context, decks []models.Deck) error
	LoadResults(ctx context.Context) ([]models.StudyResult, error)
	SaveResults(ctx context.Context, results []models.StudyResult) error
}

// StorageError wraps any read/write failure at the persistence boundary.
// Callers treat a write failure as "changes are in memory only, not yet
// durable" and never roll back.
type StorageError struct {
	Op  string // "load" or "save"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
