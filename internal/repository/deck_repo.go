// Package repository holds the in-memory source of truth for decks and study
// results. Every mutation installs the new collection value synchronously, so
// a read immediately after a write observes the write, then hands a snapshot
// to the persistence worker. Persistence failures never roll memory back.
package repository

import (
	"context"
	"log"
	"sync"

	"deckiq-backend/internal/models"
	"deckiq-backend/internal/storage"
)

// PersistQueue receives collection snapshots for asynchronous durable writes.
// Implemented by *worker.Persister. Enqueue calls never block; mutations issue
// them while still holding the repository lock so snapshots reach the worker
// in increasing recency order and a later state can never be overwritten by
// an earlier one.
type PersistQueue interface {
	EnqueueDecks(decks []models.Deck)
	EnqueueResults(results []models.StudyResult)
}

type DeckRepo struct {
	store storage.Store
	queue PersistQueue

	mu      sync.RWMutex
	loading bool
	decks   []models.Deck
	results []models.StudyResult
}

func NewDeckRepo(store storage.Store, queue PersistQueue) *DeckRepo {
	return &DeckRepo{
		store:   store,
		queue:   queue,
		loading: true,
		decks:   []models.Deck{},
		results: []models.StudyResult{},
	}
}

// Load reads both collections once at startup. A storage read failure is
// logged and the repository still becomes ready with empty collections,
// trading strict durability for availability.
func (r *DeckRepo) Load(ctx context.Context) {
	decks, err := r.store.LoadDecks(ctx)
	if err != nil {
		log.Printf("DeckRepo: failed to load decks, starting empty: %v", err)
		decks = []models.Deck{}
	}

	results, err := r.store.LoadResults(ctx)
	if err != nil {
		log.Printf("DeckRepo: failed to load study results, starting empty: %v", err)
		results = []models.StudyResult{}
	}

	r.mu.Lock()
	r.decks = decks
	r.results = results
	r.loading = false
	r.mu.Unlock()
}

func (r *DeckRepo) IsLoading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// AddDeck inserts at the front of the list; most-recent-first ordering is an
// observable contract. No shape validation and no duplicate-id check happen
// here; creation callers own validation.
func (r *DeckRepo) AddDeck(deck models.Deck) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := make([]models.Deck, 0, len(r.decks)+1)
	updated = append(updated, deck)
	updated = append(updated, r.decks...)
	r.decks = updated
	r.queue.EnqueueDecks(updated)
}

// UpdateDeck shallow-merges the given fields into the matching deck. An
// unknown id leaves the collection unchanged but still persists current state.
// The card list is never touched here.
func (r *DeckRepo) UpdateDeck(deckID string, u models.DeckUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := make([]models.Deck, len(r.decks))
	for i, d := range r.decks {
		if d.ID == deckID {
			d = mergeDeck(d, u)
		}
		updated[i] = d
	}
	r.decks = updated
	r.queue.EnqueueDecks(updated)
}

// DeleteDeck removes the deck with the matching id. Deleting an unknown id is
// a no-op; historical study results referencing the deck are kept.
func (r *DeckRepo) DeleteDeck(deckID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := make([]models.Deck, 0, len(r.decks))
	for _, d := range r.decks {
		if d.ID != deckID {
			updated = append(updated, d)
		}
	}
	r.decks = updated
	r.queue.EnqueueDecks(updated)
}

// UpdateCard shallow-merges the given fields into one card, preserving card
// order. Unknown deck or card ids are no-ops (still persisting current state),
// which keeps the mutation API idempotent under delete/update races.
func (r *DeckRepo) UpdateCard(deckID, cardID string, u models.CardUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := make([]models.Deck, len(r.decks))
	for i, d := range r.decks {
		if d.ID == deckID {
			cards := make([]models.Flashcard, len(d.Cards))
			for j, c := range d.Cards {
				if c.ID == cardID {
					c = mergeCard(c, u)
				}
				cards[j] = c
			}
			d.Cards = cards
		}
		updated[i] = d
	}
	r.decks = updated
	r.queue.EnqueueDecks(updated)
}

// AddStudyResult prepends a completed session's result. Results are
// append-only facts and accumulate indefinitely.
func (r *DeckRepo) AddStudyResult(result models.StudyResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := make([]models.StudyResult, 0, len(r.results)+1)
	updated = append(updated, result)
	updated = append(updated, r.results...)
	r.results = updated
	r.queue.EnqueueResults(updated)
}

// GetDeck is a pure lookup, returning nil when the id is unknown.
func (r *DeckRepo) GetDeck(deckID string) *models.Deck {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.decks {
		if d.ID == deckID {
			deck := d
			return &deck
		}
	}
	return nil
}

// Decks returns the current in-memory deck list (empty until ready).
func (r *DeckRepo) Decks() []models.Deck {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Deck(nil), r.decks...)
}

// StudyResults returns the current in-memory result list, most recent first.
func (r *DeckRepo) StudyResults() []models.StudyResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.StudyResult(nil), r.results...)
}

// Stats recomputes the derived aggregates from the current in-memory view.
func (r *DeckRepo) Stats() models.RepoStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := models.RepoStats{
		TotalDecks:    len(r.decks),
		TotalSessions: len(r.results),
	}
	for _, res := range r.results {
		stats.TotalCardsStudied += res.TotalCards
		stats.TotalMastered += res.MasteredCards
	}
	return stats
}

func mergeDeck(d models.Deck, u models.DeckUpdate) models.Deck {
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Category != nil {
		d.Category = *u.Category
	}
	if u.Subcategory != nil {
		d.Subcategory = *u.Subcategory
	}
	if u.Color != nil {
		d.Color = *u.Color
	}
	if u.LastStudied != nil {
		t := *u.LastStudied
		d.LastStudied = &t
	}
	if u.TotalStudySessions != nil {
		d.TotalStudySessions = *u.TotalStudySessions
	}
	return d
}

func mergeCard(c models.Flashcard, u models.CardUpdate) models.Flashcard {
	if u.Front != nil {
		c.Front = *u.Front
	}
	if u.Back != nil {
		c.Back = *u.Back
	}
	if u.Mastered != nil {
		c.Mastered = *u.Mastered
	}
	return c
}
