// Package worker runs the background persistence loop for the deck
// repository. Mutations update memory synchronously and hand a snapshot here;
// the single worker goroutine writes snapshots through the storage layer so a
// slow medium never blocks the mutation path.
package worker

import (
	"context"
	"log"
	"time"

	"deckiq-backend/internal/models"
	"deckiq-backend/internal/storage"
)

const saveTimeout = 15 * time.Second

// Persister owns one goroutine that drains coalescing snapshot channels. Each
// channel holds at most one pending snapshot: enqueueing while a write is
// backlogged replaces the pending value, so the newest snapshot always wins
// and writes reach the store in recency order.
type Persister struct {
	store     storage.Store
	decksCh   chan []models.Deck
	resultsCh chan []models.StudyResult
	stopChan  chan struct{}
	done      chan struct{}
}

func NewPersister(store storage.Store) *Persister {
	return &Persister{
		store:     store,
		decksCh:   make(chan []models.Deck, 1),
		resultsCh: make(chan []models.StudyResult, 1),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (p *Persister) Start() {
	go p.run()
}

// Stop shuts the worker down after flushing any pending snapshots.
func (p *Persister) Stop() {
	close(p.stopChan)
	<-p.done
}

// EnqueueDecks schedules a deck collection snapshot for persistence. Never
// blocks: a backlogged snapshot is replaced by the newer one.
func (p *Persister) EnqueueDecks(decks []models.Deck) {
	for {
		select {
		case p.decksCh <- decks:
			return
		default:
			select {
			case <-p.decksCh:
			default:
			}
		}
	}
}

// EnqueueResults schedules a study-result collection snapshot for persistence.
func (p *Persister) EnqueueResults(results []models.StudyResult) {
	for {
		select {
		case p.resultsCh <- results:
			return
		default:
			select {
			case <-p.resultsCh:
			default:
			}
		}
	}
}

func (p *Persister) run() {
	defer close(p.done)

	for {
		select {
		case decks := <-p.decksCh:
			p.saveDecks(decks)
		case results := <-p.resultsCh:
			p.saveResults(results)
		case <-p.stopChan:
			p.flush()
			return
		}
	}
}

// flush writes whatever is still pending before shutdown.
func (p *Persister) flush() {
	for {
		select {
		case decks := <-p.decksCh:
			p.saveDecks(decks)
		case results := <-p.resultsCh:
			p.saveResults(results)
		default:
			return
		}
	}
}

func (p *Persister) saveDecks(decks []models.Deck) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := p.store.SaveDecks(ctx, decks); err != nil {
		// In-memory state stays authoritative; the next mutation retries.
		log.Printf("Persister: failed to save decks: %v", err)
	}
}

func (p *Persister) saveResults(results []models.StudyResult) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := p.store.SaveResults(ctx, results); err != nil {
		log.Printf("Persister: failed to save study results: %v", err)
	}
}
