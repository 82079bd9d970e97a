package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"deckiq-backend/internal/models"
	"deckiq-backend/internal/storage"
)

// recordingQueue captures enqueued snapshots synchronously.
type recordingQueue struct {
	deckSnapshots   [][]models.Deck
	resultSnapshots [][]models.StudyResult
}

func (q *recordingQueue) EnqueueDecks(decks []models.Deck) {
	q.deckSnapshots = append(q.deckSnapshots, decks)
}

func (q *recordingQueue) EnqueueResults(results []models.StudyResult) {
	q.resultSnapshots = append(q.resultSnapshots, results)
}

type stubStore struct {
	decks    []models.Deck
	results  []models.StudyResult
	loadErr  error
	saveErr  error
	saveTrip int
}

func (s *stubStore) LoadDecks(ctx context.Context) ([]models.Deck, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.decks, nil
}

func (s *stubStore) SaveDecks(ctx context.Context, decks []models.Deck) error {
	s.saveTrip++
	return s.saveErr
}

func (s *stubStore) LoadResults(ctx context.Context) ([]models.StudyResult, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.results, nil
}

func (s *stubStore) SaveResults(ctx context.Context, results []models.StudyResult) error {
	return s.saveErr
}

func newReadyRepo(t *testing.T) (*DeckRepo, *recordingQueue) {
	t.Helper()
	queue := &recordingQueue{}
	repo := NewDeckRepo(&stubStore{}, queue)
	repo.Load(context.Background())
	return repo, queue
}

func deck(id, title string, cards ...models.Flashcard) models.Deck {
	return models.Deck{
		ID:          id,
		Title:       title,
		Category:    "custom",
		Subcategory: "custom",
		Cards:       cards,
		CreatedAt:   time.Now(),
		Color:       "#10B981",
	}
}

func TestAddDeckMostRecentFirst(t *testing.T) {
	repo, queue := newReadyRepo(t)

	repo.AddDeck(deck("d1", "First"))
	repo.AddDeck(deck("d2", "Second"))
	repo.AddDeck(deck("d3", "Third"))

	decks := repo.Decks()
	if len(decks) != 3 {
		t.Fatalf("Expected 3 decks, got %d", len(decks))
	}
	for i, want := range []string{"d3", "d2", "d1"} {
		if decks[i].ID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, decks[i].ID)
		}
	}

	if len(queue.deckSnapshots) != 3 {
		t.Errorf("Expected a persistence snapshot per mutation, got %d", len(queue.deckSnapshots))
	}
	// Snapshots must be captured at call time, in increasing recency order.
	if len(queue.deckSnapshots[0]) != 1 || len(queue.deckSnapshots[2]) != 3 {
		t.Errorf("Snapshots not captured at call time: sizes %d, %d",
			len(queue.deckSnapshots[0]), len(queue.deckSnapshots[2]))
	}
}

func TestUpdateCardMastersSingleCard(t *testing.T) {
	repo, _ := newReadyRepo(t)
	repo.AddDeck(deck("d1", "Math",
		models.Flashcard{ID: "c1", Front: "2+2", Back: "4"},
		models.Flashcard{ID: "c2", Front: "3+3", Back: "6"},
		models.Flashcard{ID: "c3", Front: "4+4", Back: "8"},
	))

	mastered := true
	repo.UpdateCard("d1", "c2", models.CardUpdate{Mastered: &mastered})

	got := repo.GetDeck("d1")
	if got == nil {
		t.Fatal("GetDeck returned nil")
	}
	if len(got.Cards) != 3 {
		t.Fatalf("Expected 3 cards, got %d", len(got.Cards))
	}
	for i, want := range []string{"c1", "c2", "c3"} {
		if got.Cards[i].ID != want {
			t.Errorf("Card order changed: position %d is %s", i, got.Cards[i].ID)
		}
	}
	if got.Cards[0].Mastered || !got.Cards[1].Mastered || got.Cards[2].Mastered {
		t.Errorf("Only c2 should be mastered: %+v", got.Cards)
	}
	if got.Cards[1].Front != "3+3" || got.Cards[1].Back != "6" {
		t.Errorf("Other card fields must be untouched: %+v", got.Cards[1])
	}
}

func TestUpdateCardUnknownIDsAreNoOps(t *testing.T) {
	repo, queue := newReadyRepo(t)
	repo.AddDeck(deck("d1", "Math", models.Flashcard{ID: "c1", Front: "2+2", Back: "4"}))

	before := repo.GetDeck("d1")
	mastered := true
	repo.UpdateCard("nope", "c1", models.CardUpdate{Mastered: &mastered})
	repo.UpdateCard("d1", "nope", models.CardUpdate{Mastered: &mastered})

	after := repo.GetDeck("d1")
	if after.Cards[0].Mastered != before.Cards[0].Mastered {
		t.Error("No-op update changed card state")
	}
	// No-op merges still persist current state.
	if len(queue.deckSnapshots) != 3 {
		t.Errorf("Expected 3 snapshots (add + 2 no-ops), got %d", len(queue.deckSnapshots))
	}
}

func TestUpdateDeckShallowMerge(t *testing.T) {
	repo, _ := newReadyRepo(t)
	repo.AddDeck(deck("d1", "Old Title",
		models.Flashcard{ID: "c1", Front: "q", Back: "a"},
	))

	studied := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	sessions := 4
	repo.UpdateDeck("d1", models.DeckUpdate{
		LastStudied:        &studied,
		TotalStudySessions: &sessions,
	})

	got := repo.GetDeck("d1")
	if got.Title != "Old Title" {
		t.Errorf("Unspecified field changed: title is %q", got.Title)
	}
	if got.LastStudied == nil || !got.LastStudied.Equal(studied) {
		t.Errorf("lastStudied not merged: %v", got.LastStudied)
	}
	if got.TotalStudySessions != 4 {
		t.Errorf("totalStudySessions not merged: %d", got.TotalStudySessions)
	}
	if len(got.Cards) != 1 || got.Cards[0].ID != "c1" {
		t.Errorf("Metadata update must not touch cards: %+v", got.Cards)
	}
}

func TestDeleteDeck(t *testing.T) {
	repo, _ := newReadyRepo(t)
	repo.AddDeck(deck("d1", "Keep"))
	repo.AddDeck(deck("d2", "Remove"))

	repo.DeleteDeck("d2")

	if repo.GetDeck("d2") != nil {
		t.Error("Deleted deck still retrievable")
	}
	if repo.GetDeck("d1") == nil {
		t.Error("Unrelated deck was removed")
	}

	// Deleting an unknown id must not alter the rest of the collection.
	repo.DeleteDeck("ghost")
	if len(repo.Decks()) != 1 {
		t.Errorf("Idempotent delete changed collection size: %d", len(repo.Decks()))
	}
}

func TestStatsAggregates(t *testing.T) {
	repo, _ := newReadyRepo(t)
	repo.AddDeck(deck("d1", "A"))

	repo.AddStudyResult(models.StudyResult{DeckID: "d1", TotalCards: 10, MasteredCards: 7, Date: time.Now()})
	repo.AddStudyResult(models.StudyResult{DeckID: "d1", TotalCards: 10, MasteredCards: 3, Date: time.Now()})
	repo.AddStudyResult(models.StudyResult{DeckID: "gone", TotalCards: 5, MasteredCards: 5, Date: time.Now()})

	stats := repo.Stats()
	if stats.TotalDecks != 1 {
		t.Errorf("TotalDecks = %d, want 1", stats.TotalDecks)
	}
	if stats.TotalSessions != 3 {
		t.Errorf("TotalSessions = %d, want 3", stats.TotalSessions)
	}
	if stats.TotalCardsStudied != 25 {
		t.Errorf("TotalCardsStudied = %d, want 25", stats.TotalCardsStudied)
	}
	if stats.TotalMastered != 15 {
		t.Errorf("TotalMastered = %d, want 15", stats.TotalMastered)
	}

	results := repo.StudyResults()
	if results[0].MasteredCards != 5 {
		t.Errorf("Results must be most recent first: %+v", results[0])
	}
}

func TestLoadFailureStillReachesReady(t *testing.T) {
	queue := &recordingQueue{}
	repo := NewDeckRepo(&stubStore{loadErr: &storage.StorageError{Op: "load", Key: storage.DecksKey, Err: errors.New("disk gone")}}, queue)

	if !repo.IsLoading() {
		t.Error("Repo should start in loading state")
	}

	repo.Load(context.Background())

	if repo.IsLoading() {
		t.Error("Repo must reach ready even when the store is unreadable")
	}
	if len(repo.Decks()) != 0 {
		t.Errorf("Expected empty collections after failed load, got %d decks", len(repo.Decks()))
	}

	// Still fully usable in memory afterwards.
	repo.AddDeck(deck("d1", "Works"))
	if repo.GetDeck("d1") == nil {
		t.Error("Repo unusable after degraded load")
	}
}

func TestReadsBeforeReadyReturnEmpty(t *testing.T) {
	repo := NewDeckRepo(&stubStore{decks: []models.Deck{deck("d1", "Persisted")}}, &recordingQueue{})

	if len(repo.Decks()) != 0 {
		t.Error("Reads before Load must return empty")
	}
	if repo.GetDeck("d1") != nil {
		t.Error("GetDeck before Load must return nil")
	}

	repo.Load(context.Background())
	if repo.GetDeck("d1") == nil {
		t.Error("Persisted deck missing after Load")
	}
}

func TestMutationsComposeBackToBack(t *testing.T) {
	repo, _ := newReadyRepo(t)
	repo.AddDeck(deck("d1", "A", models.Flashcard{ID: "c1", Front: "q", Back: "a"}))

	// Second mutation must see the first's in-memory effect regardless of
	// persistence state.
	mastered := true
	repo.UpdateCard("d1", "c1", models.CardUpdate{Mastered: &mastered})
	sessions := 1
	now := time.Now()
	repo.UpdateDeck("d1", models.DeckUpdate{TotalStudySessions: &sessions, LastStudied: &now})

	got := repo.GetDeck("d1")
	if !got.Cards[0].Mastered {
		t.Error("Second mutation clobbered the first")
	}
	if got.TotalStudySessions != 1 {
		t.Error("Deck metadata update lost")
	}
}

// stallingQueue parks inside its first enqueue call, widening the window in
// which a concurrent mutation could hand over its snapshot out of order.
type stallingQueue struct {
	mu        sync.Mutex
	stalled   bool
	snapshots [][]models.Deck
}

func (q *stallingQueue) EnqueueDecks(decks []models.Deck) {
	q.mu.Lock()
	first := !q.stalled
	q.stalled = true
	q.mu.Unlock()

	if first {
		time.Sleep(50 * time.Millisecond)
	}

	q.mu.Lock()
	q.snapshots = append(q.snapshots, decks)
	q.mu.Unlock()
}

func (q *stallingQueue) EnqueueResults(results []models.StudyResult) {}

func TestConcurrentMutationsEnqueueInRecencyOrder(t *testing.T) {
	queue := &stallingQueue{}
	repo := NewDeckRepo(&stubStore{}, queue)
	repo.Load(context.Background())

	done := make(chan struct{})
	go func() {
		repo.AddDeck(deck("d1", "First"))
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	repo.AddDeck(deck("d2", "Second"))
	<-done

	if len(queue.snapshots) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(queue.snapshots))
	}
	// A stale snapshot issued after a newer one would leave the store holding
	// old state until the next mutation.
	if len(queue.snapshots[0]) != 1 || len(queue.snapshots[1]) != 2 {
		t.Fatalf("Snapshots issued out of recency order: sizes %d then %d",
			len(queue.snapshots[0]), len(queue.snapshots[1]))
	}
	last := queue.snapshots[1]
	if last[0].ID != "d2" || last[1].ID != "d1" {
		t.Errorf("Last issued snapshot does not match final in-memory state: %s, %s",
			last[0].ID, last[1].ID)
	}
}
