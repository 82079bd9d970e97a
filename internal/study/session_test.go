package study

import (
	"testing"
	"time"

	"deckiq-backend/internal/models"
)

// fakeRepo implements DeckStore with just enough behavior to observe the
// engine's side effects.
type fakeRepo struct {
	deck        *models.Deck
	cardUpdates []cardUpdate
	deckUpdates []models.DeckUpdate
	results     []models.StudyResult
}

type cardUpdate struct {
	deckID   string
	cardID   string
	mastered bool
}

func (f *fakeRepo) GetDeck(deckID string) *models.Deck {
	if f.deck != nil && f.deck.ID == deckID {
		d := *f.deck
		return &d
	}
	return nil
}

func (f *fakeRepo) UpdateCard(deckID, cardID string, u models.CardUpdate) {
	if u.Mastered != nil {
		f.cardUpdates = append(f.cardUpdates, cardUpdate{deckID, cardID, *u.Mastered})
		if f.deck != nil && f.deck.ID == deckID {
			for i := range f.deck.Cards {
				if f.deck.Cards[i].ID == cardID {
					f.deck.Cards[i].Mastered = *u.Mastered
				}
			}
		}
	}
}

func (f *fakeRepo) UpdateDeck(deckID string, u models.DeckUpdate) {
	f.deckUpdates = append(f.deckUpdates, u)
	if f.deck != nil && f.deck.ID == deckID {
		if u.LastStudied != nil {
			t := *u.LastStudied
			f.deck.LastStudied = &t
		}
		if u.TotalStudySessions != nil {
			f.deck.TotalStudySessions = *u.TotalStudySessions
		}
	}
}

func (f *fakeRepo) AddStudyResult(result models.StudyResult) {
	f.results = append(f.results, result)
}

func repoWithCards(n int) *fakeRepo {
	cards := make([]models.Flashcard, n)
	for i := range cards {
		cards[i] = models.Flashcard{
			ID:    string(rune('a' + i)),
			Front: "front",
			Back:  "back",
		}
	}
	return &fakeRepo{deck: &models.Deck{ID: "d1", Title: "Deck", Cards: cards}}
}

func TestNewSessionRejectsUnknownDeck(t *testing.T) {
	repo := &fakeRepo{}
	if _, err := NewSession(repo, "missing"); err != ErrDeckNotFound {
		t.Errorf("Expected ErrDeckNotFound, got %v", err)
	}
}

func TestNewSessionRejectsEmptyDeck(t *testing.T) {
	repo := &fakeRepo{deck: &models.Deck{ID: "d1", Cards: []models.Flashcard{}}}
	if _, err := NewSession(repo, "d1"); err != ErrNoCards {
		t.Errorf("Expected ErrNoCards, got %v", err)
	}
}

func TestFlipTwiceReturnsToOriginal(t *testing.T) {
	s, err := NewSession(repoWithCards(2), "d1")
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	if s.IsFlipped() {
		t.Error("Session must start face up")
	}
	s.Flip()
	if !s.IsFlipped() {
		t.Error("Flip did not flip")
	}
	s.Flip()
	if s.IsFlipped() {
		t.Error("Second flip did not restore")
	}
	if s.CurrentIndex() != 0 {
		t.Error("Flip must not change the index")
	}
}

func TestMarkMasteredAllCards(t *testing.T) {
	const n = 5
	repo := repoWithCards(n)
	s, _ := NewSession(repo, "d1")

	for i := 0; i < n; i++ {
		s.MarkMastered()
	}

	if !s.Complete() {
		t.Fatal("Session should be complete")
	}
	if s.MasteredThisSession() != n {
		t.Errorf("MasteredThisSession = %d, want %d", s.MasteredThisSession(), n)
	}
	if len(repo.results) != 1 {
		t.Fatalf("Expected exactly one StudyResult, got %d", len(repo.results))
	}
	if repo.results[0].MasteredCards != n || repo.results[0].TotalCards != n {
		t.Errorf("StudyResult = %+v, want %d/%d", repo.results[0], n, n)
	}
	if repo.deck.TotalStudySessions != 1 {
		t.Errorf("totalStudySessions = %d, want 1", repo.deck.TotalStudySessions)
	}
	if repo.deck.LastStudied == nil {
		t.Error("lastStudied not set on completion")
	}
}

func TestMarkNotMasteredAllCards(t *testing.T) {
	const n = 4
	repo := repoWithCards(n)
	s, _ := NewSession(repo, "d1")

	for i := 0; i < n; i++ {
		s.MarkNotMastered()
	}

	if !s.Complete() {
		t.Fatal("Session should be complete")
	}
	if len(repo.results) != 1 {
		t.Fatalf("Expected exactly one StudyResult, got %d", len(repo.results))
	}
	if repo.results[0].MasteredCards != 0 {
		t.Errorf("masteredCards = %d, want 0", repo.results[0].MasteredCards)
	}
}

func TestGoBackAtFirstCardIsNoOp(t *testing.T) {
	s, _ := NewSession(repoWithCards(3), "d1")
	s.Flip()

	s.GoBack()

	if s.CurrentIndex() != 0 {
		t.Errorf("Index changed: %d", s.CurrentIndex())
	}
	if !s.IsFlipped() {
		t.Error("Flip state changed on no-op goBack")
	}
}

func TestGoBackResetsFlip(t *testing.T) {
	s, _ := NewSession(repoWithCards(3), "d1")
	s.GoForward()
	s.Flip()

	s.GoBack()

	if s.CurrentIndex() != 0 {
		t.Errorf("Index = %d, want 0", s.CurrentIndex())
	}
	if s.IsFlipped() {
		t.Error("goBack must reset flip state")
	}
}

func TestGoForwardStopsAtLastCard(t *testing.T) {
	repo := repoWithCards(2)
	s, _ := NewSession(repo, "d1")

	s.GoForward()
	s.GoForward() // at last index: no-op, never finishes
	s.GoForward()

	if s.CurrentIndex() != 1 {
		t.Errorf("Index = %d, want 1", s.CurrentIndex())
	}
	if s.Complete() {
		t.Error("goForward must never finish the session")
	}
	if len(repo.results) != 0 {
		t.Errorf("No StudyResult expected, got %d", len(repo.results))
	}
	if len(repo.cardUpdates) != 0 {
		t.Error("goForward must not touch mastery state")
	}
}

func TestProgress(t *testing.T) {
	s, _ := NewSession(repoWithCards(4), "d1")

	if got := s.Progress(); got != 0.25 {
		t.Errorf("Progress = %v, want 0.25", got)
	}
	s.GoForward()
	if got := s.Progress(); got != 0.5 {
		t.Errorf("Progress = %v, want 0.5", got)
	}
}

func TestRestartClearsSessionState(t *testing.T) {
	const n = 2
	repo := repoWithCards(n)
	s, _ := NewSession(repo, "d1")

	for i := 0; i < n; i++ {
		s.MarkMastered()
	}
	if !s.Complete() {
		t.Fatal("Session should be complete")
	}

	s.Restart()

	if s.Complete() || s.CurrentIndex() != 0 || s.IsFlipped() || s.MasteredThisSession() != 0 {
		t.Errorf("Restart did not reset state: %+v", s.Snapshot())
	}
	if len(repo.results) != 1 {
		t.Errorf("Restart must not create a StudyResult: got %d", len(repo.results))
	}

	// Completing the second pass records a second result and bumps the counter
	// again.
	for i := 0; i < n; i++ {
		s.MarkNotMastered()
	}
	if len(repo.results) != 2 {
		t.Errorf("Expected a second StudyResult, got %d", len(repo.results))
	}
	if repo.results[1].MasteredCards != 0 {
		t.Errorf("Second pass masteredCards = %d, want 0", repo.results[1].MasteredCards)
	}
	if repo.deck.TotalStudySessions != 2 {
		t.Errorf("totalStudySessions = %d, want 2", repo.deck.TotalStudySessions)
	}
}

func TestRestartMidPassIsNoOp(t *testing.T) {
	repo := repoWithCards(3)
	s, _ := NewSession(repo, "d1")

	s.MarkMastered()
	s.Flip()

	s.Restart()

	if s.CurrentIndex() != 1 || !s.IsFlipped() || s.MasteredThisSession() != 1 {
		t.Errorf("Restart before completion must not touch state: %+v", s.Snapshot())
	}
}

func TestCompletionSideEffectsRunOnce(t *testing.T) {
	repo := repoWithCards(1)
	s, _ := NewSession(repo, "d1")

	s.MarkMastered()
	// Inputs after completion are ignored.
	s.MarkMastered()
	s.MarkNotMastered()
	s.Flip()
	s.GoForward()

	if len(repo.results) != 1 {
		t.Errorf("Completion side effects ran %d times", len(repo.results))
	}
	if repo.deck.TotalStudySessions != 1 {
		t.Errorf("totalStudySessions = %d, want 1", repo.deck.TotalStudySessions)
	}
}

func TestMasteredSetIsSticky(t *testing.T) {
	repo := repoWithCards(2)
	s, _ := NewSession(repo, "d1")

	s.MarkMastered()    // card a mastered, index -> 1
	s.GoBack()          // revisit card a
	s.MarkNotMastered() // persists mastered=false but the set keeps "a"
	s.MarkNotMastered() // card b -> complete

	if !s.Complete() {
		t.Fatal("Session should be complete")
	}
	if repo.results[0].MasteredCards != 1 {
		t.Errorf("masteredCards = %d, want 1 (Got It once is sticky for the summary)", repo.results[0].MasteredCards)
	}
	// The persisted flag does follow the latest mark.
	if repo.deck.Cards[0].Mastered {
		t.Error("Persisted mastered flag should reflect the latest mark (false)")
	}
}

func TestStudyScenario(t *testing.T) {
	repo := &fakeRepo{deck: &models.Deck{
		ID: "d1",
		Cards: []models.Flashcard{
			{ID: "c1", Front: "2+2", Back: "4", Mastered: false},
			{ID: "c2", Front: "3+3", Back: "6", Mastered: false},
		},
	}}
	s, err := NewSession(repo, "d1")
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	s.Flip()
	if !s.IsFlipped() {
		t.Fatal("isFlipped should be true after flip")
	}

	s.MarkMastered()
	if !repo.deck.Cards[0].Mastered {
		t.Error("c1 should be persisted mastered")
	}
	if s.MasteredThisSession() != 1 {
		t.Errorf("mastered set size = %d, want 1", s.MasteredThisSession())
	}
	if s.CurrentIndex() != 1 {
		t.Errorf("currentIndex = %d, want 1", s.CurrentIndex())
	}
	if s.IsFlipped() {
		t.Error("isFlipped should reset after advancing")
	}

	s.MarkNotMastered()
	if repo.deck.Cards[1].Mastered {
		t.Error("c2 should be persisted not mastered")
	}
	if !s.Complete() {
		t.Error("sessionComplete should be true")
	}
	if len(repo.results) != 1 {
		t.Fatalf("Expected one StudyResult, got %d", len(repo.results))
	}
	if repo.results[0].TotalCards != 2 || repo.results[0].MasteredCards != 1 {
		t.Errorf("StudyResult = %+v, want totalCards:2 masteredCards:1", repo.results[0])
	}
}

func TestIncrementalPersistenceSurvivesAbandonment(t *testing.T) {
	repo := repoWithCards(3)
	s, _ := NewSession(repo, "d1")

	s.MarkMastered()
	s.MarkNotMastered()
	// Abandoned here: no completion, no rollback.

	if len(repo.cardUpdates) != 2 {
		t.Fatalf("Expected 2 persisted card updates, got %d", len(repo.cardUpdates))
	}
	if !repo.cardUpdates[0].mastered || repo.cardUpdates[1].mastered {
		t.Errorf("Card updates wrong: %+v", repo.cardUpdates)
	}
	if len(repo.results) != 0 {
		t.Errorf("Abandonment must not record a StudyResult, got %d", len(repo.results))
	}
}

func TestFinishUsesCurrentTime(t *testing.T) {
	repo := repoWithCards(1)
	s, _ := NewSession(repo, "d1")
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.MarkMastered()

	if !repo.results[0].Date.Equal(fixed) {
		t.Errorf("StudyResult date = %v, want %v", repo.results[0].Date, fixed)
	}
	if repo.deck.LastStudied == nil || !repo.deck.LastStudied.Equal(fixed) {
		t.Errorf("lastStudied = %v, want %v", repo.deck.LastStudied, fixed)
	}
}
