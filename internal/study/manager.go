package study

import (
	"sync"

	"github.com/google/uuid"
)

// Manager holds the live sessions for the HTTP surface, keyed by a generated
// session id. Exiting a session just drops it; mastery updates already
// persisted stand, and nothing else is rolled back.
type Manager struct {
	repo DeckStore

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(repo DeckStore) *Manager {
	return &Manager{
		repo:     repo,
		sessions: make(map[string]*Session),
	}
}

// Start creates a session over the deck and registers it.
func (m *Manager) Start(deckID string) (string, *Session, error) {
	session, err := NewSession(m.repo, deckID)
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	return id, session, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// End abandons a session. Idempotent.
func (m *Manager) End(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
