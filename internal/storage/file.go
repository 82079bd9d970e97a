package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"deckiq-backend/internal/models"
)

// FileStore keeps each collection in one JSON file under a data directory.
// Writes go to a temp file first and are renamed into place, so a crash
// mid-write never leaves a truncated collection behind.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "load", Key: dir, Err: err}
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) LoadDecks(ctx context.Context) ([]models.Deck, error) {
	var decks []models.Deck
	if err := s.load(DecksKey, &decks); err != nil {
		return nil, err
	}
	if decks == nil {
		decks = []models.Deck{}
	}
	return decks, nil
}

func (s *FileStore) SaveDecks(ctx context.Context, decks []models.Deck) error {
	return s.save(DecksKey, decks)
}

func (s *FileStore) LoadResults(ctx context.Context) ([]models.StudyResult, error) {
	var results []models.StudyResult
	if err := s.load(ResultsKey, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.StudyResult{}
	}
	return results, nil
}

func (s *FileStore) SaveResults(ctx context.Context, results []models.StudyResult) error {
	return s.save(ResultsKey, results)
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) load(key string, out interface{}) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &StorageError{Op: "load", Key: key, Err: err}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &StorageError{Op: "load", Key: key, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	return nil
}

func (s *FileStore) save(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		os.Remove(tmp)
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	return nil
}
