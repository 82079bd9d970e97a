package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckiq-backend/internal/models"
)

// PostgresStore keeps each collection as one JSONB row keyed by its logical
// name. An UPSERT replaces the whole payload, matching the overwrite contract.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS storage_blobs (
			key TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return nil, &StorageError{Op: "load", Key: "storage_blobs", Err: err}
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) LoadDecks(ctx context.Context) ([]models.Deck, error) {
	var decks []models.Deck
	if err := s.load(ctx, DecksKey, &decks); err != nil {
		return nil, err
	}
	if decks == nil {
		decks = []models.Deck{}
	}
	return decks, nil
}

func (s *PostgresStore) SaveDecks(ctx context.Context, decks []models.Deck) error {
	return s.save(ctx, DecksKey, decks)
}

func (s *PostgresStore) LoadResults(ctx context.Context) ([]models.StudyResult, error) {
	var results []models.StudyResult
	if err := s.load(ctx, ResultsKey, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.StudyResult{}
	}
	return results, nil
}

func (s *PostgresStore) SaveResults(ctx context.Context, results []models.StudyResult) error {
	return s.save(ctx, ResultsKey, results)
}

func (s *PostgresStore) load(ctx context.Context, key string, out interface{}) error {
	var payload []byte
	err := s.pool.QueryRow(ctx, "SELECT payload FROM storage_blobs WHERE key = $1", key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return &StorageError{Op: "load", Key: key, Err: err}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return &StorageError{Op: "load", Key: key, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	return nil
}

func (s *PostgresStore) save(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO storage_blobs (key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, key, payload)
	if err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	return nil
}
