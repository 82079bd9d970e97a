package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"deckiq-backend/internal/models"
)

// RedisStore keeps each collection as one serialized value under its logical
// key. SET replaces the whole collection, matching the overwrite contract.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) LoadDecks(ctx context.Context) ([]models.Deck, error) {
	var decks []models.Deck
	if err := s.load(ctx, DecksKey, &decks); err != nil {
		return nil, err
	}
	if decks == nil {
		decks = []models.Deck{}
	}
	return decks, nil
}

func (s *RedisStore) SaveDecks(ctx context.Context, decks []models.Deck) error {
	return s.save(ctx, DecksKey, decks)
}

func (s *RedisStore) LoadResults(ctx context.Context) ([]models.StudyResult, error) {
	var results []models.StudyResult
	if err := s.load(ctx, ResultsKey, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.StudyResult{}
	}
	return results, nil
}

func (s *RedisStore) SaveResults(ctx context.Context, results []models.StudyResult) error {
	return s.save(ctx, ResultsKey, results)
}

func (s *RedisStore) load(ctx context.Context, key string, out interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return &StorageError{Op: "load", Key: key, Err: err}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &StorageError{Op: "load", Key: key, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	return nil
}
