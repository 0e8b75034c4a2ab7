package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKey is the hash holding every event, keyed by event ID
const RedisKey = "datalab:calendar:events"

// RedisStore keeps events in a single Redis hash
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore creates a store on client. An empty key uses RedisKey.
func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = RedisKey
	}
	return &RedisStore{client: client, key: key}
}

// List returns all events ordered by start
func (s *RedisStore) List(ctx context.Context) ([]Event, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	list := make([]Event, 0, len(raw))
	for id, value := range raw {
		var e Event
		if err := json.Unmarshal([]byte(value), &e); err != nil {
			return nil, fmt.Errorf("failed to decode event %s: %w", id, err)
		}
		list = append(list, e)
	}
	sortByStart(list)
	return list, nil
}

// Create stores e, replacing any event with the same ID
func (s *RedisStore) Create(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, e.ID, value).Err(); err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// Delete removes an event
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.HDel(ctx, s.key, id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
