package events

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when deleting an unknown event
var ErrNotFound = errors.New("event not found")

// Event is a lab calendar entry
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists calendar events
type Store interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, e Event) error
	Delete(ctx context.Context, id string) error
}

func sortByStart(list []Event) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Start.Equal(list[j].Start) {
			return list[i].ID < list[j].ID
		}
		return list[i].Start.Before(list[j].Start)
	})
}

// MemoryStore keeps events for the lifetime of the process. Not shared
// between instances.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]Event
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]Event)}
}

// List returns all events ordered by start
func (s *MemoryStore) List(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		list = append(list, e)
	}
	sortByStart(list)
	return list, nil
}

// Create stores e, replacing any event with the same ID
func (s *MemoryStore) Create(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	return nil
}

// Delete removes an event
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}
