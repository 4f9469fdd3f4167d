package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/habiliai/oursgpt/errors"
)

// Slots of the persisted state. Each holds one JSON value.
const (
	SlotTheme          = "theme"
	SlotThreads        = "threads"
	SlotActiveThreadID = "activeThreadId"
	SlotImageHistory   = "image_history"
)

type (
	// Store persists named slots. Load reports found=false for a slot that
	// was never saved or has been deleted. There is no schema versioning.
	Store interface {
		Load(ctx context.Context, slot string, out any) (found bool, err error)
		Save(ctx context.Context, slot string, value any) error
		Delete(ctx context.Context, slot string) error
		Clear(ctx context.Context) error
	}

	// InMemoryStore keeps slots as encoded JSON so values round-trip the
	// same way they do through the database.
	InMemoryStore struct {
		mu    sync.RWMutex
		slots map[string][]byte
	}
)

var (
	_ Store = (*InMemoryStore)(nil)
)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		slots: make(map[string][]byte),
	}
}

func (s *InMemoryStore) Load(_ context.Context, slot string, out any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.slots[slot]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, errors.Wrapf(err, "failed to decode slot %s", slot)
	}
	return true, nil
}

func (s *InMemoryStore) Save(_ context.Context, slot string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode slot %s", slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = data
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[string][]byte)
	return nil
}

// Slots lists the slots currently held, for diagnostics and tests.
func (s *InMemoryStore) Slots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.slots))
	for name := range s.slots {
		names = append(names, name)
	}
	return names
}
