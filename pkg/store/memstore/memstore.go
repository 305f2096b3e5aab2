// Package memstore is an in-memory store.Store implementation used in tests
// where a real Postgres instance isn't available, favoring plain fakes over
// container-backed databases.
package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/m00npl/guardant/pkg/store"
)

type rowKey struct {
	nestID   string
	dataType store.DataType
	key      string
}

// Store is a goroutine-safe, in-process implementation of store.Store.
type Store struct {
	mu   sync.RWMutex
	rows map[rowKey]json.RawMessage
}

// New creates an empty Store.
func New() *Store {
	return &Store{rows: make(map[rowKey]json.RawMessage)}
}

func (s *Store) Put(_ context.Context, nestID string, dataType store.DataType, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rowKey{nestID, dataType, key}] = raw
	return nil
}

func (s *Store) Get(_ context.Context, nestID string, dataType store.DataType, key string, dst any) error {
	s.mu.RLock()
	raw, ok := s.rows[rowKey{nestID, dataType, key}]
	s.mu.RUnlock()
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(raw, dst)
}

func (s *Store) Delete(_ context.Context, nestID string, dataType store.DataType, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, rowKey{nestID, dataType, key})
	return nil
}

func (s *Store) ListByType(_ context.Context, nestID string, dataType store.DataType, dst any) error {
	s.mu.RLock()
	var values []json.RawMessage
	for k, v := range s.rows {
		if k.nestID == nestID && k.dataType == dataType {
			values = append(values, v)
		}
	}
	s.mu.RUnlock()

	assembled, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(assembled, dst)
}
