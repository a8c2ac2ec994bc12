package store

import "sync"

// MemoryStore is the ephemeral tier. It lives and dies with the process,
// the native analogue of session-scoped browser storage.
type MemoryStore struct {
	mu     sync.Mutex
	record *Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == nil {
		return nil, NoSessionErr
	}
	record := *m.record
	return &record, nil
}

func (m *MemoryStore) Save(record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *record
	m.record = &copied
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = nil
	return nil
}
