package store

import (
	"context"
	"sync"
)

// MemoryStore keeps mappings in process memory. Nothing survives a restart.
type MemoryStore struct {
	threads map[string]string
	mutex   sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, channelID string) (string, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	threadID, ok := m.threads[channelID]
	return threadID, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, channelID, threadID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.threads[channelID] = threadID
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, channelID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.threads, channelID)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
