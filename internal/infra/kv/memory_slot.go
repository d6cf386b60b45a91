package kv

import (
	"context"
	"sync"

	repo "storefront/internal/repository"
)

// REDIS_URLが無い時とテスト用。プロセス内だけで保持する。
type MemorySlotStorage struct {
	mu    sync.RWMutex
	slots map[string]string
}

var _ repo.SlotStorage = (*MemorySlotStorage)(nil)

func NewMemorySlotStorage() *MemorySlotStorage {
	return &MemorySlotStorage{slots: make(map[string]string)}
}

func (s *MemorySlotStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[key]
	return v, ok, nil
}

func (s *MemorySlotStorage) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return nil
}

func (s *MemorySlotStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}
