package session

import (
	"context"
	"sync"
)

// MemoryStore 进程内快照存储，用于测试与无 Redis 的本地运行
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string][]byte
}

// NewMemoryStore 创建进程内快照存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

// Save 保存快照
func (s *MemoryStore) Save(ctx context.Context, userID string, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(snapshot))
	copy(cp, snapshot)
	s.snapshots[userID] = cp
	return nil
}

// Load 读取快照
func (s *MemoryStore) Load(ctx context.Context, userID string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[userID]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(snap))
	copy(cp, snap)
	return cp, true, nil
}

// Delete 删除快照
func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, userID)
	return nil
}
