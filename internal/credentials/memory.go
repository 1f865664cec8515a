package credentials

import (
	"sync"

	"github.com/doronEilam/blog/pkg/logger"
)

// MemoryStore keeps credentials in process memory. Used in tests and as the
// fallback backend; nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Save(pair Pair) error {
	if pair.Access == "" || pair.Refresh == "" {
		logger.Warnf("credentials: refusing to save partial pair (access=%t refresh=%t)", pair.Access != "", pair.Refresh != "")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[accessKey] = pair.Access
	s.values[refreshKey] = pair.Refresh
	return nil
}

func (s *MemoryStore) Load() (Pair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	access, refresh := s.values[accessKey], s.values[refreshKey]
	if access == "" || refresh == "" {
		return Pair{}, false
	}
	return Pair{Access: access, Refresh: refresh}, true
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, accessKey)
	delete(s.values, refreshKey)
	return nil
}

func (s *MemoryStore) SaveIdentity(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[identityKey] = string(data)
	return nil
}

func (s *MemoryStore) LoadIdentity() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[identityKey]
	if !ok || v == "" {
		return nil, false
	}
	return []byte(v), true
}

func (s *MemoryStore) ClearIdentity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, identityKey)
	return nil
}
