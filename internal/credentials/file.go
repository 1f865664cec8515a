package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/doronEilam/blog/pkg/logger"
)

// FileStore persists credentials as a small JSON key-value file under the
// user config dir, the desktop analog of origin-scoped browser storage.
// The file is re-read on every operation so concurrent processes observe
// each other's writes; updates go through a temp file + rename.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// DefaultFilePath returns the standard credentials file location.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "blog", "credentials.json"), nil
}

// NewFileStore creates a file-backed store at path. An empty path selects
// DefaultFilePath.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		if path, err = DefaultFilePath(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create credentials dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) read() map[string]string {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("credentials: read %s: %v", s.path, err)
		}
		return map[string]string{}
	}
	values := map[string]string{}
	if err := json.Unmarshal(b, &values); err != nil {
		logger.Warnf("credentials: corrupt store %s, treating as empty: %v", s.path, err)
		return map[string]string{}
	}
	return values
}

func (s *FileStore) write(values map[string]string) error {
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Save(pair Pair) error {
	if pair.Access == "" || pair.Refresh == "" {
		logger.Warnf("credentials: refusing to save partial pair (access=%t refresh=%t)", pair.Access != "", pair.Refresh != "")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.read()
	values[accessKey] = pair.Access
	values[refreshKey] = pair.Refresh
	return s.write(values)
}

func (s *FileStore) Load() (Pair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.read()
	access, refresh := values[accessKey], values[refreshKey]
	if access == "" || refresh == "" {
		return Pair{}, false
	}
	return Pair{Access: access, Refresh: refresh}, true
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.read()
	delete(values, accessKey)
	delete(values, refreshKey)
	return s.write(values)
}

func (s *FileStore) SaveIdentity(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.read()
	values[identityKey] = string(data)
	return s.write(values)
}

func (s *FileStore) LoadIdentity() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.read()[identityKey]
	if v == "" {
		return nil, false
	}
	return []byte(v), true
}

func (s *FileStore) ClearIdentity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.read()
	delete(values, identityKey)
	return s.write(values)
}
