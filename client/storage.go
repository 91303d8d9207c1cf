package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// SessionStorage keeps the session across client restarts.
// Load returns (nil, nil) when nothing is stored.
type SessionStorage interface {
	Load() (*Session, error)
	Save(sess *Session) error
	Clear() error
}

type memoryStorage struct {
	mu   sync.Mutex
	sess *Session
}

func NewMemoryStorage() SessionStorage {
	return &memoryStorage{}
}

func (s *memoryStorage) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return nil, nil
	}
	sess := *s.sess
	return &sess, nil
}

func (s *memoryStorage) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sess = &cp
	return nil
}

func (s *memoryStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}

// fileStorage holds the session as one JSON document, readable by the owner only.
type fileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(path string) SessionStorage {
	return &fileStorage{path: path}
}

func (s *fileStorage) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading session file")
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(err, "decoding session file")
	}
	if sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

func (s *fileStorage) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating session dir")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "writing session file")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replacing session file")
}

func (s *fileStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session file")
	}
	return nil
}
