// Package session holds the per-workflow client state: the job context handed
// across screens and the capture session controllers that keep local media
// collections consistent with the server.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Context is the active job handoff cached between screens so a reload within
// the same workflow does not require re-resolving the job by code. It is
// passed into each workflow controller at construction, never read ambiently.
type Context struct {
	JobID       int64  `json:"job_id"`
	JobCode     string `json:"job_code"`
	Description string `json:"description"`
}

// ContextStore persists the job context under a fixed key.
type ContextStore interface {
	Save(c Context) error
	// Load returns the stored context and whether one exists.
	Load() (Context, bool, error)
	Clear() error
}

// MemoryContextStore keeps the context in memory, scoped to the process.
type MemoryContextStore struct {
	mu  sync.Mutex
	ctx *Context
}

// NewMemoryContextStore returns an empty in-memory store.
func NewMemoryContextStore() *MemoryContextStore {
	return &MemoryContextStore{}
}

func (s *MemoryContextStore) Save(c Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = &c
	return nil
}

func (s *MemoryContextStore) Load() (Context, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return Context{}, false, nil
	}
	return *s.ctx, true, nil
}

func (s *MemoryContextStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = nil
	return nil
}

// contextFileName is the fixed key the job context is cached under.
const contextFileName = "jobDetails.json"

// FileContextStore persists the context as a JSON file so it survives process
// restarts, the way browser session storage survived page reloads.
type FileContextStore struct {
	dir string
}

// NewFileContextStore roots the store at dir, creating it when missing.
func NewFileContextStore(dir string) (*FileContextStore, error) {
	if dir == "" {
		return nil, errors.New("session: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: ensure directory: %w", err)
	}
	return &FileContextStore{dir: dir}, nil
}

func (s *FileContextStore) path() string {
	return filepath.Join(s.dir, contextFileName)
}

func (s *FileContextStore) Save(c Context) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("session: marshal context: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0o644); err != nil {
		return fmt.Errorf("session: write context: %w", err)
	}
	return nil
}

func (s *FileContextStore) Load() (Context, bool, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Context{}, false, nil
		}
		return Context{}, false, fmt.Errorf("session: read context: %w", err)
	}
	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return Context{}, false, fmt.Errorf("session: decode context: %w", err)
	}
	return c, true, nil
}

func (s *FileContextStore) Clear() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: clear context: %w", err)
	}
	return nil
}
