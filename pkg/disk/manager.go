package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/downfa11-org/logseg/util"
)

// Manager hands out one writable root per segment path so every append for
// a file goes through the same size counter.
type Manager struct {
	mu   sync.Mutex
	sets map[string]*FileMessageSet
	dir  string
	opts Options
}

func NewManager(dir string, opts Options) *Manager {
	return &Manager{
		sets: make(map[string]*FileMessageSet),
		dir:  dir,
		opts: opts,
	}
}

// Path resolves a bare segment name against the manager's directory. Names
// that already carry a directory are used as given.
func (m *Manager) Path(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return filepath.Clean(name)
	}
	return filepath.Join(m.dir, name)
}

// Get returns the root for name, opening (or creating) it on first use.
func (m *Manager) Get(name string) (*FileMessageSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.Path(name)
	if s, ok := m.sets[path]; ok {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", filepath.Dir(path), err)
	}

	var (
		s   *FileMessageSet
		err error
	)
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) && m.opts.Writable {
		s, err = Create(path, m.opts)
	} else {
		s, err = Open(path, m.opts)
	}
	if err != nil {
		return nil, err
	}

	m.sets[path] = s
	return s, nil
}

// Remove closes and deletes the segment for name.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.Path(name)
	s, ok := m.sets[path]
	if !ok {
		return os.Remove(path) == nil
	}
	delete(m.sets, path)
	return s.Delete()
}

// CloseAll flushes and closes every root handed out so far.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for path, s := range m.sets {
		util.Debug("Closing segment %s", path)
		if err := s.Close(); err != nil {
			util.Error("close segment %s: %v", path, err)
			if firstErr == nil {
				firstErr = err
			}
		}
		delete(m.sets, path)
	}
	return firstErr
}
