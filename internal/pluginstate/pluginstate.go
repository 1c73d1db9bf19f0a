// Package pluginstate persists which optional export plugins are installed.
//
// The state lives in a small JSON file:
//
//	{"installed": ["pdf_export"]}
//
// Unknown top-level keys written by other tools are preserved on update.
package pluginstate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

// DefaultFileName is used when no state path is configured.
const DefaultFileName = "plugins.json"

const installedKey = "installed"

// ErrEmptyID is returned for an empty plugin id.
var ErrEmptyID = errors.New("plugin id cannot be empty")

// Store reads and writes the plugin state file. It is safe for concurrent
// use within one process; writes replace the file atomically.
type Store struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for unreadable state files.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open returns a store backed by path. The file is not created until the
// first write.
func Open(path string, opts ...Option) *Store {
	if path == "" {
		path = DefaultFileName
	}
	s := &Store{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Installed returns the installed plugin ids in file order. A missing file
// yields an empty list; a corrupt one is logged and treated as empty.
func (s *Store) Installed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, _ := s.read()
	return ids
}

// IsInstalled reports whether id is listed as installed.
func (s *Store) IsInstalled(id string) bool {
	return slices.Contains(s.Installed(), id)
}

// SetInstalled adds or removes id and writes the file.
func (s *Store) SetInstalled(id string, installed bool) error {
	if id == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, raw := s.read()
	has := slices.Contains(ids, id)
	switch {
	case installed && has, !installed && !has:
		return nil
	case installed:
		ids = append(ids, id)
	default:
		ids = slices.DeleteFunc(ids, func(v string) bool { return v == id })
	}

	if raw == nil {
		raw = []byte("{}")
	}
	updated, err := sjson.SetBytes(raw, installedKey, ids)
	if err != nil {
		return fmt.Errorf("updating plugin state: %w", err)
	}
	return s.write(updated)
}

// read returns the installed ids and the raw document they came from. The
// raw document is nil when the file is missing or corrupt.
func (s *Store) read() ([]string, []byte) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("reading plugin state", zap.String("path", s.path), zap.Error(err))
		}
		return []string{}, nil
	}
	if !gjson.ValidBytes(data) {
		s.logger.Warn("plugin state is not valid JSON, treating as empty", zap.String("path", s.path))
		return []string{}, nil
	}

	ids := []string{}
	list := gjson.GetBytes(data, installedKey)
	if !list.IsArray() {
		return ids, data
	}
	list.ForEach(func(_, v gjson.Result) bool {
		if id := v.String(); v.Type == gjson.String && id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
		return true
	})
	return ids, data
}

func (s *Store) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".plugins-*.json")
	if err != nil {
		return fmt.Errorf("writing plugin state: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing plugin state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing plugin state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing plugin state: %w", err)
	}
	return nil
}
