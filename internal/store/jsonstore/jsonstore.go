package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/idilsaglam/tada/internal/kv"
)

// JSON-backed key-value storage. Single file, human-readable, portable.
// Every Set rewrites the whole document through a temp file + rename. A file
// that no longer parses is moved aside on the next Set.

const dataFileName = "tasks.json"

var errCorrupt = errors.New("corrupt data file")

func init() {
	kv.Register("file", func(dir string) (kv.Store, error) {
		return New(filepath.Join(dir, dataFileName)), nil
	})
}

// Store keeps every key in one JSON object: {"<key>": "<value>"}.
type Store struct {
	mu     sync.Mutex
	path   string
	closed bool
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, kv.ErrClosed
	}
	doc, err := s.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kv.ErrClosed
	}
	doc, err := s.read()
	if errors.Is(err, errCorrupt) {
		// keep the unreadable file for recovery and start a fresh document
		if doc, err = s.quarantine(); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}
	doc[key] = string(value)
	return s.write(doc)
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Store) read() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc := map[string]string{}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: json unmarshal: %w", errCorrupt, err)
	}
	return doc, nil
}

// quarantine renames an unparsable data file to <path>.corrupt-<unix-nanos>.
func (s *Store) quarantine() (map[string]string, error) {
	aside := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().UnixNano())
	if err := os.Rename(s.path, aside); err != nil {
		return nil, fmt.Errorf("move corrupt file aside: %w", err)
	}
	return map[string]string{}, nil
}

func (s *Store) write(doc map[string]string) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
