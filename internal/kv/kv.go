// Package kv provides the on-device key-value slot the task list persists into.
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is a persistent key-value store holding textual values.
type Store interface {
	// Get returns the value for key. ok is false when the key was never set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store closed")

// Memory is an in-process Store with injectable failures.
type Memory struct {
	mu     sync.Mutex
	data   map[string][]byte
	closed bool
	writes int
	getErr error
	setErr error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

// Writes reports how many successful Set calls happened.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailGet makes subsequent Gets fail with err (nil clears it).
func (m *Memory) FailGet(err error) {
	m.mu.Lock()
	m.getErr = err
	m.mu.Unlock()
}

// FailSet makes subsequent Sets fail with err (nil clears it).
func (m *Memory) FailSet(err error) {
	m.mu.Lock()
	m.setErr = err
	m.mu.Unlock()
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Opener builds a Store rooted in a data directory.
type Opener func(dir string) (Store, error)

var (
	regMu   sync.RWMutex
	openers = map[string]Opener{
		"memory": func(string) (Store, error) { return NewMemory(), nil },
	}
)

// Register makes a backend available to Open. Backends register themselves from init.
func Register(name string, fn Opener) {
	regMu.Lock()
	defer regMu.Unlock()
	openers[strings.ToLower(name)] = fn
}

// Open opens the named backend under dir, creating dir if needed.
func Open(backend, dir string) (Store, error) {
	regMu.RLock()
	fn, ok := openers[strings.ToLower(backend)]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
	dir, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	return fn(dir)
}

// ExpandHome resolves a leading ~ to the user's home directory.
func ExpandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
