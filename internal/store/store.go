// Package store owns the ordered task collection and keeps it in sync with
// a single key-value slot.
//
// Mutators update memory synchronously, notify observers and then queue an
// asynchronous write of the whole collection. Callers never wait on I/O;
// write failures are reported through the error handler.
package store

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/kv"
	"github.com/idilsaglam/tada/internal/model"
)

// Observer receives the latest snapshot after every state change.
type Observer func(tasks []model.Task)

// Store is the Task Store.
type Store struct {
	mu        sync.Mutex
	slot      kv.Store
	tasks     []model.Task
	observers map[int]Observer
	nextObs   int
	w         *writer
	closed    bool

	now     func() time.Time
	newID   func() string
	logger  *log.Logger
	onError func(error)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the task id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithErrorHandler receives asynchronous write failures. It runs on the
// writer goroutine and must not block for long.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Store) { s.onError = fn }
}

// New returns an empty store over slot. Call Load to read persisted tasks.
func New(slot kv.Store, opts ...Option) *Store {
	s := &Store{
		slot:      slot,
		tasks:     []model.Task{},
		observers: make(map[int]Observer),
		now:       time.Now,
		newID:     model.NewID,
		logger:    log.New(io.Discard),
		onError:   func(error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.w = newWriter(slot, s.reportWrite)
	return s
}

// Load replaces the collection with the persisted one. A missing slot yields
// an empty collection. On failure the collection is left empty and a
// *PersistenceError with OpRead is returned.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.slot.Get(ctx, SlotKey)
	tasks := []model.Task{}
	if err == nil && ok {
		tasks, err = Decode(raw)
	}
	if err != nil {
		tasks = []model.Task{}
	}

	s.mu.Lock()
	s.tasks = tasks
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err != nil {
		s.logger.Warn("load failed", "key", SlotKey, "err", err)
		return &PersistenceError{Op: OpRead, Err: err}
	}
	s.logger.Debug("loaded tasks", "count", len(snap))
	return nil
}

// Save writes the full collection synchronously, after any queued writes.
func (s *Store) Save(ctx context.Context) error {
	s.w.flush()

	s.mu.Lock()
	payload, err := Encode(s.tasks)
	s.mu.Unlock()
	if err == nil {
		err = s.slot.Set(ctx, SlotKey, payload)
	}
	if err != nil {
		s.logger.Warn("save failed", "key", SlotKey, "err", err)
		return &PersistenceError{Op: OpWrite, Err: err}
	}
	return nil
}

// Add appends a new pending task. Blank titles are rejected with ErrValidation.
func (s *Store) Add(title string) (model.Task, error) {
	t, err := model.NormalizeTitle(title)
	if err != nil {
		return model.Task{}, validationError(err)
	}

	s.mu.Lock()
	task := model.NewTask(s.newID(), t, s.now())
	s.tasks = append(s.tasks, task)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug("task added", "id", task.ID)
	s.notify(snap)
	return task, nil
}

// Remove deletes the task with id. It reports whether a task was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug("task removed", "id", id)
	s.notify(snap)
	return true
}

// ToggleComplete flips completed on the task with id. It reports whether
// the task exists.
func (s *Store) ToggleComplete(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	completed := s.tasks[i].Completed
	snap := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug("task toggled", "id", id, "completed", completed)
	s.notify(snap)
	return true
}

// EditTitle sets the trimmed title on the task with id. Blank titles are
// rejected with ErrValidation; an unknown id is a no-op.
func (s *Store) EditTitle(id, newTitle string) error {
	t, err := model.NormalizeTitle(newTitle)
	if err != nil {
		return validationError(err)
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.tasks[i].Title = t
	snap := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug("task edited", "id", id)
	s.notify(snap)
	return nil
}

// Tasks returns a copy of the collection in insertion order.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i], true
	}
	return model.Task{}, false
}

// At returns the task at 0-based position i.
func (s *Store) At(i int) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.tasks) {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

// Subscribe registers fn for change notifications. Observers run on the
// mutating goroutine, outside the store lock.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Flush waits until every queued write has been attempted.
func (s *Store) Flush() { s.w.flush() }

// Close drains pending writes and closes the slot.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.w.close()
	return s.slot.Close()
}

// commitLocked snapshots the collection and queues its write.
func (s *Store) commitLocked() []model.Task {
	snap := s.snapshotLocked()
	if s.closed {
		s.reportWrite(&PersistenceError{Op: OpWrite, Err: kv.ErrClosed})
		return snap
	}
	payload, err := Encode(snap)
	if err != nil {
		s.reportWrite(&PersistenceError{Op: OpWrite, Err: err})
		return snap
	}
	s.w.enqueue(payload)
	return snap
}

func (s *Store) reportWrite(err error) {
	s.logger.Warn("save failed", "key", SlotKey, "err", err)
	s.onError(err)
}

func (s *Store) snapshotLocked() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notify(snap []model.Task) {
	s.mu.Lock()
	obs := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	s.mu.Unlock()

	for _, fn := range obs {
		cp := make([]model.Task, len(snap))
		copy(cp, snap)
		fn(cp)
	}
}
