package store

import (
	"context"
	"sync"

	"github.com/idilsaglam/tada/internal/kv"
)

// writer drains full-collection payloads into the slot one at a time.
// Payloads are written in the order they were queued, so the last one wins.
// Nothing is coalesced or retried.
//
// The queue is unbounded: enqueue runs under the store lock and must never
// wait on a slow slot. Each entry is one encoded snapshot.
type writer struct {
	slot kv.Store

	mu     sync.Mutex
	queue  [][]byte
	closed bool
	wake   chan struct{}

	pending sync.WaitGroup
	done    chan struct{}
	once    sync.Once
	onErr   func(error)
}

func newWriter(slot kv.Store, onErr func(error)) *writer {
	w := &writer{
		slot:  slot,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
		onErr: onErr,
	}
	go w.run()
	return w
}

func (w *writer) enqueue(payload []byte) {
	w.pending.Add(1)
	w.mu.Lock()
	w.queue = append(w.queue, payload)
	w.mu.Unlock()
	w.signal()
}

func (w *writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest payload. ok is false when the queue is empty; stop
// is true once the queue is empty and the writer was closed.
func (w *writer) next() (p []byte, ok, stop bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil, false, w.closed
	}
	p = w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return p, true, false
}

func (w *writer) run() {
	defer close(w.done)
	for {
		p, ok, stop := w.next()
		if stop {
			return
		}
		if !ok {
			<-w.wake
			continue
		}
		if err := w.slot.Set(context.Background(), SlotKey, p); err != nil {
			w.onErr(&PersistenceError{Op: OpWrite, Err: err})
		}
		w.pending.Done()
	}
}

// flush blocks until every queued payload has been attempted.
func (w *writer) flush() { w.pending.Wait() }

// close writes whatever is still queued, then stops the goroutine.
func (w *writer) close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		w.signal()
	})
	<-w.done
}
