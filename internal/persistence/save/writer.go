package save

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"inktycoon.dev/internal/sim/studio"
)

type WriterStats struct {
	EnqueuedTotal   uint64
	SupersededTotal uint64
	SavedTotal      uint64
	DeletedTotal    uint64
	FailedTotal     uint64
	LastSuccessUnix int64
	LastErrorUnix   int64
}

// Writer owns a Gateway on its own goroutine. Enqueue and Delete never
// block: at most one save is pending and a newer one replaces it. A pending
// delete always runs before the save queued after it.
type Writer struct {
	gw      *Gateway
	log     *log.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending *studio.State
	del     bool
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once

	enqueued   atomic.Uint64
	superseded atomic.Uint64
	saved      atomic.Uint64
	deleted    atomic.Uint64
	failed     atomic.Uint64
	lastOK     atomic.Int64
	lastErr    atomic.Int64
}

func NewWriter(gw *Gateway, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w := &Writer{
		gw:      gw,
		log:     logger,
		timeout: 10 * time.Second,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Enqueue schedules st to be written. It reports false only after Close.
func (w *Writer) Enqueue(st studio.State) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	if w.pending != nil {
		w.superseded.Add(1)
	}
	w.pending = &st
	w.mu.Unlock()
	w.enqueued.Add(1)
	w.signal()
	return true
}

// Delete schedules removal of the save slot. Any save still pending is
// dropped since it would be deleted anyway.
func (w *Writer) Delete() bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	if w.pending != nil {
		w.superseded.Add(1)
		w.pending = nil
	}
	w.del = true
	w.mu.Unlock()
	w.signal()
	return true
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Close flushes pending work and stops the writer goroutine.
func (w *Writer) Close() error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.stop)
	})
	<-w.done
	return nil
}

func (w *Writer) Stats() WriterStats {
	return WriterStats{
		EnqueuedTotal:   w.enqueued.Load(),
		SupersededTotal: w.superseded.Load(),
		SavedTotal:      w.saved.Load(),
		DeletedTotal:    w.deleted.Load(),
		FailedTotal:     w.failed.Load(),
		LastSuccessUnix: w.lastOK.Load(),
		LastErrorUnix:   w.lastErr.Load(),
	}
}

func (w *Writer) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		del, pending := w.del, w.pending
		w.del, w.pending = false, nil
		w.mu.Unlock()
		if !del && pending == nil {
			return
		}
		if del {
			w.run("delete", func(ctx context.Context) error { return w.gw.Delete(ctx) }, &w.deleted)
		}
		if pending != nil {
			st := *pending
			w.run("save", func(ctx context.Context) error { return w.gw.Save(ctx, st) }, &w.saved)
		}
	}
}

func (w *Writer) run(op string, fn func(ctx context.Context) error, ok *atomic.Uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		w.failed.Add(1)
		w.lastErr.Store(time.Now().Unix())
		w.log.Printf("save writer: %s %s: %v", op, w.gw.Key(), err)
		return
	}
	ok.Add(1)
	w.lastOK.Store(time.Now().Unix())
}
