package usage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const defaultBufferSize = 1024

// Recorder is an asynchronous Sink that persists records to a Store. Records
// are queued on a buffered channel and written by a single background worker;
// when the buffer is full new records are dropped rather than blocking the
// request path.
type Recorder struct {
	store   Store
	queue   chan *Record
	dropped atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

// NewRecorder starts a recorder writing to store.
func NewRecorder(store Store, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	r := &Recorder{
		store: store,
		queue: make(chan *Record, bufferSize),
		done:  make(chan struct{}),
	}

	go r.run()
	return r
}

// Record queues a usage record. Never blocks.
func (r *Recorder) Record(rec *Record) {
	select {
	case r.queue <- rec:
	default:
		n := r.dropped.Add(1)
		if n%100 == 1 {
			slog.Warn("usage recorder buffer full, dropping records",
				"dropped_total", n,
			)
		}
	}
}

// Dropped returns the number of records discarded due to backpressure.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close drains queued records and stops the worker.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.queue)
		<-r.done
	})
	return nil
}

func (r *Recorder) run() {
	defer close(r.done)

	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.store.Insert(ctx, rec); err != nil {
			slog.Error("failed to persist usage record",
				"record_id", rec.ID,
				"error", err,
			)
		}
		cancel()
	}
}
