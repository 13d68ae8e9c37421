package tracewire

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// BufferedReporter decouples span finishers from a slow downstream
// reporter. Report enqueues and returns immediately; a single drain
// goroutine delivers spans downstream in FIFO order. When the queue
// reaches its limit, new spans are dropped and counted rather than
// blocking the finisher.
type BufferedReporter struct {
	downstream Reporter
	pending    *queue.Queue
	limit      int
	dropped    atomic.Int64
	mu         sync.Mutex
	cond       *sync.Cond
	closed     bool
	done       chan struct{}
}

// NewBufferedReporter starts a buffered reporter delivering to
// downstream, holding at most limit undelivered spans.
func NewBufferedReporter(downstream Reporter, limit int) *BufferedReporter {
	if limit <= 0 {
		limit = 1024
	}
	b := &BufferedReporter{
		downstream: downstream,
		pending:    queue.New(),
		limit:      limit,
		done:       make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.drain()
	return b
}

func (b *BufferedReporter) Report(span *Span) {
	if span == nil {
		return
	}
	b.mu.Lock()
	if b.closed || b.pending.Length() >= b.limit {
		b.mu.Unlock()
		b.dropped.Add(1)
		return
	}
	b.pending.Add(span)
	b.mu.Unlock()
	b.cond.Signal()
}

// drain delivers queued spans one at a time. The lock is released around
// each downstream call so a slow sink never blocks Report.
func (b *BufferedReporter) drain() {
	defer close(b.done)

	b.mu.Lock()
	for {
		for b.pending.Length() == 0 && !b.closed {
			b.cond.Wait()
		}
		if b.pending.Length() == 0 && b.closed {
			b.mu.Unlock()
			return
		}
		span := b.pending.Remove().(*Span)
		b.mu.Unlock()

		b.downstream.Report(span)

		b.mu.Lock()
	}
}

// Close stops accepting spans and waits until everything already queued
// has been delivered downstream. Safe to call more than once.
func (b *BufferedReporter) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
	<-b.done
}

// Dropped returns the number of spans dropped because the queue was full
// or the reporter was closed.
func (b *BufferedReporter) Dropped() int64 {
	return b.dropped.Load()
}
