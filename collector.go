package tracewire

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector is a Reporter that buffers finished spans for batch export.
// Safe for concurrent use by multiple goroutines.
//
// Spans are fed through a bounded channel; when the channel is full the
// span is dropped rather than blocking the finishing goroutine, and the
// drop counter is incremented.
type Collector struct {
	spans    []*Span
	spansCh  chan *Span
	stopCh   chan struct{}
	done     chan struct{}
	dropped  atomic.Int64
	name     string
	mu       sync.Mutex
	closed   atomic.Bool
	syncMode bool // bypass the channel for deterministic tests
}

// NewCollector creates a collector with the specified name and channel
// buffer size and starts its receive loop.
func NewCollector(name string, bufferSize int) *Collector {
	c := &Collector{
		name:    name,
		spans:   make([]*Span, 0, 8), // start with small capacity
		spansCh: make(chan *Span, bufferSize),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.start()
	return c
}

// Name returns the collector's name.
func (c *Collector) Name() string {
	return c.name
}

// start runs the collector's main loop, receiving spans from the
// channel.
func (c *Collector) start() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			// Drain remaining spans before shutdown.
			for {
				select {
				case span := <-c.spansCh:
					c.buffer(span)
				default:
					return
				}
			}
		case span := <-c.spansCh:
			c.buffer(span)
		}
	}
}

// Close shuts down the collector's receive loop, draining anything still
// queued. Spans reported after Close are dropped.
func (c *Collector) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	close(c.stopCh)
	select {
	case <-c.done:
	case <-time.After(100 * time.Millisecond):
		// Receive loop did not drain in time; buffered spans up to this
		// point remain exportable.
	}
}

// Report buffers a finished span. If the internal channel is full the
// span is dropped and the drop counter incremented. The span is deep
// copied so later mutation of its baggage cannot leak into the buffer.
func (c *Collector) Report(span *Span) {
	if span == nil {
		c.dropped.Add(1)
		return
	}

	spanCopy := span.clone()

	if c.syncMode {
		// Direct synchronous collection for tests.
		if c.closed.Load() {
			c.dropped.Add(1)
			return
		}
		c.buffer(spanCopy)
		return
	}

	select {
	case c.spansCh <- spanCopy:
		// Successfully queued.
	default:
		// Channel full - drop rather than block the finisher.
		c.dropped.Add(1)
	}
}

// buffer appends a span to the internal slice, growing it in steps that
// avoid excessive reallocation under load.
func (c *Collector) buffer(span *Span) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.spans) >= cap(c.spans) {
		currentCap := cap(c.spans)
		var newCap int
		if currentCap < 1024 {
			newCap = currentCap * 2
		} else {
			newCap = currentCap + currentCap/2
		}
		if newCap < 32 {
			newCap = 32
		}
		grown := make([]*Span, len(c.spans), newCap)
		copy(grown, c.spans)
		c.spans = grown
	}
	c.spans = append(c.spans, span)
}

// Export returns the buffered spans and clears the internal buffer. The
// returned spans are the collector's own deep copies and are safe to
// hand to a transport.
func (c *Collector) Export() []*Span {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.spans) == 0 {
		return nil
	}

	result := make([]*Span, len(c.spans))
	copy(result, c.spans)

	// Shrink only when the buffer is very oversized, to avoid
	// allocation churn.
	if cap(c.spans) > 256 && len(c.spans) < cap(c.spans)/8 {
		newCap := cap(c.spans) / 4
		if newCap < 32 {
			newCap = 32
		}
		c.spans = make([]*Span, 0, newCap)
	} else {
		c.spans = c.spans[:0]
	}

	return result
}

// Count returns the current number of buffered spans.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.spans)
}

// DroppedCount returns the total number of spans dropped due to
// backpressure.
func (c *Collector) DroppedCount() int64 {
	return c.dropped.Load()
}

// SetSyncMode enables synchronous collection for testing. Spans bypass
// the channel, which removes the async behavior from test timing.
func (c *Collector) SetSyncMode(sync bool) {
	c.syncMode = sync
}

// Reset clears the buffered spans and the drop counter without stopping
// the receive loop.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spans = c.spans[:0]
	c.dropped.Store(0)
}
