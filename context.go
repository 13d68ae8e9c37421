package tracewire

import (
	"fmt"
	"sync"
)

// SpanContext carries the propagable identity of a span: trace, span, and
// parent ids, plus baggage items that descend to child contexts.
//
// The ids are fixed at construction. Baggage is mutable and guarded
// internally; a child context takes a frozen copy of the baggage at fork
// time, so later mutation on either side stays local.
type SpanContext struct {
	TraceID  string `json:"trace_id"`
	SpanID   string `json:"span_id"`
	ParentID string `json:"parent_id,omitempty"`

	mu      sync.Mutex
	baggage map[string]string // initialized on first use
}

// NewSpanContext builds a context from already-resolved identifiers.
// Root id generation and carrier extraction are the Tracer's and the
// propagation codec's concerns respectively.
func NewSpanContext(traceID, spanID, parentID string) (*SpanContext, error) {
	if traceID == "" || spanID == "" {
		return nil, fmt.Errorf("%w: trace and span ids are required", ErrInvalidArgument)
	}
	return &SpanContext{TraceID: traceID, SpanID: spanID, ParentID: parentID}, nil
}

// SetBaggageItem upserts a baggage item. The key must be non-empty.
func (c *SpanContext) SetBaggageItem(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: baggage key must not be empty", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.baggage == nil {
		c.baggage = make(map[string]string)
	}
	c.baggage[key] = value
	return nil
}

// BaggageItem returns the value stored under key, if any.
func (c *SpanContext) BaggageItem(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.baggage[key]
	return value, ok
}

// ForeachBaggageItem calls handler for each baggage item until the
// handler returns false. Iteration order is unspecified. The handler sees
// a snapshot taken when iteration starts.
func (c *SpanContext) ForeachBaggageItem(handler func(key, value string) bool) {
	for k, v := range c.baggageCopy() {
		if !handler(k, v) {
			break
		}
	}
}

// NewChild forks a child context: the trace id carries over, the child's
// parent id is this context's span id, and the baggage is a copy frozen
// at fork time.
func (c *SpanContext) NewChild(spanID string) (*SpanContext, error) {
	if spanID == "" {
		return nil, fmt.Errorf("%w: span id is required", ErrInvalidArgument)
	}
	return &SpanContext{
		TraceID:  c.TraceID,
		SpanID:   spanID,
		ParentID: c.SpanID,
		baggage:  c.baggageCopy(),
	}, nil
}

// snapshot returns a detached copy with the same ids and a frozen copy
// of the baggage.
func (c *SpanContext) snapshot() *SpanContext {
	return &SpanContext{
		TraceID:  c.TraceID,
		SpanID:   c.SpanID,
		ParentID: c.ParentID,
		baggage:  c.baggageCopy(),
	}
}

func (c *SpanContext) baggageCopy() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.baggage) == 0 {
		return nil
	}
	copied := make(map[string]string, len(c.baggage))
	for k, v := range c.baggage {
		copied[k] = v
	}
	return copied
}
