package tracewire

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
)

// bundleKeyType is a private type for context keys to avoid collisions.
type bundleKeyType string

const (
	bundleKey bundleKeyType = "tracewire"
)

// contextBundle holds both tracer and span to reduce context allocations.
type contextBundle struct {
	tracer *Tracer
	span   *activeSpan
}

// Tracer is the thin factory that creates spans and wires them to a
// Reporter. Safe for concurrent use by multiple goroutines.
type Tracer struct {
	endpoint    Endpoint
	reporter    Reporter
	clock       clockz.Clock
	traceIDPool *IDPool
	spanIDPool  *IDPool
	idPoolOnce  sync.Once
}

// Option configures a Tracer at construction.
type Option func(*Tracer)

// WithReporter sets the sink that receives each finished span.
func WithReporter(r Reporter) Option {
	return func(t *Tracer) {
		t.reporter = r
	}
}

// WithClockSource sets the clock every per-span Clock is anchored to.
// Enables clock injection for deterministic testing.
func WithClockSource(clock clockz.Clock) Option {
	return func(t *Tracer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithEndpoint sets the address part of the tracer's local endpoint.
func WithEndpoint(ipv4 string, port int) Option {
	return func(t *Tracer) {
		t.endpoint.IPv4 = ipv4
		t.endpoint.Port = port
	}
}

// New creates a tracer for the named service. Without options it uses
// the real clock and reports to nowhere.
func New(serviceName string, opts ...Option) *Tracer {
	t := &Tracer{
		endpoint: Endpoint{ServiceName: serviceName, IPv4: "127.0.0.1"},
		clock:    clockz.RealClock,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LocalEndpoint returns the endpoint stamped on this tracer's
// annotations.
func (t *Tracer) LocalEndpoint() Endpoint {
	return t.endpoint
}

// StartSpan creates a new span and binds it to the returned context.
// If the context already carries a span, the new span joins its trace as
// a child and takes a frozen copy of its baggage. The operation name
// must not be blank.
func (t *Tracer) StartSpan(ctx context.Context, operation string) (context.Context, ActiveSpan, error) {
	// Handle nil context by creating a new one.
	if ctx == nil {
		ctx = context.Background()
	}

	var sc *SpanContext
	var err error
	if parent := spanContextFromContext(ctx); parent != nil {
		sc, err = parent.NewChild(t.nextSpanID())
	} else {
		sc, err = NewSpanContext(t.nextTraceID(), t.nextSpanID(), "")
	}
	if err != nil {
		return ctx, nil, err
	}

	span, err := newActiveSpan(t, sc, operation, NewClock(t.clock))
	if err != nil {
		return ctx, nil, err
	}

	bundle := &contextBundle{tracer: t, span: span}
	return context.WithValue(ctx, bundleKey, bundle), span, nil
}

// StartSpanFrom creates a child of a remote parent context, typically
// one produced by Extract at an ingress boundary.
func (t *Tracer) StartSpanFrom(parent *SpanContext, operation string) (ActiveSpan, error) {
	if parent == nil {
		return nil, fmt.Errorf("%w: parent span context is required", ErrInvalidArgument)
	}
	sc, err := parent.NewChild(t.nextSpanID())
	if err != nil {
		return nil, err
	}
	return newActiveSpan(t, sc, operation, NewClock(t.clock))
}

// SpanFromContext recovers the active span bound to the context, if any.
func SpanFromContext(ctx context.Context) (ActiveSpan, bool) {
	if ctx == nil {
		return nil, false
	}
	if bundle, ok := ctx.Value(bundleKey).(*contextBundle); ok {
		return bundle.span, true
	}
	return nil, false
}

func spanContextFromContext(ctx context.Context) *SpanContext {
	if bundle, ok := ctx.Value(bundleKey).(*contextBundle); ok {
		return bundle.span.span.Context
	}
	return nil
}

// report hands a finished span to the configured reporter. Called once
// per span by the finish gate.
func (t *Tracer) report(span *Span) {
	if t.reporter != nil {
		t.reporter.Report(span)
	}
}

// ensureIDPools initializes ID pools if not already created.
func (t *Tracer) ensureIDPools() {
	t.idPoolOnce.Do(func() {
		// Pool size based on number of CPUs for contention balance.
		poolSize := runtime.NumCPU() * 100

		t.traceIDPool = NewIDPool(poolSize, func() string {
			id, err := uuid.NewRandom()
			if err != nil {
				// Fallback to time-based ID if crypto/rand fails.
				return hex.EncodeToString([]byte(t.clock.Now().Format("2006-01-02T15:04:05.000000000")))
			}
			return hex.EncodeToString(id[:])
		})

		t.spanIDPool = NewIDPool(poolSize, func() string {
			bytes := make([]byte, 8)
			if _, err := rand.Read(bytes); err != nil {
				// Fallback to time-based ID if crypto/rand fails.
				return hex.EncodeToString([]byte(t.clock.Now().Format("15:04:05.000000")))
			}
			return hex.EncodeToString(bytes)
		})
	})
}

func (t *Tracer) nextTraceID() string {
	t.ensureIDPools()
	return t.traceIDPool.Get()
}

func (t *Tracer) nextSpanID() string {
	t.ensureIDPools()
	return t.spanIDPool.Get()
}

// Close releases the tracer's id pools. The tracer must not start new
// spans afterwards.
func (t *Tracer) Close() {
	if t.traceIDPool != nil {
		t.traceIDPool.Close()
	}
	if t.spanIDPool != nil {
		t.spanIDPool.Close()
	}
}
