package tracewire

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Endpoint identifies the service a span or annotation was recorded at.
type Endpoint struct {
	ServiceName string `json:"serviceName"`
	IPv4        string `json:"ipv4,omitempty"`
	Port        int    `json:"port,omitempty"`
}

// Annotation is a timestamped event label on a span's timeline, for
// example "server receive". Insertion order matches timeline order by
// convention.
type Annotation struct {
	Endpoint  Endpoint  `json:"endpoint"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// BinaryAnnotation is a typed key/value tag on a span. The value keeps
// its original type (string, int64, float64, or bool) instead of being
// coerced to a string.
type BinaryAnnotation struct {
	Host  Endpoint `json:"endpoint"`
	Key   string   `json:"key"`
	Value any      `json:"value"`
}

// Span is the record of a single unit of work in a distributed trace.
// It is assembled through an ActiveSpan and handed to a Reporter once
// finished; after that point it must be treated as read-only.
//
//nolint:govet // Field order follows JSON serialization order
type Span struct {
	Context           *SpanContext       `json:"context"`
	Name              string             `json:"name"`
	StartTime         time.Time          `json:"start_time"`
	EndTime           time.Time          `json:"end_time,omitempty"`
	Duration          time.Duration      `json:"duration"`
	Annotations       []Annotation       `json:"annotations,omitempty"`
	BinaryAnnotations []BinaryAnnotation `json:"binaryAnnotations,omitempty"`
}

// clone returns a deep copy whose annotation lists and baggage are
// detached from the original.
func (s *Span) clone() *Span {
	copied := *s
	if s.Context != nil {
		copied.Context = s.Context.snapshot()
	}
	if s.Annotations != nil {
		copied.Annotations = make([]Annotation, len(s.Annotations))
		copy(copied.Annotations, s.Annotations)
	}
	if s.BinaryAnnotations != nil {
		copied.BinaryAnnotations = make([]BinaryAnnotation, len(s.BinaryAnnotations))
		copy(copied.BinaryAnnotations, s.BinaryAnnotations)
	}
	return &copied
}

// ActiveSpan is the mutable handle for an ongoing span.
//
// An ActiveSpan is owned by the single logical task that created it: tag
// and log calls carry no cross-goroutine synchronization guarantees.
// Finish is the exception: it may be called from any goroutine, any
// number of times, and reports the span exactly once. Every mutating
// call after the first Finish is a silent no-op.
type ActiveSpan interface {
	// Context returns the span's identity, fixed at construction.
	Context() *SpanContext

	// OperationName returns the current operation name.
	OperationName() string

	// SetOperationName replaces the operation name. The name must not be
	// blank.
	SetOperationName(name string) error

	// SetTag and its typed variants record a key/value tag. Well-known
	// keys get a dedicated annotation encoding; everything else is
	// stored as a binary annotation preserving the value's type.
	SetTag(key, value string) error
	SetIntTag(key string, value int64) error
	SetFloatTag(key string, value float64) error
	SetBoolTag(key string, value bool) error

	// LogEvent records a timestamped annotation with the given value, at
	// the current time or at ts. The event must not be blank.
	LogEvent(event string) error
	LogEventAt(ts time.Time, event string) error

	// LogFields collapses the field map into a single annotation value
	// of the form "key:value, key:value" with keys sorted. The encoding
	// is lossy: structured fields cannot be recovered from the reported
	// span. An empty map records nothing.
	LogFields(fields map[string]string)
	LogFieldsAt(ts time.Time, fields map[string]string)

	// SetBaggageItem and BaggageItem delegate to the span's context.
	SetBaggageItem(key, value string) error
	BaggageItem(key string) (string, bool)

	// Finish freezes the span's timing and hands it to the Reporter.
	// FinishAt uses the supplied timestamp instead of the span clock.
	Finish()
	FinishAt(ts time.Time)
}

// activeSpan is the concrete ActiveSpan implementation.
type activeSpan struct {
	span     *Span
	tracer   *Tracer
	clock    *Clock
	mu       sync.Mutex // protects span fields during mutation
	finished atomic.Bool
}

// newActiveSpan validates the construction arguments and starts the span
// at the clock's current time.
func newActiveSpan(t *Tracer, sc *SpanContext, operation string, clock *Clock) (*activeSpan, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: tracer is required", ErrInvalidArgument)
	}
	if sc == nil {
		return nil, fmt.Errorf("%w: span context is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(operation) == "" {
		return nil, fmt.Errorf("%w: operation name must not be blank", ErrInvalidArgument)
	}
	if clock == nil {
		clock = NewClock(nil)
	}
	return &activeSpan{
		span: &Span{
			Context:   sc,
			Name:      operation,
			StartTime: clock.Now(),
		},
		tracer: t,
		clock:  clock,
	}, nil
}

func (s *activeSpan) Context() *SpanContext {
	return s.span.Context
}

func (s *activeSpan) OperationName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.span.Name
}

func (s *activeSpan) SetOperationName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: operation name must not be blank", ErrInvalidArgument)
	}
	if s.finished.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.span.Name = name
	return nil
}

func (s *activeSpan) SetTag(key, value string) error {
	return s.setTag(key, value)
}

func (s *activeSpan) SetIntTag(key string, value int64) error {
	return s.setTag(key, value)
}

func (s *activeSpan) SetFloatTag(key string, value float64) error {
	return s.setTag(key, value)
}

func (s *activeSpan) SetBoolTag(key string, value bool) error {
	return s.setTag(key, value)
}

// setTag applies the tag-encoding rules: span.kind=server and
// span.kind=client become well-known annotations stamped at StartTime,
// component is rewritten to the canonical local-component key, and
// everything else lands as a binary annotation keeping its typed value.
func (s *activeSpan) setTag(key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: tag key must not be empty", ErrInvalidArgument)
	}
	if s.finished.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == TagSpanKind {
		if kind, ok := value.(string); ok {
			switch kind {
			case SpanKindServer:
				s.appendAnnotation(s.span.StartTime, AnnotationServerReceive)
				return nil
			case SpanKindClient:
				s.appendAnnotation(s.span.StartTime, AnnotationClientSend)
				return nil
			}
		}
		// Unknown kinds fall through to a generic binary annotation.
	}

	if key == TagComponent {
		key = KeyLocalComponent
	}
	s.span.BinaryAnnotations = append(s.span.BinaryAnnotations, BinaryAnnotation{
		Host:  s.host(),
		Key:   key,
		Value: value,
	})
	return nil
}

func (s *activeSpan) LogEvent(event string) error {
	return s.LogEventAt(s.clock.Now(), event)
}

func (s *activeSpan) LogEventAt(ts time.Time, event string) error {
	if strings.TrimSpace(event) == "" {
		return fmt.Errorf("%w: log event must not be blank", ErrInvalidArgument)
	}
	if s.finished.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendAnnotation(ts, event)
	return nil
}

func (s *activeSpan) LogFields(fields map[string]string) {
	s.LogFieldsAt(s.clock.Now(), fields)
}

func (s *activeSpan) LogFieldsAt(ts time.Time, fields map[string]string) {
	// Empty field sets record nothing. Lenient, not an error.
	if len(fields) == 0 {
		return
	}
	if s.finished.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendAnnotation(ts, formatFields(fields))
}

func (s *activeSpan) SetBaggageItem(key, value string) error {
	return s.span.Context.SetBaggageItem(key, value)
}

func (s *activeSpan) BaggageItem(key string) (string, bool) {
	return s.span.Context.BaggageItem(key)
}

// Finish reports the span with the clock's current time as its end.
func (s *activeSpan) Finish() {
	s.finishAt(time.Time{})
}

// FinishAt reports the span with the supplied end timestamp.
func (s *activeSpan) FinishAt(ts time.Time) {
	s.finishAt(ts)
}

func (s *activeSpan) finishAt(ts time.Time) {
	// The compare-and-swap is the exactly-once gate: the losing caller
	// of a concurrent Finish must not touch timing or the reporter.
	if !s.finished.CompareAndSwap(false, true) {
		return
	}
	if ts.IsZero() {
		ts = s.clock.Now()
	}
	s.mu.Lock()
	s.span.EndTime = ts
	s.span.Duration = ts.Sub(s.span.StartTime)
	s.mu.Unlock()

	s.tracer.report(s.span)
}

// appendAnnotation must be called with s.mu held.
func (s *activeSpan) appendAnnotation(ts time.Time, value string) {
	s.span.Annotations = append(s.span.Annotations, Annotation{
		Endpoint:  s.host(),
		Value:     value,
		Timestamp: ts,
	})
}

func (s *activeSpan) host() Endpoint {
	return s.tracer.endpoint
}

// formatFields collapses a field map into "key:value, key:value" with
// keys sorted for a stable result.
func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(":")
		b.WriteString(fields[k])
	}
	return b.String()
}
