// Package tracewire is a client-side distributed tracing library built
// around the Zipkin annotation model.
//
// tracewire focuses on the span data model, its timing strategy, and the
// propagation of trace identity across process boundaries. It deliberately
// leaves sampling policy, batch transport, and wire serialization to
// external collaborators.
//
// Core Components:
//   - Tracer: thin factory that creates spans and wires them to a Reporter.
//   - Span: the finished record of a single unit of work.
//   - ActiveSpan: the mutable handle for an ongoing span.
//   - SpanContext: propagable trace identity plus baggage.
//   - Carrier: get/set adapter over an external string-keyed store.
//   - Reporter: sink that accepts each finished span exactly once.
//
// Basic Usage:
//
//	tracer := tracewire.New("billing-service",
//		tracewire.WithReporter(collector))
//	defer tracer.Close()
//
//	ctx, span, err := tracer.StartSpan(ctx, "charge-card")
//	if err != nil {
//		return err
//	}
//	defer span.Finish()
//
//	span.SetTag("span.kind", "client")
//	span.SetIntTag("http.status_code", 200)
//
// Thread Safety:
//
// Tracer is safe for concurrent use by multiple goroutines. An ActiveSpan
// is owned by the single logical task that created it; tag and log calls
// are not synchronized against each other. Finish is the exception: it is
// safe to call from multiple goroutines and reports at most once.
//
// Context Propagation:
//
// In-process, spans travel on context.Context. Across processes, Inject
// and Extract move a SpanContext through a Carrier using B3-style keys.
package tracewire

import "errors"

// Well-known tag keys and values. Tags with a dedicated wire
// representation are rewritten by the span's tag encoder instead of being
// stored as generic binary annotations.
const (
	// TagSpanKind marks the span's role in an RPC exchange.
	TagSpanKind = "span.kind"

	// TagComponent names the framework or library that produced the span.
	TagComponent = "component"

	// SpanKindServer and SpanKindClient are the TagSpanKind values with a
	// dedicated annotation encoding.
	SpanKindServer = "server"
	SpanKindClient = "client"

	// AnnotationServerReceive and AnnotationClientSend are the annotation
	// values produced for the corresponding span.kind tags, stamped at the
	// span's start time.
	AnnotationServerReceive = "server receive"
	AnnotationClientSend    = "client send"

	// KeyLocalComponent is the canonical binary-annotation key that
	// TagComponent is rewritten to.
	KeyLocalComponent = "local component"
)

// ErrInvalidArgument is returned when a caller passes an argument the
// operation cannot accept: a blank operation name, an empty tag or
// baggage key, a blank log event, or a nil span context.
var ErrInvalidArgument = errors.New("tracewire: invalid argument")

// ErrSpanContextNotFound is returned by Extract when the carrier holds no
// trace identity.
var ErrSpanContextNotFound = errors.New("tracewire: span context not found in carrier")

// ErrSpanContextCorrupted is returned by Extract when the carrier holds a
// partial or malformed trace identity.
var ErrSpanContextCorrupted = errors.New("tracewire: span context corrupted")
