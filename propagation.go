package tracewire

import (
	"fmt"
	"strings"
)

// B3-style propagation keys. Keys are matched case-insensitively on
// extract, since header stores fold case.
const (
	fieldTraceID  = "x-b3-traceid"
	fieldSpanID   = "x-b3-spanid"
	fieldParentID = "x-b3-parentspanid"
	prefixBaggage = "baggage-"
)

// Inject writes the span context's identity and baggage into the
// carrier. Each baggage item travels under a "baggage-" prefixed key.
func Inject(sc *SpanContext, carrier Carrier) error {
	if sc == nil {
		return fmt.Errorf("%w: span context is required", ErrInvalidArgument)
	}
	if carrier == nil {
		return fmt.Errorf("%w: carrier is required", ErrInvalidArgument)
	}
	carrier.Set(fieldTraceID, sc.TraceID)
	carrier.Set(fieldSpanID, sc.SpanID)
	if sc.ParentID != "" {
		carrier.Set(fieldParentID, sc.ParentID)
	}
	sc.ForeachBaggageItem(func(k, v string) bool {
		carrier.Set(prefixBaggage+k, v)
		return true
	})
	return nil
}

// Extract reads a span context out of the carrier. It returns
// ErrSpanContextNotFound when the carrier holds no trace identity at
// all, and ErrSpanContextCorrupted when only part of the identity is
// present.
//
// Baggage keys come back lower-cased when the underlying store folds
// case; propagation-sensitive baggage keys should be chosen lower-case
// to begin with.
func Extract(carrier Carrier) (*SpanContext, error) {
	if carrier == nil {
		return nil, fmt.Errorf("%w: carrier is required", ErrInvalidArgument)
	}

	var traceID, spanID, parentID string
	baggage := make(map[string]string)
	for k, v := range carrier.Entries() {
		switch key := strings.ToLower(k); {
		case key == fieldTraceID:
			traceID = v
		case key == fieldSpanID:
			spanID = v
		case key == fieldParentID:
			parentID = v
		case strings.HasPrefix(key, prefixBaggage):
			if item := strings.TrimPrefix(key, prefixBaggage); item != "" {
				baggage[item] = v
			}
		}
	}

	if traceID == "" && spanID == "" {
		return nil, ErrSpanContextNotFound
	}
	if traceID == "" || spanID == "" {
		return nil, ErrSpanContextCorrupted
	}

	sc, err := NewSpanContext(traceID, spanID, parentID)
	if err != nil {
		return nil, err
	}
	for k, v := range baggage {
		if err := sc.SetBaggageItem(k, v); err != nil {
			return nil, err
		}
	}
	return sc, nil
}
