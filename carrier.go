package tracewire

import (
	"iter"
	"net/http"
)

// Carrier adapts an external string-keyed store, such as a header map,
// into the single-valued view the propagation codec works against.
//
// Implementations carry no synchronization of their own; the underlying
// store's thread-safety applies, and mutating the store while iterating
// Entries is undefined.
type Carrier interface {
	// Get returns the value stored under key, or "" when the key is
	// absent. Absence is not an error.
	Get(key string) string

	// Set overwrites key with a single value. Any pre-existing multiple
	// values for the key are discarded: cross-platform propagation
	// formats expect single-valued headers, so the flattening is
	// intentional.
	Set(key, value string)

	// Entries yields the store's current key/value pairs. The sequence
	// is lazy and finite; restart it by calling Entries again. It is not
	// a snapshot of the store.
	Entries() iter.Seq2[string, string]
}

// TextMapCarrier adapts a plain string map.
type TextMapCarrier map[string]string

func (c TextMapCarrier) Get(key string) string {
	return c[key]
}

func (c TextMapCarrier) Set(key, value string) {
	c[key] = value
}

func (c TextMapCarrier) Entries() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for k, v := range c {
			if !yield(k, v) {
				return
			}
		}
	}
}

// HeaderCarrier adapts an http.Header. Get returns the first value for a
// key; Set replaces all values with one.
//
// http.Header folds keys into MIME canonical form (for example
// "x-b3-traceid" is stored as "X-B3-Traceid"), so lookups are effectively
// case-insensitive and Entries yields canonical keys.
type HeaderCarrier http.Header

func (c HeaderCarrier) Get(key string) string {
	return http.Header(c).Get(key)
}

func (c HeaderCarrier) Set(key, value string) {
	http.Header(c).Set(key, value)
}

func (c HeaderCarrier) Entries() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for k, values := range c {
			if len(values) == 0 {
				continue
			}
			if !yield(k, values[0]) {
				return
			}
		}
	}
}
