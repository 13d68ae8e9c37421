package tracewire

import (
	"errors"
	"testing"
)

func TestNewSpanContextValidation(t *testing.T) {
	if _, err := NewSpanContext("", "span-1", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty trace id, got %v", err)
	}

	if _, err := NewSpanContext("trace-1", "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty span id, got %v", err)
	}

	sc, err := NewSpanContext("trace-1", "span-1", "parent-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sc.TraceID != "trace-1" || sc.SpanID != "span-1" || sc.ParentID != "parent-1" {
		t.Errorf("Ids not preserved: %+v", sc)
	}
}

func TestBaggageSetAndGet(t *testing.T) {
	sc, _ := NewSpanContext("trace-1", "span-1", "")

	if _, ok := sc.BaggageItem("user"); ok {
		t.Error("Expected no baggage on a fresh context")
	}

	if err := sc.SetBaggageItem("user", "alice"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	value, ok := sc.BaggageItem("user")
	if !ok || value != "alice" {
		t.Errorf("Expected user=alice, got %q (found=%v)", value, ok)
	}

	// Upsert replaces.
	if err := sc.SetBaggageItem("user", "bob"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if value, _ := sc.BaggageItem("user"); value != "bob" {
		t.Errorf("Expected user=bob after upsert, got %q", value)
	}
}

func TestBaggageEmptyKeyRejected(t *testing.T) {
	sc, _ := NewSpanContext("trace-1", "span-1", "")

	if err := sc.SetBaggageItem("", "value"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty baggage key, got %v", err)
	}
}

func TestForeachBaggageItem(t *testing.T) {
	sc, _ := NewSpanContext("trace-1", "span-1", "")
	sc.SetBaggageItem("a", "1")
	sc.SetBaggageItem("b", "2")
	sc.SetBaggageItem("c", "3")

	seen := make(map[string]string)
	sc.ForeachBaggageItem(func(k, v string) bool {
		seen[k] = v
		return true
	})
	if len(seen) != 3 {
		t.Errorf("Expected 3 items, got %d", len(seen))
	}

	// Returning false stops iteration.
	count := 0
	sc.ForeachBaggageItem(func(k, v string) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("Expected iteration to stop after 1 item, got %d", count)
	}
}

func TestNewChildLinksIdentity(t *testing.T) {
	parent, _ := NewSpanContext("trace-1", "span-1", "")

	child, err := parent.NewChild("span-2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if child.TraceID != "trace-1" {
		t.Errorf("Expected child to inherit trace id, got %s", child.TraceID)
	}
	if child.SpanID != "span-2" {
		t.Errorf("Expected child span id span-2, got %s", child.SpanID)
	}
	if child.ParentID != "span-1" {
		t.Errorf("Expected child parent id span-1, got %s", child.ParentID)
	}

	if _, err := parent.NewChild(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty child span id, got %v", err)
	}
}

func TestNewChildFreezesBaggage(t *testing.T) {
	parent, _ := NewSpanContext("trace-1", "span-1", "")
	parent.SetBaggageItem("tenant", "acme")

	child, _ := parent.NewChild("span-2")

	// Baggage present at fork time carries over.
	if value, ok := child.BaggageItem("tenant"); !ok || value != "acme" {
		t.Errorf("Expected tenant=acme in child, got %q (found=%v)", value, ok)
	}

	// Parent mutation after the fork stays in the parent.
	parent.SetBaggageItem("tenant", "globex")
	parent.SetBaggageItem("late", "yes")
	if value, _ := child.BaggageItem("tenant"); value != "acme" {
		t.Errorf("Parent mutation leaked into child: tenant=%q", value)
	}
	if _, ok := child.BaggageItem("late"); ok {
		t.Error("Parent addition leaked into child")
	}

	// Child mutation stays in the child.
	child.SetBaggageItem("child-only", "1")
	if _, ok := parent.BaggageItem("child-only"); ok {
		t.Error("Child mutation leaked into parent")
	}
}
