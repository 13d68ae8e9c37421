package tracewire

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMultiReporterFansOutInOrder(t *testing.T) {
	var order []string
	var mu sync.Mutex
	record := func(name string) Reporter {
		return ReporterFunc(func(*Span) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		})
	}

	multi := MultiReporter(record("first"), record("second"), record("third"))
	multi.Report(testSpanRecord("trace-1", "span-1", "op"))

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Errorf("Expected in-order fan-out, got %v", order)
	}
}

func TestLogReporterEmitsStructuredEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reporter := NewLogReporter(zap.New(core))

	span := testSpanRecord("trace-1", "span-1", "charge-card")
	span.EndTime = span.StartTime.Add(30 * time.Millisecond)
	span.Duration = 30 * time.Millisecond
	span.Annotations = []Annotation{{Value: "client send"}}
	reporter.Report(span)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Message != "span finished" {
		t.Errorf("Expected 'span finished', got %q", entry.Message)
	}

	fields := entry.ContextMap()
	if fields["trace_id"] != "trace-1" {
		t.Errorf("Expected trace_id field, got %v", fields["trace_id"])
	}
	if fields["operation"] != "charge-card" {
		t.Errorf("Expected operation field, got %v", fields["operation"])
	}
	if fields["duration"] != 30*time.Millisecond {
		t.Errorf("Expected duration field, got %v", fields["duration"])
	}
	if fields["annotations"] != int64(1) {
		t.Errorf("Expected annotations count, got %v", fields["annotations"])
	}
}

func TestLogReporterToleratesNilInput(t *testing.T) {
	reporter := NewLogReporter(nil)
	reporter.Report(nil)
	reporter.Report(&Span{}) // no context
	reporter.Report(testSpanRecord("trace-1", "span-1", "op"))
}

func TestBufferedReporterDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var names []string
	downstream := ReporterFunc(func(span *Span) {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, span.Name)
	})

	buffered := NewBufferedReporter(downstream, 100)
	buffered.Report(testSpanRecord("trace-1", "a", "first"))
	buffered.Report(testSpanRecord("trace-1", "b", "second"))
	buffered.Report(testSpanRecord("trace-1", "c", "third"))
	buffered.Close()

	if len(names) != 3 || names[0] != "first" || names[1] != "second" || names[2] != "third" {
		t.Errorf("Expected FIFO delivery, got %v", names)
	}
}

func TestBufferedReporterDropsAtLimit(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce sync.Once
	var mu sync.Mutex
	delivered := 0

	downstream := ReporterFunc(func(*Span) {
		startOnce.Do(func() {
			close(started)
			<-release
		})
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	buffered := NewBufferedReporter(downstream, 2)

	// First span occupies the drain goroutine.
	buffered.Report(testSpanRecord("trace-1", "s1", "op"))
	<-started

	// Fill the queue to its limit, then overflow it.
	buffered.Report(testSpanRecord("trace-1", "s2", "op"))
	buffered.Report(testSpanRecord("trace-1", "s3", "op"))
	buffered.Report(testSpanRecord("trace-1", "s4", "op"))

	close(release)
	buffered.Close()

	mu.Lock()
	total := delivered
	mu.Unlock()
	if total != 3 {
		t.Errorf("Expected 3 delivered spans, got %d", total)
	}
	if buffered.Dropped() != 1 {
		t.Errorf("Expected 1 dropped span, got %d", buffered.Dropped())
	}
}

func TestBufferedReporterRejectsAfterClose(t *testing.T) {
	var mu sync.Mutex
	delivered := 0
	downstream := ReporterFunc(func(*Span) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	buffered := NewBufferedReporter(downstream, 10)
	buffered.Close()

	buffered.Report(testSpanRecord("trace-1", "s1", "op"))

	mu.Lock()
	total := delivered
	mu.Unlock()
	if total != 0 {
		t.Errorf("Expected no delivery after close, got %d", total)
	}
	if buffered.Dropped() != 1 {
		t.Errorf("Expected 1 dropped span, got %d", buffered.Dropped())
	}

	// A second close must not panic or hang.
	buffered.Close()
}
