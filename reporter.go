package tracewire

// Reporter is the sink that accepts finished spans for delivery to a
// collector.
//
// Report is called synchronously from whatever goroutine finished the
// span, exactly once per span lifetime. Delivery and flush timing
// (batched, async, immediate) are the reporter's own policy, as is any
// handling of delivery failure.
type Reporter interface {
	Report(span *Span)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(span *Span)

func (f ReporterFunc) Report(span *Span) {
	f(span)
}

// MultiReporter fans each finished span out to every reporter, in order.
func MultiReporter(reporters ...Reporter) Reporter {
	return ReporterFunc(func(span *Span) {
		for _, r := range reporters {
			r.Report(span)
		}
	})
}
