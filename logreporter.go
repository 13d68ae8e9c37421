package tracewire

import "go.uber.org/zap"

// LogReporter writes each finished span to a structured logger. Useful
// as a development sink or as one leg of a MultiReporter next to a real
// transport.
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter wraps the logger as a Reporter. A nil logger yields a
// no-op reporter.
func NewLogReporter(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(span *Span) {
	if span == nil || span.Context == nil {
		return
	}

	fields := []zap.Field{
		zap.String("trace_id", span.Context.TraceID),
		zap.String("span_id", span.Context.SpanID),
		zap.String("operation", span.Name),
		zap.Time("start", span.StartTime),
		zap.Duration("duration", span.Duration),
	}
	if span.Context.ParentID != "" {
		fields = append(fields, zap.String("parent_id", span.Context.ParentID))
	}
	if n := len(span.Annotations); n > 0 {
		fields = append(fields, zap.Int("annotations", n))
	}
	if n := len(span.BinaryAnnotations); n > 0 {
		fields = append(fields, zap.Int("binary_annotations", n))
	}

	r.logger.Info("span finished", fields...)
}
