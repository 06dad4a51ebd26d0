package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span marks a unit of work inside a request, such as scoring an upload.
// Ending the span logs its duration against the surrounding trace.
type Span struct {
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from the context. The returned context
// carries a logger enriched with the trace and span ids.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	if TraceIDFromContext(ctx) == "" {
		traceID := uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	logger = logger.With(slog.String("span_id", spanID), slog.String("span_name", name))
	if parent := SpanIDFromContext(ctx); parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithSpanID(ctx, spanID)
	ctx = WithLogger(ctx, logger)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// End emits the span completion entry. Safe on a nil span.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}
