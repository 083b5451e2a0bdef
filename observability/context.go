package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PassContext holds observability context for one evaluation pass.
type PassContext struct {
	ServiceName string
	PassID      string
	Roots       int
	StartTime   time.Time
	Metrics     *Metrics
}

// NewPassContext creates a new pass context.
// If metrics is nil, metric recording is silently skipped.
func NewPassContext(serviceName, passID string, roots int, metrics *Metrics) *PassContext {
	return &PassContext{
		ServiceName: serviceName,
		PassID:      passID,
		Roots:       roots,
		StartTime:   time.Now(),
		Metrics:     metrics,
	}
}

// passContextKey is the context key for PassContext.
type passContextKey struct{}

// WithPassContext stores a PassContext in the context.
func WithPassContext(ctx context.Context, pc *PassContext) context.Context {
	return context.WithValue(ctx, passContextKey{}, pc)
}

// PassContextFromContext retrieves the PassContext from context, or nil.
func PassContextFromContext(ctx context.Context) *PassContext {
	if pc, ok := ctx.Value(passContextKey{}).(*PassContext); ok {
		return pc
	}
	return nil
}

// StartSpanForPass starts a traced span and records the pass start metric.
func (pc *PassContext) StartSpanForPass(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanEvalPass)
	span.SetAttributes(
		attribute.String(AttrServiceName, pc.ServiceName),
		attribute.String(AttrPassID, pc.PassID),
		attribute.Int(AttrRoots, pc.Roots),
	)

	if pc.Metrics != nil {
		pc.Metrics.RecordPassStart(ctx)
	}
	return ctx, span
}

// EndPass ends the span and records pass-end metrics.
func (pc *PassContext) EndPass(ctx context.Context, span trace.Span, status string, err error) {
	duration := time.Since(pc.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if pc.Metrics != nil {
		pc.Metrics.RecordPassEnd(ctx, pc.ServiceName, status, duration)
	}
}

// Duration returns the elapsed time since pass start.
func (pc *PassContext) Duration() time.Duration {
	return time.Since(pc.StartTime)
}
