package engine

import (
	"context"
	"time"

	"github.com/kbukum/evalgraph/eval"
	"github.com/kbukum/evalgraph/logger"
	"github.com/kbukum/evalgraph/observability"
)

// WithTracing wraps a Func with OpenTelemetry span creation.
// Each computation creates a span named "{prefix}.{kind}".
func WithTracing(fn Func, prefix string) Func {
	return &tracingFunc{inner: fn, prefix: prefix}
}

type tracingFunc struct {
	inner  Func
	prefix string
}

func (f *tracingFunc) Compute(ctx context.Context, key eval.Key, env Env) (eval.Value, error) {
	spanName := f.prefix + "." + key.Kind()
	ctx, span := observability.StartSpan(ctx, spanName)
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrKey, keyString(key))
	observability.SetSpanAttribute(ctx, observability.AttrKind, key.Kind())
	observability.SetSpanAttribute(ctx, observability.AttrPassID, env.PassID())

	value, err := f.inner.Compute(ctx, key, env)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}

	return value, err
}

// WithMetrics wraps a Func with metric recording.
// Records computation count, duration, and errors per kind.
func WithMetrics(fn Func, metrics *observability.Metrics) Func {
	return &metricsFunc{inner: fn, metrics: metrics}
}

type metricsFunc struct {
	inner   Func
	metrics *observability.Metrics
}

func (f *metricsFunc) Compute(ctx context.Context, key eval.Key, env Env) (eval.Value, error) {
	start := time.Now()
	value, err := f.inner.Compute(ctx, key, env)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		f.metrics.RecordError(ctx, "compute", key.Kind())
	}
	f.metrics.RecordNode(ctx, key.Kind(), status, duration)

	return value, err
}

// WithLogging wraps a Func with computation logging.
// Logs: key, duration, and success/error status.
func WithLogging(fn Func, log *logger.Logger) Func {
	return &loggingFunc{inner: fn, log: log}
}

type loggingFunc struct {
	inner Func
	log   *logger.Logger
}

func (f *loggingFunc) Compute(ctx context.Context, key eval.Key, env Env) (eval.Value, error) {
	start := time.Now()
	value, err := f.inner.Compute(ctx, key, env)
	duration := time.Since(start)

	fields := map[string]interface{}{
		"key":      keyString(key),
		"duration": duration.String(),
	}

	if err != nil {
		fields["error"] = err.Error()
		f.log.Error("node computation failed", fields)
	} else {
		f.log.Debug("node computation completed", fields)
	}

	return value, err
}

// MetricsListener returns a pass-event listener that records cache hits
// and retries, which the Func middleware cannot see because memoized and
// retried nodes never reach the wrapped function.
func MetricsListener(metrics *observability.Metrics) Listener {
	return func(ev Event) {
		ctx := context.Background()
		switch ev.Type {
		case EventNodeCached, EventNodePruned:
			metrics.RecordCacheHit(ctx, ev.Kind)
		case EventNodeRetried:
			metrics.RecordRetry(ctx, ev.Kind)
		}
	}
}
