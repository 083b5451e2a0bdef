// Package observability provides OpenTelemetry tracing and metrics
// integration for evaluation passes and node computations.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-evaluator"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanEvalPass)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-evaluator"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("my-evaluator"))
//	metrics.RecordNode(ctx, "file", "ok", duration)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("my-evaluator", "1.0.0")
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
