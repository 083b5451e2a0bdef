package engine

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/kbukum/evalgraph/eval"
	"github.com/kbukum/evalgraph/logger"
	"github.com/kbukum/evalgraph/observability"
)

func evalWrapped(t *testing.T, kind string, fn Func) (*eval.Result[eval.Value], eval.Key) {
	t.Helper()
	reg := NewRegistry()
	reg.Register(kind, fn)
	e := New(reg, Options{})
	key := eval.NewKey(kind, "n")
	result, err := e.Eval(context.Background(), key)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	return result, key
}

func TestWithTracing_WrapsFunc(t *testing.T) {
	inner := FuncFn(func(_ context.Context, _ eval.Key, _ Env) (eval.Value, error) {
		return "traced-result", nil
	})

	result, key := evalWrapped(t, "traced", WithTracing(inner, "test"))
	if v, ok := result.Get(key); !ok || v != "traced-result" {
		t.Fatalf("Get = %v, %v; want traced-result", v, ok)
	}
}

func TestWithTracing_PropagatesError(t *testing.T) {
	fnErr := stderrors.New("fail")
	inner := FuncFn(func(_ context.Context, _ eval.Key, _ Env) (eval.Value, error) {
		return nil, fnErr
	})

	result, key := evalWrapped(t, "traced-fail", WithTracing(inner, "test"))
	errInfo := result.Err(key)
	if errInfo == nil {
		t.Fatal("expected the wrapped error to surface")
	}
	if !stderrors.Is(errInfo.Err, fnErr) {
		t.Fatalf("expected wrapped error, got %v", errInfo.Err)
	}
}

func TestWithMetrics_Success(t *testing.T) {
	meter := observability.Meter("engine-test")
	metrics, err := observability.NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	inner := FuncFn(func(_ context.Context, _ eval.Key, _ Env) (eval.Value, error) {
		return "measured", nil
	})

	result, key := evalWrapped(t, "measured", WithMetrics(inner, metrics))
	if v, ok := result.Get(key); !ok || v != "measured" {
		t.Fatalf("Get = %v, %v; want measured", v, ok)
	}
}

func TestWithMetrics_Error(t *testing.T) {
	meter := observability.Meter("engine-test")
	metrics, err := observability.NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	fnErr := stderrors.New("metrics-fail")
	inner := FuncFn(func(_ context.Context, _ eval.Key, _ Env) (eval.Value, error) {
		return nil, fnErr
	})

	result, key := evalWrapped(t, "measured-fail", WithMetrics(inner, metrics))
	errInfo := result.Err(key)
	if errInfo == nil || !stderrors.Is(errInfo.Err, fnErr) {
		t.Fatalf("expected wrapped error, got %v", errInfo)
	}
}

func TestWithLogging_Success(t *testing.T) {
	log := logger.WithComponent("engine-test")
	inner := FuncFn(func(_ context.Context, _ eval.Key, _ Env) (eval.Value, error) {
		return "logged", nil
	})

	result, key := evalWrapped(t, "logged", WithLogging(inner, log))
	if v, ok := result.Get(key); !ok || v != "logged" {
		t.Fatalf("Get = %v, %v; want logged", v, ok)
	}
}

func TestMetricsListener_ObservesCachedNodes(t *testing.T) {
	meter := observability.Meter("engine-test")
	metrics, err := observability.NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	reg := NewRegistry()
	reg.RegisterFunc("listened", func(_ context.Context, _ eval.Key, _ Env) (eval.Value, error) {
		return "value", nil
	})
	e := New(reg, Options{})
	e.Subscribe(MetricsListener(metrics))

	var cached int
	e.Subscribe(func(ev Event) {
		if ev.Type == EventNodeCached {
			cached++
		}
	})

	key := eval.NewKey("listened", "n")
	ctx := context.Background()
	if _, err := e.Eval(ctx, key); err != nil {
		t.Fatalf("first eval failed: %v", err)
	}
	result, err := e.Eval(ctx, key)
	if err != nil {
		t.Fatalf("second eval failed: %v", err)
	}
	if v, ok := result.Get(key); !ok || v != "value" {
		t.Fatalf("Get = %v, %v; want value", v, ok)
	}
	if cached == 0 {
		t.Fatal("expected the second pass to reuse the memoized node")
	}
}
