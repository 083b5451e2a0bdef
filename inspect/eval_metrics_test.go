package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/evalgraph/engine"
	"github.com/kbukum/evalgraph/eval"
	"github.com/kbukum/evalgraph/observability"
)

func TestServer_EvalRecordsPassMetrics(t *testing.T) {
	metrics, err := observability.NewMetrics(observability.Meter("inspect-test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	reg := engine.NewRegistry()
	reg.RegisterFunc("leaf", func(_ context.Context, _ eval.Key, _ Env) (eval.Value, error) {
		return "leaf-value", nil
	})
	ev := engine.New(reg, engine.Options{})
	srv := NewServer(ev, Options{ServiceName: "test-evaluator", Metrics: metrics})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/inspect/eval?key=leaf:l", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body evalResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.HasError {
		t.Fatalf("unexpected errors: %v", body.Errors)
	}
	if body.Values["leaf:l"] != "leaf-value" {
		t.Fatalf("values = %v, want leaf:l=leaf-value", body.Values)
	}
}
