package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/evalgraph/engine"
	"github.com/kbukum/evalgraph/eval"
)

func newTestServer(t *testing.T) (*Server, *engine.Evaluator) {
	t.Helper()

	reg := engine.NewRegistry()
	reg.RegisterFunc("leaf", func(ctx context.Context, key eval.Key, env Env) (eval.Value, error) {
		return "leaf-value", nil
	})
	reg.RegisterFunc("top", func(ctx context.Context, key eval.Key, env Env) (eval.Value, error) {
		if _, err := env.Dep(ctx, eval.NewKey("leaf", "l")); err != nil {
			return nil, err
		}
		return "top-value", nil
	})

	ev := engine.New(reg, engine.Options{})
	srv := NewServer(ev, Options{ServiceName: "test-evaluator"})
	return srv, ev
}

// Env aliases the engine interface so closures above stay short.
type Env = engine.Env

func TestServer_Nodes(t *testing.T) {
	srv, ev := newTestServer(t)
	if _, err := ev.Eval(context.Background(), eval.NewKey("top", "t")); err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/inspect/nodes")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Nodes []engine.NodeInfo `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(body.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(body.Nodes))
	}
	for _, n := range body.Nodes {
		if !n.Done {
			t.Errorf("node %s should be done", n.Key)
		}
	}
}

func TestServer_Graph(t *testing.T) {
	srv, ev := newTestServer(t)
	if _, err := ev.Eval(context.Background(), eval.NewKey("top", "t")); err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/inspect/graph?key=leaf:l")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var node graphNode
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if node.Key != "leaf:l" {
		t.Errorf("expected key 'leaf:l', got %q", node.Key)
	}
	if node.Value != "leaf-value" {
		t.Errorf("expected value 'leaf-value', got %v", node.Value)
	}
	if len(node.ReverseDeps) != 1 || node.ReverseDeps[0] != "top:t" {
		t.Errorf("expected reverse dep [top:t], got %v", node.ReverseDeps)
	}
}

func TestServer_Graph_MissingKey(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/inspect/graph")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing key, got %d", resp.StatusCode)
	}
}

func TestServer_Graph_MalformedKey(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/inspect/graph?key=no-colon")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed key, got %d", resp.StatusCode)
	}
}

func TestServer_Graph_UnknownKey(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/inspect/graph?key=leaf:never-evaluated")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown node, got %d", resp.StatusCode)
	}
}

func TestServer_Eval(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/inspect/eval?key=top:t", "application/json", http.NoBody)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body evalResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.HasError {
		t.Errorf("unexpected errors: %v", body.Errors)
	}
	if body.Values["top:t"] != "top-value" {
		t.Errorf("expected value 'top-value', got %v", body.Values["top:t"])
	}
}

func TestServer_Eval_NoKeys(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/inspect/eval", "application/json", http.NoBody)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing keys, got %d", resp.StatusCode)
	}
}

func TestServer_ComponentLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	if srv.Name() != "inspect" {
		t.Errorf("expected name 'inspect', got %q", srv.Name())
	}

	desc := srv.Describe()
	if desc.Type != "server" {
		t.Errorf("expected type 'server', got %q", desc.Type)
	}
	if !strings.Contains(desc.Details, "/inspect") {
		t.Errorf("expected prefix in details, got %q", desc.Details)
	}

	routes := srv.Routes()
	if len(routes) != 5 {
		t.Errorf("expected 5 routes, got %d", len(routes))
	}

	health := srv.Health(context.Background())
	if health.Status != "healthy" {
		t.Errorf("expected 'healthy', got %q", health.Status)
	}
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Service string `json:"service"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Service != "test-evaluator" {
		t.Errorf("expected service 'test-evaluator', got %q", body.Service)
	}
	if body.Status != "up" {
		t.Errorf("expected status 'up', got %q", body.Status)
	}
}

func TestServer_EventStream(t *testing.T) {
	srv, ev := newTestServer(t)
	go srv.hub.Run()
	defer srv.hub.Stop()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/inspect/events?pattern=pass_*", http.NoBody)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return // timeout is ok for a stream
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected Content-Type 'text/event-stream', got %q", ct)
	}

	// Read the initial subscribed frame.
	buf := make([]byte, 4096)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "subscribed") {
		t.Errorf("expected subscribed event, got %q", string(buf[:n]))
	}

	// Trigger a pass so the stream carries real events.
	time.Sleep(20 * time.Millisecond)
	if _, err := ev.Eval(context.Background(), eval.NewKey("leaf", "stream")); err != nil {
		t.Fatalf("eval failed: %v", err)
	}

	n, _ = resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "pass_started") {
		t.Errorf("expected pass_started event, got %q", string(buf[:n]))
	}
}

func TestPublisher_Listen(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	w := NewWatcher("w-1", "node_*")
	hub.Register(w)
	time.Sleep(10 * time.Millisecond)

	pub := NewPublisher(hub)
	pub.Listen(engine.Event{Type: engine.EventNodeComputed, PassID: "p-1", Key: "leaf:l", Kind: "leaf"})
	time.Sleep(10 * time.Millisecond)

	select {
	case msg := <-w.Events():
		var got engine.Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if got.Type != engine.EventNodeComputed || got.Key != "leaf:l" {
			t.Errorf("unexpected event: %+v", got)
		}
	default:
		t.Error("watcher should have received the published event")
	}
}

func TestParseKey(t *testing.T) {
	key, evalErr := parseKey("file:src/main.go")
	if evalErr != nil {
		t.Fatalf("unexpected error: %v", evalErr)
	}
	if key.Kind() != "file" {
		t.Errorf("expected kind 'file', got %q", key.Kind())
	}
	if key.Argument() != "src/main.go" {
		t.Errorf("expected argument 'src/main.go', got %v", key.Argument())
	}

	if _, evalErr := parseKey(""); evalErr == nil {
		t.Error("expected error for empty key")
	}
	if _, evalErr := parseKey("no-colon"); evalErr == nil {
		t.Error("expected error for key without separator")
	}
	if _, evalErr := parseKey(":name"); evalErr == nil {
		t.Error("expected error for empty kind")
	}
}
