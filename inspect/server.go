package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/evalgraph/engine"
	"github.com/kbukum/evalgraph/errors"
	"github.com/kbukum/evalgraph/eval"
	"github.com/kbukum/evalgraph/logger"
	"github.com/kbukum/evalgraph/observability"
	"github.com/kbukum/evalgraph/version"
)

// Options configures the inspection server.
type Options struct {
	// Addr is the listen address, e.g. "localhost:8090".
	Addr string
	// Prefix is the URL prefix for inspection routes, e.g. "/inspect".
	Prefix string
	// ServiceName is reported by the health endpoint.
	ServiceName string
	// Metrics, when set, records pass metrics for evaluations triggered
	// through the HTTP API.
	Metrics *observability.Metrics
}

// Server exposes an evaluator over HTTP.
type Server struct {
	ev   *engine.Evaluator
	hub  *Hub
	opts Options
	log  *logger.Logger

	httpServer *http.Server
	wg         sync.WaitGroup
}

// NewServer creates an inspection server for the given evaluator. Pass
// events are forwarded to the SSE stream automatically.
func NewServer(ev *engine.Evaluator, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "localhost:8090"
	}
	if opts.Prefix == "" {
		opts.Prefix = "/inspect"
	}
	opts.Prefix = strings.TrimRight(opts.Prefix, "/")
	if opts.ServiceName == "" {
		opts.ServiceName = "evalgraph"
	}

	s := &Server{
		ev:   ev,
		hub:  NewHub(),
		opts: opts,
		log:  logger.WithComponent("inspect"),
	}
	ev.Subscribe(NewPublisher(s.hub).Listen)
	return s
}

// Hub returns the underlying event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler serving all inspection routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+s.opts.Prefix+"/events", s.handleEvents)
	mux.HandleFunc("GET "+s.opts.Prefix+"/nodes", s.handleNodes)
	mux.HandleFunc("GET "+s.opts.Prefix+"/graph", s.handleGraph)
	mux.HandleFunc("POST "+s.opts.Prefix+"/eval", s.handleEval)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	reg := logger.ComponentRegistryInstance
	reg.SetAPIPrefix(s.opts.Prefix)
	reg.RegisterHandler("GET", s.opts.Prefix+"/events", "EventsHandler")
	reg.RegisterHandler("GET", s.opts.Prefix+"/nodes", "NodesHandler")
	reg.RegisterHandler("GET", s.opts.Prefix+"/graph", "GraphHandler")
	reg.RegisterHandler("POST", s.opts.Prefix+"/eval", "EvalHandler")
	reg.RegisterHandler("GET", "/healthz", "HealthHandler")

	return mux
}

// Start begins serving in a background goroutine.
func (s *Server) Start(_ context.Context) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run()
	}()

	s.httpServer = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("inspection server listening", logger.Fields(
			"addr", s.opts.Addr,
			"prefix", s.opts.Prefix,
		))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("inspection server failed", logger.Fields("error", err.Error()))
		}
	}()
	return nil
}

// Stop shuts down the HTTP server and the hub.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.hub.Stop()
	s.wg.Wait()
	return err
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ServeStream(s.hub, w, r)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": s.ev.Snapshot(),
	})
}

// graphNode is the JSON shape of a single node query.
type graphNode struct {
	Key         string   `json:"key"`
	Value       any      `json:"value,omitempty"`
	Error       string   `json:"error,omitempty"`
	DirectDeps  []string `json:"direct_deps"`
	ReverseDeps []string `json:"reverse_deps"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	key, evalErr := parseKey(r.URL.Query().Get("key"))
	if evalErr != nil {
		writeError(w, evalErr)
		return
	}

	graph := s.ev.Graph()
	if !graph.Done(key) {
		writeError(w, errors.NotFound("node", key.String()))
		return
	}

	ctx := r.Context()
	node := graphNode{Key: key.String()}

	if value, err := graph.Value(ctx, key); err == nil && value != nil {
		node.Value = value
	}
	if errInfo, err := graph.Error(ctx, key); err == nil && errInfo != nil {
		node.Error = errInfo.Error()
	}

	deps, err := graph.DirectDeps(ctx, key)
	if err != nil {
		writeError(w, toEvalError(err))
		return
	}
	rdeps, err := graph.ReverseDeps(ctx, key)
	if err != nil {
		writeError(w, toEvalError(err))
		return
	}

	node.DirectDeps = keyStrings(deps)
	node.ReverseDeps = keyStrings(rdeps)
	writeJSON(w, http.StatusOK, node)
}

// evalResponse is the JSON shape of a triggered pass outcome.
type evalResponse struct {
	HasError    bool              `json:"has_error"`
	Catastrophe string            `json:"catastrophe,omitempty"`
	Values      map[string]any    `json:"values"`
	Errors      map[string]string `json:"errors"`
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	rawKeys := r.URL.Query()["key"]
	if len(rawKeys) == 0 {
		writeError(w, errors.MissingField("key"))
		return
	}

	roots := make([]eval.Key, 0, len(rawKeys))
	for _, raw := range rawKeys {
		key, evalErr := parseKey(raw)
		if evalErr != nil {
			writeError(w, evalErr)
			return
		}
		roots = append(roots, key)
	}

	pc := observability.NewPassContext(s.opts.ServiceName, uuid.NewString(), len(roots), s.opts.Metrics)
	ctx, span := pc.StartSpanForPass(r.Context())

	result, err := s.ev.Eval(ctx, roots...)
	if err != nil {
		pc.EndPass(ctx, span, "error", err)
		writeError(w, toEvalError(err))
		return
	}
	status := "ok"
	if result.HasError() {
		status = "error"
	}
	pc.EndPass(ctx, span, status, nil)

	resp := evalResponse{
		HasError: result.HasError(),
		Values:   make(map[string]any),
		Errors:   make(map[string]string),
	}
	if result.Catastrophe() != nil {
		resp.Catastrophe = result.Catastrophe().Error()
	}
	for _, root := range roots {
		if value, ok := result.Get(root); ok {
			resp.Values[keyLabel(root)] = value
		}
	}
	for key, errInfo := range result.ErrorMap() {
		resp.Errors[keyLabel(key)] = errInfo.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sh := observability.NewServiceHealth(s.opts.ServiceName, version.Version)
	sh.AddComponent(observability.Health{
		Name:   "engine",
		Status: observability.HealthStatusUp,
	})
	sh.AddComponent(observability.Health{
		Name:   "inspect",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"watchers": strconv.Itoa(s.hub.WatcherCount()),
		},
	})

	status := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, sh)
}

// parseKey converts a "kind:name" query value into a key.
func parseKey(raw string) (eval.NamedKey, *errors.EvalError) {
	if raw == "" {
		return eval.NamedKey{}, errors.MissingField("key")
	}
	kind, name, ok := strings.Cut(raw, ":")
	if !ok || kind == "" || name == "" {
		return eval.NamedKey{}, errors.InvalidInput("key", "must have the form kind:name")
	}
	return eval.NewKey(kind, name), nil
}

func keyStrings(keys []eval.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = keyLabel(k)
	}
	return out
}

func keyLabel(k eval.Key) string {
	if s, ok := k.Argument().(string); ok {
		return k.Kind() + ":" + s
	}
	return k.Kind()
}

func toEvalError(err error) *errors.EvalError {
	if evalErr, ok := errors.AsEvalError(err); ok {
		return evalErr
	}
	return errors.Internal(err)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, evalErr *errors.EvalError) {
	status := evalErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, evalErr.ToResponse())
}
