package inspect

import (
	"context"
	"fmt"

	"github.com/kbukum/evalgraph/component"
)

// ensure Server satisfies component.Component and its optional interfaces.
var (
	_ component.Component     = (*Server)(nil)
	_ component.Describable   = (*Server)(nil)
	_ component.RouteProvider = (*Server)(nil)
)

// Name returns the component name.
func (s *Server) Name() string { return "inspect" }

// Health returns the health status of the inspection server.
func (s *Server) Health(_ context.Context) component.Health {
	return component.Health{
		Name:    s.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d watchers connected", s.hub.WatcherCount()),
	}
}

// Describe returns startup summary info.
func (s *Server) Describe() component.Description {
	return component.Description{
		Name:    "Inspection Server",
		Type:    "server",
		Details: fmt.Sprintf("%s prefix=%s", s.opts.Addr, s.opts.Prefix),
	}
}

// Routes reports the HTTP routes for the startup summary.
func (s *Server) Routes() []component.Route {
	return []component.Route{
		{Method: "GET", Path: s.opts.Prefix + "/events", Handler: "EventsHandler"},
		{Method: "GET", Path: s.opts.Prefix + "/nodes", Handler: "NodesHandler"},
		{Method: "GET", Path: s.opts.Prefix + "/graph", Handler: "GraphHandler"},
		{Method: "POST", Path: s.opts.Prefix + "/eval", Handler: "EvalHandler"},
		{Method: "GET", Path: "/healthz", Handler: "HealthHandler"},
	}
}
