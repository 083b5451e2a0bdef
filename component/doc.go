// Package component defines the core interfaces for lifecycle-managed
// services in the evaluation engine.
//
// Components represent services that require startup, shutdown, and
// health monitoring, such as the inspection server. They are registered
// with a Registry for deterministic start/stop ordering.
//
// # Interfaces
//
//   - Component: Core lifecycle interface (Start/Stop/Health)
//   - Describable: Startup summary descriptions
//   - RouteProvider: HTTP route reporting for the startup summary
package component
