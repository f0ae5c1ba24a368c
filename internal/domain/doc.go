// Package domain holds the registry of knowledge-graph domains and the
// per-domain connection lifecycle.
//
// A Registry is built once at startup from configuration and never mutated.
// Each entry owns one Connection, an explicit state machine over
// {disconnected, connecting, connected, failed} that connects lazily on the
// first call, shares concurrent connect attempts through a singleflight
// guard, and converts every transport failure into a structured tool result
// so the routing layer never handles exceptions from downstream domains.
package domain
