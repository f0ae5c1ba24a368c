package router

import (
	"strings"
	"sync"

	"kgrouter/internal/domain"
	"kgrouter/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// Router holds the mutable routing state shared by all tool handlers: the
// immutable domain registry, the session table, and the process-wide active
// domain pointer. The active domain and session table are only written under
// the router's mutex, preserving update atomicity under concurrent handler
// execution.
type Router struct {
	registry *domain.Registry
	sessions *SessionTable

	mu           sync.RWMutex
	activeDomain string // canonical domain name, "" until first set

	// onActiveDomainChange, when set, runs after every successful active
	// domain change (tool description refresh hooks in here).
	onActiveDomainChange func(domainName string)
}

// New creates a router over the given registry with an empty session table
// and no active domain.
func New(registry *domain.Registry) *Router {
	return &Router{
		registry: registry,
		sessions: NewSessionTable(),
	}
}

// Registry returns the domain registry.
func (r *Router) Registry() *domain.Registry {
	return r.registry
}

// Sessions returns the session table.
func (r *Router) Sessions() *SessionTable {
	return r.sessions
}

// ActiveDomain returns the canonical name of the active domain, or "" when
// none has been set yet.
func (r *Router) ActiveDomain() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeDomain
}

// SetOnActiveDomainChange installs the active-domain change hook. Must be
// called before the router starts serving.
func (r *Router) SetOnActiveDomainChange(fn func(domainName string)) {
	r.onActiveDomainChange = fn
}

func (r *Router) setActiveDomain(name string) {
	r.mu.Lock()
	changed := r.activeDomain != name
	r.activeDomain = name
	r.mu.Unlock()

	if changed {
		logging.Info("Router", "Active domain set to %s", name)
		if r.onActiveDomainChange != nil {
			r.onActiveDomainChange(name)
		}
	}
}

// activeDomainEntry resolves the active domain pointer to its registry
// entry.
func (r *Router) activeDomainEntry() (*domain.Domain, bool) {
	name := r.ActiveDomain()
	if name == "" {
		return nil, false
	}
	return r.registry.Lookup(name)
}

// resultText flattens a tool result's text contents into one string.
func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
