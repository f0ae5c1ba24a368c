package domain

import (
	"strings"
	"time"

	"kgrouter/internal/config"
	"kgrouter/internal/mcpclient"
	"kgrouter/pkg/logging"
)

// ClientFactory builds a cold MCP client for a domain. Injected so tests can
// substitute fakes for real transports.
type ClientFactory func(config.DomainConfig) mcpclient.Client

// Domain pairs a registry entry with the connection that owns its domain
// server. The router exclusively owns every Domain; connections are never
// shared or pooled across logical identities.
type Domain struct {
	Info       config.DomainConfig
	Connection *Connection
}

// Registry is the static list of known domains. It is built once at startup
// and immutable thereafter; lookups are case-insensitive and return the
// canonical-cased entry.
type Registry struct {
	domains []*Domain
	byName  map[string]*Domain
}

// NewRegistry builds a registry from validated domain configs. Connections
// are created cold; nothing is dialed until a tool call needs a domain.
func NewRegistry(cfgs []config.DomainConfig, factory ClientFactory, connectTimeout, callTimeout time.Duration) *Registry {
	r := &Registry{
		byName: make(map[string]*Domain, len(cfgs)),
	}
	for _, cfg := range cfgs {
		cfg := cfg
		d := &Domain{
			Info: cfg,
			Connection: NewConnection(cfg.Name, func() mcpclient.Client {
				return factory(cfg)
			}, connectTimeout, callTimeout),
		}
		r.domains = append(r.domains, d)
		r.byName[strings.ToLower(cfg.Name)] = d
	}
	return r
}

// Lookup finds a domain by name, case-insensitively.
func (r *Registry) Lookup(name string) (*Domain, bool) {
	d, ok := r.byName[strings.ToLower(name)]
	return d, ok
}

// Domains returns all entries in configuration order.
func (r *Registry) Domains() []*Domain {
	return r.domains
}

// Names returns the canonical domain names in configuration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.domains))
	for _, d := range r.domains {
		names = append(names, d.Info.Name)
	}
	return names
}

// DisconnectAll closes every live connection. Close errors are logged, not
// propagated; used during shutdown.
func (r *Registry) DisconnectAll() {
	for _, d := range r.domains {
		if err := d.Connection.Disconnect(); err != nil {
			logging.Warn("Registry", "Error disconnecting %s domain: %v", d.Info.Name, err)
		}
	}
}
