package config

import "fmt"

const (
	// TransportStreamableHTTP is the streamable HTTP transport.
	TransportStreamableHTTP = "streamable-http"
	// TransportSSE is the Server-Sent Events transport.
	TransportSSE = "sse"
	// TransportStdio is the standard I/O transport.
	TransportStdio = "stdio"
)

// Config is the top-level configuration structure for kgrouter.
type Config struct {
	Router  RouterConfig   `yaml:"router"`
	Domains []DomainConfig `yaml:"domains,omitempty"`
}

// RouterConfig defines the configuration for the router's own MCP endpoint.
type RouterConfig struct {
	Host      string `yaml:"host,omitempty"`      // Host to bind to for network transports (default: localhost)
	Port      int    `yaml:"port,omitempty"`      // Port for network transports (default: 8587)
	Transport string `yaml:"transport,omitempty"` // stdio, sse or streamable-http (default: stdio)

	// DescriptionsDir is the directory holding per-domain tool description
	// files, laid out as <dir>/<domain>/<tool>.txt.
	DescriptionsDir string `yaml:"descriptionsDir,omitempty"`

	// DescriptionRefresh controls whether tool descriptions are re-registered
	// with domain-specific text on every active-domain change (default: true).
	DescriptionRefresh *bool `yaml:"descriptionRefresh,omitempty"`

	// ListAllEntities controls whether the listAllEntities tool is exposed
	// (default: true).
	ListAllEntities *bool `yaml:"listAllEntities,omitempty"`

	// ConnectTimeoutSeconds bounds the MCP handshake with a domain server
	// (default: 10).
	ConnectTimeoutSeconds int `yaml:"connectTimeoutSeconds,omitempty"`

	// CallTimeoutSeconds bounds each forwarded tool call (default: 60).
	CallTimeoutSeconds int `yaml:"callTimeoutSeconds,omitempty"`
}

// DescriptionRefreshEnabled reports whether dynamic tool description refresh
// is enabled. Unset means enabled.
func (r RouterConfig) DescriptionRefreshEnabled() bool {
	return r.DescriptionRefresh == nil || *r.DescriptionRefresh
}

// ListAllEntitiesEnabled reports whether the listAllEntities tool is exposed.
// Unset means enabled.
func (r RouterConfig) ListAllEntitiesEnabled() bool {
	return r.ListAllEntities == nil || *r.ListAllEntities
}

// DomainConfig describes one knowledge-graph domain server: its identity,
// entity-type vocabulary and connection recipe. Exactly one recipe must be
// set: a subprocess command, or a host/port for a streamable HTTP endpoint.
type DomainConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	EntityTypes []string `yaml:"entityTypes,omitempty"`

	// Subprocess recipe: the domain server is spawned as a child process and
	// reached over its stdin/stdout.
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	// Network recipe: the domain server is reached over streamable HTTP.
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// HasCommand reports whether the subprocess recipe is configured.
func (d DomainConfig) HasCommand() bool {
	return d.Command != ""
}

// HasNetwork reports whether the network recipe is configured.
func (d DomainConfig) HasNetwork() bool {
	return d.Host != "" && d.Port != 0
}

// URL composes the streamable HTTP endpoint URL from the network recipe.
func (d DomainConfig) URL() string {
	path := d.Path
	if path == "" {
		path = "/mcp"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	return fmt.Sprintf("http://%s:%d%s", d.Host, d.Port, path)
}
