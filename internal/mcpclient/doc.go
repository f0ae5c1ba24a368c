// Package mcpclient provides the outbound MCP client transports the router
// uses to reach domain servers: a stdio transport that spawns the domain
// server as a child process, and a streamable HTTP transport for domains
// running as network services.
//
// Clients are created cold and perform no I/O until Initialize. Connection
// lifecycle (lazy connect, reconnect-on-demand, error-as-value conversion)
// is the responsibility of domain.Connection, not of this package.
package mcpclient
