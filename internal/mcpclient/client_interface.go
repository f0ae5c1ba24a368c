package mcpclient

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// protocolVersion is the MCP protocol revision spoken to domain servers.
const protocolVersion = "2024-11-05"

// Client is the transport-agnostic view of one domain server connection.
// Implementations are created cold; Initialize performs the transport setup
// and MCP handshake.
type Client interface {
	// Initialize establishes the connection and performs the MCP handshake.
	// Calling it on an already-initialized client is an error; lifecycle
	// idempotency lives one level up, in domain.Connection.
	Initialize(ctx context.Context) error

	// Close shuts the transport down. Safe to call on a never-initialized
	// client.
	Close() error

	// CallTool executes a tool on the domain server.
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)

	// ReadResource retrieves a resource from the domain server.
	ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error)

	// ListTools returns the tools the domain server advertises.
	ListTools(ctx context.Context) ([]mcp.Tool, error)

	// Ping checks whether the domain server is responsive.
	Ping(ctx context.Context) error
}
