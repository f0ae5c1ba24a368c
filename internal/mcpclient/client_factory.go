package mcpclient

import (
	"fmt"

	"kgrouter/internal/config"

	"github.com/mark3labs/mcp-go/mcp"
)

// NewForDomain builds a cold client from a domain's connection recipe. The
// client identity is scoped to the domain so downstream logs can tell the
// router's connections apart.
func NewForDomain(d config.DomainConfig) Client {
	clientName := fmt.Sprintf("kgrouter-%s", d.Name)
	if d.HasCommand() {
		return NewStdioClient(clientName, d.Command, d.Args, d.Env)
	}
	return NewStreamableHTTPClient(clientName, d.URL())
}

// initializeRequest builds the MCP handshake request for a router-side
// client identity.
func initializeRequest(clientName string) mcp.InitializeRequest {
	return mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: protocolVersion,
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}
}

func callToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: struct {
			Name      string    `json:"name"`
			Arguments any       `json:"arguments,omitempty"`
			Meta      *mcp.Meta `json:"_meta,omitempty"`
		}{
			Name:      name,
			Arguments: args,
		},
	}
}

func readResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: struct {
			URI       string         `json:"uri"`
			Arguments map[string]any `json:"arguments,omitempty"`
		}{
			URI: uri,
		},
	}
}
