package mcpclient

import (
	"context"
	"fmt"

	"kgrouter/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// StreamableHTTPClient reaches a domain server over a streamable HTTP
// endpoint.
type StreamableHTTPClient struct {
	clientName string
	url        string
	client     client.MCPClient
}

// NewStreamableHTTPClient creates a cold streamable-HTTP client.
func NewStreamableHTTPClient(clientName, url string) *StreamableHTTPClient {
	return &StreamableHTTPClient{
		clientName: clientName,
		url:        url,
	}
}

// Initialize opens the HTTP transport and performs the MCP handshake.
func (c *StreamableHTTPClient) Initialize(ctx context.Context) error {
	if c.client != nil {
		return fmt.Errorf("streamable HTTP client already initialized")
	}

	logging.Debug("StreamableHTTPClient", "Connecting to %s", c.url)

	mcpClient, err := client.NewStreamableHttpClient(c.url)
	if err != nil {
		return fmt.Errorf("failed to create streamable HTTP client: %w", err)
	}

	initResult, err := mcpClient.Initialize(ctx, initializeRequest(c.clientName))
	if err != nil {
		if closeErr := mcpClient.Close(); closeErr != nil {
			logging.Debug("StreamableHTTPClient", "Error closing failed client for %s: %v", c.url, closeErr)
		}
		return fmt.Errorf("failed to initialize MCP protocol: %w", err)
	}

	logging.Debug("StreamableHTTPClient", "Connected to %s (%s %s)",
		c.url, initResult.ServerInfo.Name, initResult.ServerInfo.Version)

	c.client = mcpClient
	return nil
}

// Close shuts down the HTTP transport.
func (c *StreamableHTTPClient) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// CallTool executes a tool on the domain server.
func (c *StreamableHTTPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}
	result, err := c.client.CallTool(ctx, callToolRequest(name, args))
	if err != nil {
		return nil, fmt.Errorf("failed to call tool: %w", err)
	}
	return result, nil
}

// ReadResource retrieves a resource from the domain server.
func (c *StreamableHTTPClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}
	result, err := c.client.ReadResource(ctx, readResourceRequest(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to read resource: %w", err)
	}
	return result, nil
}

// ListTools returns the tools the domain server advertises.
func (c *StreamableHTTPClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return result.Tools, nil
}

// Ping checks whether the domain server is responsive.
func (c *StreamableHTTPClient) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("client not connected")
	}
	return c.client.Ping(ctx)
}
