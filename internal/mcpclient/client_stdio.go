package mcpclient

import (
	"context"
	"fmt"

	"kgrouter/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// StdioClient reaches a domain server by spawning it as a child process and
// speaking MCP over its stdin/stdout.
type StdioClient struct {
	clientName string
	command    string
	args       []string
	env        map[string]string
	client     client.MCPClient
}

// NewStdioClient creates a cold stdio client. The process is not spawned
// until Initialize.
func NewStdioClient(clientName, command string, args []string, env map[string]string) *StdioClient {
	return &StdioClient{
		clientName: clientName,
		command:    command,
		args:       args,
		env:        env,
	}
}

// Initialize spawns the child process and performs the MCP handshake.
func (c *StdioClient) Initialize(ctx context.Context) error {
	if c.client != nil {
		return fmt.Errorf("stdio client already initialized")
	}

	logging.Debug("StdioClient", "Spawning %s %v", c.command, c.args)

	var envStrings []string
	for k, v := range c.env {
		envStrings = append(envStrings, fmt.Sprintf("%s=%s", k, v))
	}

	mcpClient, err := client.NewStdioMCPClient(c.command, envStrings, c.args...)
	if err != nil {
		return fmt.Errorf("failed to spawn %s: %w", c.command, err)
	}

	if _, err := mcpClient.Initialize(ctx, initializeRequest(c.clientName)); err != nil {
		// Close to reap the spawned process.
		if closeErr := mcpClient.Close(); closeErr != nil {
			logging.Debug("StdioClient", "Error closing failed client for %s: %v", c.command, closeErr)
		}
		return fmt.Errorf("failed to initialize MCP protocol: %w", err)
	}

	c.client = mcpClient
	return nil
}

// Close terminates the child process.
func (c *StdioClient) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// CallTool executes a tool on the domain server.
func (c *StdioClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
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
func (c *StdioClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
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
func (c *StdioClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
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
func (c *StdioClient) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("client not connected")
	}
	return c.client.Ping(ctx)
}
