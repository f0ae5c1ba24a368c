package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kgrouter/internal/mcpclient"
	"kgrouter/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/singleflight"
)

// State is the lifecycle state of a domain connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

// String makes State satisfy the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultCallTimeout    = 60 * time.Second
)

// Connection owns the client lifecycle for exactly one domain server. It
// connects lazily, reconnects on demand, and converts every failure into a
// structured result so tool handlers never see a transport error.
//
// Concurrent callers awaiting a not-yet-established connection share a single
// in-flight connect attempt through the singleflight group.
type Connection struct {
	name           string
	factory        func() mcpclient.Client
	connectTimeout time.Duration
	callTimeout    time.Duration

	mu     sync.RWMutex
	state  State
	client mcpclient.Client

	connectGroup singleflight.Group
}

// NewConnection creates a cold connection. Zero timeouts select the
// defaults (10s connect, 60s call).
func NewConnection(name string, factory func() mcpclient.Client, connectTimeout, callTimeout time.Duration) *Connection {
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Connection{
		name:           name,
		factory:        factory,
		connectTimeout: connectTimeout,
		callTimeout:    callTimeout,
		state:          StateDisconnected,
	}
}

// Name returns the canonical domain name this connection serves.
func (c *Connection) Name() string {
	return c.name
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connected reports whether the handshake has succeeded and the connection
// is live.
func (c *Connection) Connected() bool {
	return c.State() == StateConnected
}

// Connect establishes the connection if it is not already live. Idempotent:
// a connected connection returns success immediately. A handshake failure
// leaves the connection in StateFailed, from which the next Connect retries.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.RLock()
	if c.state == StateConnected {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	_, err, _ := c.connectGroup.Do("connect", func() (interface{}, error) {
		return nil, c.connect(ctx)
	})
	return err
}

func (c *Connection) connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	cli := c.factory()
	c.mu.Unlock()

	connectCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	if err := cli.Initialize(connectCtx); err != nil {
		c.mu.Lock()
		c.state = StateFailed
		c.client = nil
		c.mu.Unlock()
		logging.Error("Connection", err, "Failed to connect to %s domain", c.name)
		return fmt.Errorf("connecting to %s domain: %w", c.name, err)
	}

	c.mu.Lock()
	c.client = cli
	c.state = StateConnected
	c.mu.Unlock()

	logging.Info("Connection", "Connected to %s domain", c.name)
	return nil
}

// Disconnect closes the transport if one is live. No-op when not connected.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	cli := c.client
	c.client = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if cli == nil {
		return nil
	}
	if err := cli.Close(); err != nil {
		logging.Warn("Connection", "Error closing %s domain connection: %v", c.name, err)
		return err
	}
	return nil
}

// CallTool forwards a tool call to the domain server, connecting first when
// needed. It never returns a Go error: connect and call failures come back
// as a result with IsError set, so handlers can treat the return value as
// authoritative.
func (c *Connection) CallTool(ctx context.Context, name string, args map[string]interface{}) *mcp.CallToolResult {
	if err := c.Connect(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to connect to %s domain: %v", c.name, err))
	}

	c.mu.RLock()
	cli := c.client
	c.mu.RUnlock()
	if cli == nil {
		// Disconnect raced with our connect.
		return mcp.NewToolResultError(fmt.Sprintf("Connection to %s domain was closed", c.name))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	result, err := cli.CallTool(callCtx, name, args)
	if err != nil {
		logging.Error("Connection", err, "Tool call %s failed on %s domain", name, c.name)
		return mcp.NewToolResultError(fmt.Sprintf("Error calling %s on %s domain: %v", name, c.name, err))
	}
	return result
}

// ReadResource reads a resource from the domain server with the same
// reconnect-then-call contract as CallTool. Failures come back as a single
// text content carrying an inline error string.
func (c *Connection) ReadResource(ctx context.Context, uri string) []mcp.ResourceContents {
	errContents := func(msg string) []mcp.ResourceContents {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: uri, MIMEType: "text/plain", Text: msg},
		}
	}

	if err := c.Connect(ctx); err != nil {
		return errContents(fmt.Sprintf("Error: failed to connect to %s domain: %v", c.name, err))
	}

	c.mu.RLock()
	cli := c.client
	c.mu.RUnlock()
	if cli == nil {
		return errContents(fmt.Sprintf("Error: connection to %s domain was closed", c.name))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	result, err := cli.ReadResource(callCtx, uri)
	if err != nil {
		logging.Error("Connection", err, "Resource read %s failed on %s domain", uri, c.name)
		return errContents(fmt.Sprintf("Error reading %s from %s domain: %v", uri, c.name, err))
	}
	return result.Contents
}

// ListTools lists the domain server's tools, connecting first when needed.
// Unlike CallTool this propagates the error; the only caller uses it for the
// listAllEntities fallback decision and for the check command.
func (c *Connection) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	cli := c.client
	c.mu.RUnlock()
	if cli == nil {
		return nil, fmt.Errorf("connection to %s domain was closed", c.name)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	return cli.ListTools(callCtx)
}

// Ping checks whether the domain server is responsive. Connects first when
// needed.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	c.mu.RLock()
	cli := c.client
	c.mu.RUnlock()
	if cli == nil {
		return fmt.Errorf("connection to %s domain was closed", c.name)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	return cli.Ping(callCtx)
}
