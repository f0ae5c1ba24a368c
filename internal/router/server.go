package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"kgrouter/internal/config"
	"kgrouter/pkg/logging"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DomainsResourceURI is the router resource exposing the domain registry.
const DomainsResourceURI = "domains://list"

// Server wraps the router in an MCP server endpoint over the configured
// transport (stdio by default, SSE or streamable HTTP for network
// deployments).
type Server struct {
	cfg    config.RouterConfig
	router *Router

	// instanceID distinguishes router processes in domains://list output.
	instanceID string

	mcpServer *server.MCPServer
	refresher *Refresher

	sseServer            *server.SSEServer
	streamableHTTPServer *server.StreamableHTTPServer
	stdioServer          *server.StdioServer

	ctx        context.Context
	cancelFunc context.CancelFunc
	mu         sync.RWMutex
}

// NewServer creates a server for the given router.
func NewServer(cfg config.RouterConfig, r *Router) *Server {
	return &Server{
		cfg:        cfg,
		router:     r,
		instanceID: uuid.NewString(),
	}
}

// Start registers tools and resources and begins serving on the configured
// transport. Domain connections stay cold until the first tool call needs
// them.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.mcpServer != nil {
		s.mu.Unlock()
		return fmt.Errorf("router server already started")
	}

	s.ctx, s.cancelFunc = context.WithCancel(ctx)

	mcpServer := server.NewMCPServer(
		"kgrouter",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithInstructions("Routes knowledge-graph context tools to the active domain. Set an active domain with setActiveDomain or startsession before using context tools."),
	)
	s.mcpServer = mcpServer
	s.mu.Unlock()

	specs := s.router.ToolSpecs(s.cfg.ListAllEntitiesEnabled())
	s.refresher = NewRefresher(mcpServer, specs, NewDescriptionSource(s.cfg.DescriptionsDir))

	// Initial registration carries the generic descriptions; no domain is
	// active at boot.
	s.refresher.Apply("")

	if s.cfg.DescriptionRefreshEnabled() {
		s.router.SetOnActiveDomainChange(s.refresher.Apply)
		s.refresher.Watch(s.ctx, s.router.ActiveDomain)
	}

	s.registerDomainsResource()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	switch s.cfg.Transport {
	case config.TransportSSE:
		logging.Info("Server", "Starting MCP router with SSE transport on %s", addr)
		baseURL := fmt.Sprintf("http://%s:%d", s.cfg.Host, s.cfg.Port)
		s.sseServer = server.NewSSEServer(
			mcpServer,
			server.WithBaseURL(baseURL),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
		)
		sseServer := s.sseServer
		go func() {
			if err := sseServer.Start(addr); err != nil && err != http.ErrServerClosed {
				logging.Error("Server", err, "SSE server error")
			}
		}()

	case config.TransportStreamableHTTP:
		logging.Info("Server", "Starting MCP router with streamable-http transport on %s", addr)
		s.streamableHTTPServer = server.NewStreamableHTTPServer(mcpServer)
		streamableServer := s.streamableHTTPServer
		go func() {
			if err := streamableServer.Start(addr); err != nil && err != http.ErrServerClosed {
				logging.Error("Server", err, "Streamable HTTP server error")
			}
		}()

	case config.TransportStdio:
		fallthrough
	default:
		logging.Info("Server", "Starting MCP router with stdio transport")
		s.stdioServer = server.NewStdioServer(mcpServer)
		stdioServer := s.stdioServer
		serveCtx := s.ctx
		go func() {
			if err := stdioServer.Listen(serveCtx, os.Stdin, os.Stdout); err != nil {
				logging.Error("Server", err, "Stdio server error")
			}
		}()
	}

	return nil
}

// Stop shuts down the transport and disconnects every domain.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.mcpServer == nil {
		s.mu.Unlock()
		return fmt.Errorf("router server not started")
	}

	logging.Info("Server", "Stopping MCP router")

	cancelFunc := s.cancelFunc
	sseServer := s.sseServer
	streamableServer := s.streamableHTTPServer
	s.mu.Unlock()

	if cancelFunc != nil {
		cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if sseServer != nil {
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down SSE server")
		}
	}
	if streamableServer != nil {
		if err := streamableServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down streamable HTTP server")
		}
	}
	// The stdio server stops on context cancellation.

	s.router.Registry().DisconnectAll()

	s.mu.Lock()
	s.mcpServer = nil
	s.sseServer = nil
	s.streamableHTTPServer = nil
	s.stdioServer = nil
	s.mu.Unlock()

	return nil
}

// Endpoint returns the router's endpoint based on the configured transport.
func (s *Server) Endpoint() string {
	switch s.cfg.Transport {
	case config.TransportSSE:
		return fmt.Sprintf("http://%s:%d/sse", s.cfg.Host, s.cfg.Port)
	case config.TransportStreamableHTTP:
		return fmt.Sprintf("http://%s:%d/mcp", s.cfg.Host, s.cfg.Port)
	default:
		return "stdio"
	}
}

// domainStatus is one registry entry in the domains://list payload,
// decorated with live connection state.
type domainStatus struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	EntityTypes []string `json:"entityTypes,omitempty"`
	Transport   string   `json:"transport"`
	State       string   `json:"state"`
	Connected   bool     `json:"connected"`
}

type domainsListing struct {
	InstanceID   string         `json:"instanceId"`
	ActiveDomain string         `json:"activeDomain,omitempty"`
	Domains      []domainStatus `json:"domains"`
}

func (s *Server) registerDomainsResource() {
	resource := mcp.NewResource(
		DomainsResourceURI,
		"Domain registry",
		mcp.WithResourceDescription("All knowledge-graph domains this router can reach, with their entity-type vocabularies and live connection state."),
		mcp.WithMIMEType("application/json"),
	)
	s.mcpServer.AddResource(resource, s.handleDomainsResource)
}

func (s *Server) handleDomainsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	listing := domainsListing{
		InstanceID:   s.instanceID,
		ActiveDomain: s.router.ActiveDomain(),
	}

	for _, d := range s.router.Registry().Domains() {
		transport := config.TransportStreamableHTTP
		if d.Info.HasCommand() {
			transport = config.TransportStdio
		}
		listing.Domains = append(listing.Domains, domainStatus{
			Name:        d.Info.Name,
			Description: d.Info.Description,
			EntityTypes: d.Info.EntityTypes,
			Transport:   transport,
			State:       d.Connection.State().String(),
			Connected:   d.Connection.Connected(),
		})
	}

	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DomainsResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
