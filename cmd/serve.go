package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kgrouter/internal/config"
	"kgrouter/internal/domain"
	"kgrouter/internal/mcpclient"
	"kgrouter/internal/router"
	"kgrouter/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveHost       string
	servePort       int
	serveTransport  string
	serveDebug      bool
	serveDomains    []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the knowledge-graph MCP router",
	Long: `Starts the router's MCP endpoint and lazily connects to domain servers as
tool calls need them. With the default stdio transport the process is meant
to be spawned by the calling agent; logs go to stderr.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Configuration directory (default: ~/.config/kgrouter)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to for network transports")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port for network transports")
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "Transport: stdio, sse or streamable-http")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringSliceVar(&serveDomains, "domains", nil, "Serve only the named domains (default: all configured)")
}

func runServe(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if serveDebug {
		level = logging.LevelDebug
	}
	// stderr always: stdout may carry the MCP stdio stream.
	logging.Init(level, os.Stderr)

	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	registry := domain.NewRegistry(
		cfg.Domains,
		mcpclient.NewForDomain,
		time.Duration(cfg.Router.ConnectTimeoutSeconds)*time.Second,
		time.Duration(cfg.Router.CallTimeoutSeconds)*time.Second,
	)

	srv := router.NewServer(cfg.Router, router.New(registry))

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting router: %w", err)
	}
	logging.Info("Serve", "Router serving %d domains at %s", len(cfg.Domains), srv.Endpoint())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	return srv.Stop(context.Background())
}

// loadServeConfig loads the config directory and layers explicit flags on
// top.
func loadServeConfig(cmd *cobra.Command) (config.Config, error) {
	configPath := serveConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}

	cfg, err = config.FilterDomains(cfg, serveDomains)
	if err != nil {
		return config.Config{}, err
	}

	if cmd.Flags().Changed("host") {
		cfg.Router.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Router.Port = servePort
	}
	if cmd.Flags().Changed("transport") {
		cfg.Router.Transport = serveTransport
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
