package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"kgrouter/internal/config"
	"kgrouter/internal/mcpclient"
	"kgrouter/pkg/logging"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	checkConfigPath     string
	checkTimeoutSeconds int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe every configured domain server",
	Long: `Connects to each configured domain server in turn, performs the MCP
handshake, lists its tools and pings it, then reports a per-domain status
table. Useful before wiring the router into an agent.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkConfigPath, "config-path", "", "Configuration directory (default: ~/.config/kgrouter)")
	checkCmd.Flags().IntVar(&checkTimeoutSeconds, "timeout", 15, "Per-domain probe timeout in seconds")
}

type checkResult struct {
	name      string
	toolCount int
	elapsed   time.Duration
	err       error
}

func runCheck(cmd *cobra.Command, args []string) error {
	logging.Init(logging.LevelWarn, os.Stderr)

	configPath := checkConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	results := make([]checkResult, 0, len(cfg.Domains))
	for _, d := range cfg.Domains {
		results = append(results, probeDomain(d))
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("DOMAIN"),
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("TOOLS"),
		text.FgHiCyan.Sprint("TIME"),
	})

	failed := 0
	for _, res := range results {
		status := text.FgGreen.Sprint("OK")
		tools := fmt.Sprintf("%d", res.toolCount)
		if res.err != nil {
			failed++
			status = text.FgRed.Sprintf("FAILED: %v", res.err)
			tools = "-"
		}
		t.AppendRow(table.Row{res.name, status, tools, res.elapsed.Round(time.Millisecond)})
	}
	t.Render()

	if failed > 0 {
		return fmt.Errorf("%d of %d domains unreachable", failed, len(results))
	}
	return nil
}

func probeDomain(d config.DomainConfig) checkResult {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Connecting to %s domain...", d.Name)
	s.Start()
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(checkTimeoutSeconds)*time.Second)
	defer cancel()

	start := time.Now()
	client := mcpclient.NewForDomain(d)
	defer func() {
		if err := client.Close(); err != nil {
			logging.Warn("Check", "Error closing %s domain client: %v", d.Name, err)
		}
	}()

	if err := client.Initialize(ctx); err != nil {
		return checkResult{name: d.Name, elapsed: time.Since(start), err: err}
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		return checkResult{name: d.Name, elapsed: time.Since(start), err: err}
	}

	if err := client.Ping(ctx); err != nil {
		return checkResult{name: d.Name, elapsed: time.Since(start), err: err}
	}

	return checkResult{name: d.Name, toolCount: len(tools), elapsed: time.Since(start)}
}
