package cmd

import (
	"os"
	"strings"

	"kgrouter/internal/config"
	"kgrouter/pkg/logging"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var domainsConfigPath string

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the configured knowledge-graph domains",
	RunE:  runDomains,
}

func init() {
	rootCmd.AddCommand(domainsCmd)

	domainsCmd.Flags().StringVar(&domainsConfigPath, "config-path", "", "Configuration directory (default: ~/.config/kgrouter)")
}

func runDomains(cmd *cobra.Command, args []string) error {
	logging.Init(logging.LevelWarn, os.Stderr)

	configPath := domainsConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("TRANSPORT"),
		text.FgHiCyan.Sprint("ENTITY TYPES"),
		text.FgHiCyan.Sprint("DESCRIPTION"),
	})

	for _, d := range cfg.Domains {
		transport := config.TransportStreamableHTTP
		if d.HasCommand() {
			transport = config.TransportStdio
		}
		t.AppendRow(table.Row{
			d.Name,
			transport,
			strings.Join(d.EntityTypes, ", "),
			d.Description,
		})
	}

	t.Render()
	return nil
}
