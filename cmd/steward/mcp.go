package main

import (
	"github.com/spf13/cobra"

	"github.com/unneeks/stewardagent/pkg/cli"
	"github.com/unneeks/stewardagent/pkg/config"
	"github.com/unneeks/stewardagent/pkg/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the changeset review tool over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
review_changeset tool. Logs go to stderr; stdout carries only protocol
messages.

Example client configuration:
  {"command": "steward", "args": ["mcp", "--config", "/etc/steward.yaml"]}`,
	Args: exactArgs(0),
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()

	a, err := newApp(cfg, nil)
	if err != nil {
		return cli.NewCommandError("mcp", err)
	}
	defer a.Close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	srv := mcpserver.New(a.reviewer(), &mcpserver.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	})
	return cli.NewCommandError("mcp", srv.Run(ctx))
}
