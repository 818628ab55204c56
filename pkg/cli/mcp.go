package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/githubnext/sqlresult/pkg/config"
	"github.com/githubnext/sqlresult/pkg/constants"
	"github.com/githubnext/sqlresult/pkg/mcpserver"
)

// NewMCPCommand creates the mcp command
func NewMCPCommand() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve result hovers and navigation as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout so editors and agents can
query recorded results without parsing result files themselves.

Tools:
  ` + mcpserver.ToolHover + `     hover content for a SQL line
  ` + mcpserver.ToolGoTo + `      counterpart location of a line
  ` + mcpserver.ToolMarkers + `   markers of a result file
  ` + mcpserver.ToolLenses + `    code lenses of a SQL or result file

Logs are written to stderr.

Example:
  ` + constants.CLIExtensionPrefix + ` mcp --config .sqlresult.yaml`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := LoadConfig(configPath, verbose)
			if err != nil {
				fmt.Fprintln(os.Stderr, FormatCommandError(err))
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := ServeMCP(ctx, cfg, verbose); err != nil {
				fmt.Fprintln(os.Stderr, FormatCommandError(err))
				os.Exit(1)
			}
		},
	}

	return mcpCmd
}

// ServeMCP runs the MCP server over stdio until ctx is done
func ServeMCP(ctx context.Context, cfg config.Config, verbose bool) error {
	p, log, err := newProvider(cfg, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	return mcpserver.New(p, log, GetVersion()).Run(ctx)
}
