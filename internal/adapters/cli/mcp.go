package cli

import (
	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/legal-rag-assistant/internal/adapters/mcp"
)

func newMCPCommand(load Loader, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the legal_query tool over MCP stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout exposing the
legal_query and legal_collections tools. Logs go to stderr.

Client configuration example:
  {
    "mcpServers": {
      "legalrag": {
        "command": "/path/to/legalrag",
        "args": ["mcp"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, load, func(rt *Runtime) error {
				server := mcpadapter.NewServer(rt.Service, rt.TopKFinal, version)
				return server.ServeStdio(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}
