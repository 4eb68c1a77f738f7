package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/joescharf/bugfix/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an MCP client query and update the bug tracker natively.
Configure in Claude Code with:

  {
    "mcpServers": {
      "bugfix": { "command": "bugfix", "args": ["mcp"] }
    }
  }

Available tools: bugfix_list_bugs, bugfix_search_bugs, bugfix_create_bug,
bugfix_update_bug, bugfix_assign_bug, bugfix_remove_bug, bugfix_list_coders`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := mcpserver.NewServer(getTracker())
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
