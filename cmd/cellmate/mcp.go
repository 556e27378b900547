package main

import (
	"github.com/spf13/cobra"

	"github.com/spetersoncode/cellmate/config"
	"github.com/spetersoncode/cellmate/mcp"
)

func newMCPCmd(cfg *config.Config) *cobra.Command {
	var withApproval bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tool registry to MCP clients over stdio",
		Long: `Serve the tool registry to MCP clients over stdio.

The registry holds the skill tools plus the tools of every MCP server in the
configuration. Tools that require approval are left out unless
--approval-tools is set, since an MCP client cannot answer the prompt.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []mcp.ServerOption{mcp.WithName("cellmate"), mcp.WithVersion(version)}
			if withApproval {
				opts = append(opts, mcp.WithApprovalTools())
			}
			a.log.Info("serving tools over mcp", "tools", a.tools.Len())
			return mcp.ServeStdio(a.tools, opts...)
		},
	}
	cmd.Flags().BoolVar(&withApproval, "approval-tools", false, "also expose tools that require approval")
	return cmd
}
