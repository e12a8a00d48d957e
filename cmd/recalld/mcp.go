package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/recall/internal/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve context_query over stdio",
		Long: `Serve the context_query MCP tool on stdin/stdout.

Logs go to stderr so stdout carries only the protocol. Register the binary
with your assistant as a stdio MCP server:

  recalld mcp --config ~/.config/recall/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "recall",
				Version: version,
				Logger:  a.log.Underlying().Named("mcp"),
			}, a.recall)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			return server.Run(ctx)
		},
	}
}
