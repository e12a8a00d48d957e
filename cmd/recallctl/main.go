// Package main implements the recallctl CLI for manual operations against the
// recall HTTP server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version information
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &client{}

	root := &cobra.Command{
		Use:   "recallctl",
		Short: "CLI for recall HTTP server operations",
		Long: `recallctl is a command-line interface for interacting with the recall HTTP server.
It stores transcripts and images, asks questions and checks server health.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.serverURL, "server", "http://localhost:9090", "recall server URL")

	root.AddCommand(
		newHealthCmd(c),
		newStatusCmd(c),
		newTranscriptCmd(c),
		newImageCmd(c),
		newAskCmd(c),
	)
	return root
}
