// Recalld is the recall daemon. It stores what the wearer hears and sees and
// answers questions about it.
//
// Configuration is loaded from ~/.config/recall/config.yaml and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Serve the HTTP API, the /mcp endpoint and the optional NATS capture bridge
//	recalld serve
//
//	# Serve context_query over stdio for a desktop assistant
//	recalld mcp
//
//	# Ask a question in-process
//	recalld ask "where did I leave my keys?"
//
//	# Tail transcripts and image descriptions as they are stored
//	recalld watch
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "recalld",
		Short: "Wearable lifelog context daemon",
		Long: `recalld stores transcripts and image descriptions captured by a wearable
device and answers natural-language questions about them, citing the most
relevant captured image.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/recall/config.yaml)")

	root.AddCommand(
		newServeCmd(opts),
		newMCPCmd(opts),
		newAskCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recalld by Fyrsmith Labs\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}
