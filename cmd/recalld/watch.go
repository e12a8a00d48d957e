package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/recall/internal/artifact"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print transcripts and image descriptions as they are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			return runWatch(ctx, a.store, cmd.OutOrStdout())
		},
	}
}

func runWatch(ctx context.Context, store *artifact.Store, out io.Writer) error {
	return store.Watch(ctx, func(art artifact.Artifact) {
		fmt.Fprintf(out, "%s %-11s %s\n", art.Timestamp, art.Category, oneLine(art.Text))
	})
}

// oneLine collapses whitespace so each artifact prints on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
