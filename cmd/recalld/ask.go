package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/recall/internal/response"
)

type askOptions struct {
	json      bool
	saveImage string
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	askOpts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question against the local lifelog",
		Long: `Run the query pipeline in-process against the configured data directory.

Examples:
  recalld ask "what did Sam say about the launch?"
  recalld ask --save-image shelf.png "where did I leave my keys?"
  recalld ask --json "what was on the whiteboard?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			return runAsk(ctx, a, strings.Join(args, " "), askOpts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&askOpts.json, "json", false, "print the response parts as JSON")
	cmd.Flags().StringVar(&askOpts.saveImage, "save-image", "", "write the cited image to this file")
	return cmd
}

func runAsk(ctx context.Context, a *app, question string, opts *askOptions, out io.Writer) error {
	resp, err := a.recall.ContextQuery(ctx, question)
	if err != nil {
		return err
	}

	if opts.saveImage != "" {
		if err := saveImage(resp, opts.saveImage); err != nil {
			return err
		}
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return printResponse(out, resp)
}

// printResponse renders parts in order, summarising image payloads.
func printResponse(out io.Writer, resp *response.Response) error {
	for _, p := range resp.Parts {
		switch p.Type {
		case response.PartImage:
			size := base64.StdEncoding.DecodedLen(len(p.Data))
			if _, err := fmt.Fprintf(out, "[image %s, ~%d bytes]\n", p.MediaType, size); err != nil {
				return err
			}
		case response.PartText:
			if _, err := fmt.Fprintln(out, p.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveImage(resp *response.Response, path string) error {
	img := resp.Image()
	if img == nil {
		fmt.Fprintln(os.Stderr, "no image cited")
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return nil
}
