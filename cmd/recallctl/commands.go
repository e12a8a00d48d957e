package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/recall/internal/artifact"
	httpserver "github.com/fyrsmithlabs/recall/internal/http"
	"github.com/fyrsmithlabs/recall/internal/response"
)

func newHealthCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check recall server health",
		Long: `Check the health status of the recall HTTP server.

Examples:
  # Check health
  recallctl health

  # Check health on a different server
  recallctl health --server http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp httpserver.HealthResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/health", "", nil, 5*time.Second, &resp); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server Status: %s\n", resp.Status)
			fmt.Fprintf(out, "Server URL: %s\n", c.serverURL)
			return nil
		},
	}
}

func newStatusCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server version and artifact counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp httpserver.StatusResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/status", "", nil, 5*time.Second, &resp); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:             %s\n", resp.Status)
			fmt.Fprintf(out, "Version:            %s\n", resp.Version)
			fmt.Fprintf(out, "Transcripts:        %s\n", count(resp.Counts.Transcripts))
			fmt.Fprintf(out, "Image descriptions: %s\n", count(resp.Counts.ImageDescriptions))
			return nil
		},
	}
}

func count(n int) string {
	if n < 0 {
		return "unknown"
	}
	return fmt.Sprint(n)
}

func newTranscriptCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <text|->",
		Short: "Store a final transcript",
		Long: `Store a final transcript. Use - to read it from stdin.

Examples:
  recallctl transcript "remind me to call the dentist"
  echo "parking on level 3" | recallctl transcript -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read from stdin: %w", err)
				}
				text = string(b)
			}

			var receipt httpserver.ReceiptResponse
			err := c.postJSON(cmd.Context(), "/api/v1/transcripts", httpserver.TranscriptRequest{Transcript: text}, &receipt, 30*time.Second)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored transcript %s\n", receipt.Timestamp)
			return nil
		},
	}
}

func newImageCmd(c *client) *cobra.Command {
	var mediaType string
	cmd := &cobra.Command{
		Use:   "image <file>",
		Short: "Store an image and its generated description",
		Long: `Upload an image. The server stores it, asks the vision model for a
description and stores that under the same timestamp.

The media type is taken from the file extension unless --media-type is set.

Examples:
  recallctl image snapshot.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", args[0], err)
			}
			if len(data) == 0 {
				return fmt.Errorf("no image data in %s", args[0])
			}
			mt := mediaType
			if mt == "" {
				mt = artifact.MediaTypeForExt(filepath.Ext(args[0]))
			}

			var receipt httpserver.ReceiptResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/images", mt, bytes.NewReader(data), queryTimeout, &receipt); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored image %s (%s)\n", receipt.Timestamp, receipt.MediaType)
			fmt.Fprintf(out, "Description: %s\n", receipt.Description)
			return nil
		},
	}
	cmd.Flags().StringVar(&mediaType, "media-type", "", "image media type, e.g. image/jpeg")
	return cmd
}

func newAskCmd(c *client) *cobra.Command {
	var saveImage string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about recent conversations and scenes",
		Long: `Ask the recall server a question.

Examples:
  recallctl ask "what time is the dentist appointment?"
  recallctl ask --save-image keys.png "where did I leave my keys?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp response.Response
			req := httpserver.QueryRequest{Question: strings.Join(args, " ")}
			if err := c.postJSON(cmd.Context(), "/api/v1/query", req, &resp, queryTimeout); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if img := resp.Image(); img != nil {
				data, err := base64.StdEncoding.DecodeString(img.Data)
				if err != nil {
					return fmt.Errorf("decode image: %w", err)
				}
				if saveImage != "" {
					if err := os.WriteFile(saveImage, data, 0o600); err != nil {
						return fmt.Errorf("failed to write image %s: %w", saveImage, err)
					}
					fmt.Fprintf(out, "[image %s, %d bytes saved to %s]\n", img.MediaType, len(data), saveImage)
				} else {
					fmt.Fprintf(out, "[image %s, %d bytes]\n", img.MediaType, len(data))
				}
			}
			fmt.Fprintln(out, resp.Text())
			return nil
		},
	}
	cmd.Flags().StringVar(&saveImage, "save-image", "", "write the cited image to this file")
	return cmd
}
