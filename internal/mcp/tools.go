package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/logging"
	"github.com/fyrsmithlabs/recall/internal/response"
)

// ContextQueryTool is the name of the query tool.
const ContextQueryTool = "context_query"

type contextQueryInput struct {
	Question string `json:"question" jsonschema:"required,What to ask about recently heard conversations and seen scenes"`
}

type contextQueryOutput struct {
	Answer   string `json:"answer" jsonschema:"Answer text"`
	HasImage bool   `json:"has_image" jsonschema:"Whether a relevant captured image is attached"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: ContextQueryTool,
		Description: "Answer a question using the wearer's recent transcripts and image descriptions. " +
			"Returns the most relevant captured image, when there is one, followed by the answer.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args contextQueryInput) (*mcp.CallToolResult, contextQueryOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, ContextQueryTool)
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, ContextQueryTool)
			s.metrics.RecordInvocation(ctx, ContextQueryTool, time.Since(start), toolErr)
		}()

		resp, err := s.recall.ContextQuery(ctx, args.Question)
		if err != nil {
			toolErr = err
			s.logger.Warn("context_query failed", logging.Fields(ctx, zap.Error(err))...)
			return nil, contextQueryOutput{}, err
		}

		content, err := toContent(resp)
		if err != nil {
			toolErr = err
			return nil, contextQueryOutput{}, err
		}

		hasImage := resp.Image() != nil
		if hasImage {
			s.metrics.RecordImageAttached(ctx, ContextQueryTool)
		}
		return &mcp.CallToolResult{Content: content}, contextQueryOutput{
			Answer:   resp.Text(),
			HasImage: hasImage,
		}, nil
	})
}

// toContent converts response parts to MCP content, preserving order.
func toContent(resp *response.Response) ([]mcp.Content, error) {
	content := make([]mcp.Content, 0, len(resp.Parts))
	for _, p := range resp.Parts {
		switch p.Type {
		case response.PartImage:
			data, err := base64.StdEncoding.DecodeString(p.Data)
			if err != nil {
				return nil, fmt.Errorf("decode image part: %w", err)
			}
			content = append(content, &mcp.ImageContent{Data: data, MIMEType: p.MediaType})
		case response.PartText:
			content = append(content, &mcp.TextContent{Text: p.Text})
		default:
			return nil, fmt.Errorf("unknown response part type %q", p.Type)
		}
	}
	return content, nil
}
