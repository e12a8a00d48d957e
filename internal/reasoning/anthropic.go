package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/recall/internal/errs"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-3-5-sonnet-20241022"
	// DefaultMaxTokens is the token budget when a request does not set one.
	DefaultMaxTokens = 1024

	defaultRateLimit = 2.0
	defaultBurst     = 4
)

// Config configures the Anthropic client.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	RateLimit float64 // requests per second; <= 0 uses the default
	Burst     int
}

// AnthropicClient implements Reasoner against the Anthropic Messages API.
type AnthropicClient struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New returns a Reasoner for cfg. Without an API key it returns an
// Unconfigured reasoner, so the daemon can still ingest transcripts and
// reasoning-dependent calls fail at first use.
func New(cfg Config, logger *zap.Logger) Reasoner {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Unconfigured{}
	}
	return NewAnthropicClient(cfg, logger)
}

// NewAnthropicClient builds the client. The SDK's automatic retries are
// disabled.
func NewAnthropicClient(cfg Config, logger *zap.Logger) *AnthropicClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client:  anthropic.NewClient(opts...),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
		logger:  logger,
	}
}

// Model returns the configured default model.
func (c *AnthropicClient) Model() string {
	return c.model
}

// Complete sends req as a single user message.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Reply, error) {
	if len(req.Content) == 0 {
		return nil, errs.InvalidInput("content", "request has no content blocks")
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Content))
	for _, b := range req.Content {
		switch b.Type {
		case BlockText:
			blocks = append(blocks, anthropic.NewTextBlock(b.Text))
		case BlockImage:
			blocks = append(blocks, anthropic.NewImageBlockBase64(b.MediaType, b.Data))
		default:
			return nil, errs.InvalidInput("content", "unknown block type %q", b.Type)
		}
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &errs.ReasoningError{Message: "rate limiter: " + err.Error(), Err: err}
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return nil, toReasoningError(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	c.logger.Debug("reasoning call completed",
		zap.String("model", string(msg.Model)),
		zap.String("stop_reason", string(msg.StopReason)),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens))

	return &Reply{
		Text:         text.String(),
		Model:        string(msg.Model),
		StopReason:   string(msg.StopReason),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}, nil
}

// toReasoningError keeps the upstream status and message of API errors.
func toReasoningError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &errs.ReasoningError{
			Status:  apiErr.StatusCode,
			Message: apiErr.Error(),
			Err:     err,
		}
	}
	return &errs.ReasoningError{
		Message: fmt.Sprintf("request failed: %v", err),
		Err:     err,
	}
}

var _ Reasoner = (*AnthropicClient)(nil)
