// Package query answers natural-language questions against the lifelog.
//
// A query is one sequential pipeline: validate the question, assemble the
// context, compose the prompt, call the reasoning capability once, and parse
// the reply. Nothing is kept between queries.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/assembler"
	"github.com/fyrsmithlabs/recall/internal/errs"
	"github.com/fyrsmithlabs/recall/internal/logging"
	"github.com/fyrsmithlabs/recall/internal/reasoning"
)

const instrumentationName = "github.com/fyrsmithlabs/recall/internal/query"

// Result is the parsed output of the reasoning step.
type Result struct {
	AnswerText string `json:"answerText"`
	// CitedTimestamp is empty when the reply cited no image.
	CitedTimestamp string `json:"citedTimestamp,omitempty"`
}

// Cited reports whether the reply named an image timestamp.
func (r Result) Cited() bool {
	return r.CitedTimestamp != ""
}

// ContextBuilder renders the stored artifacts.
type ContextBuilder interface {
	Build(ctx context.Context) (*assembler.Context, error)
}

// Engine runs queries.
type Engine struct {
	contexts  ContextBuilder
	reasoner  reasoning.Reasoner
	logger    *zap.Logger
	tracer    trace.Tracer
	model     string
	maxTokens int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithModel overrides the reasoner's default model for queries.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithMaxTokens sets the token budget of the answer.
func WithMaxTokens(n int) Option {
	return func(e *Engine) { e.maxTokens = n }
}

// NewEngine returns an Engine reading context from contexts and answering
// through reasoner.
func NewEngine(contexts ContextBuilder, reasoner reasoning.Reasoner, opts ...Option) *Engine {
	e := &Engine{
		contexts:  contexts,
		reasoner:  reasoner,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(instrumentationName),
		maxTokens: reasoning.DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query answers question. An empty or blank question fails with
// *errs.InvalidInputError before any I/O. An empty store is not an error.
func (e *Engine) Query(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		QueriesTotal.WithLabelValues("invalid").Inc()
		return nil, errs.InvalidInput("question", "must not be empty")
	}

	queryID := uuid.NewString()
	ctx = logging.WithQueryID(ctx, queryID)
	ctx, span := e.tracer.Start(ctx, "query.Query", trace.WithAttributes(
		attribute.String("query.id", queryID),
		attribute.Int("query.question_length", len(question)),
	))
	defer span.End()

	start := time.Now()
	res, err := e.run(ctx, question)
	QueryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		QueriesTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("query failed", logging.Fields(ctx, zap.Error(err))...)
		return nil, err
	}

	QueriesTotal.WithLabelValues("answered").Inc()
	if res.Cited() {
		CitationsTotal.Inc()
	}
	if res.AnswerText == FallbackAnswer {
		FallbackAnswersTotal.Inc()
	}
	span.SetAttributes(
		attribute.Bool("query.cited", res.Cited()),
		attribute.Int("query.answer_length", len(res.AnswerText)),
	)
	e.logger.Info("query answered", logging.Fields(ctx,
		zap.Bool("cited", res.Cited()),
		zap.String("cited_timestamp", res.CitedTimestamp),
		zap.Duration("duration", time.Since(start)))...)
	return res, nil
}

func (e *Engine) run(ctx context.Context, question string) (*Result, error) {
	c, err := e.contexts.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("assemble context: %w", err)
	}
	ContextBytes.Observe(float64(len(c.Text)))
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("context.transcripts", c.Transcripts),
		attribute.Int("context.image_descriptions", c.ImageDescriptions),
	)

	prompt := ComposePrompt(c.Text, question)
	e.logger.Debug("prompt composed", logging.Fields(ctx,
		zap.Int("context_bytes", len(c.Text)),
		zap.Bool("context_empty", c.Empty()))...)

	reply, err := e.reasoner.Complete(ctx, reasoning.Request{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Content:   []reasoning.Block{reasoning.TextBlock(prompt)},
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("reasoning reply received", logging.Fields(ctx,
		zap.String("stop_reason", reply.StopReason),
		zap.Int64("output_tokens", reply.OutputTokens))...)

	res := ParseReply(reply.Text)
	return &res, nil
}
