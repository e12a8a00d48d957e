// Package recall wires the query pipeline end to end: question in, ordered
// response parts out.
package recall

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/artifact"
	"github.com/fyrsmithlabs/recall/internal/assembler"
	"github.com/fyrsmithlabs/recall/internal/logging"
	"github.com/fyrsmithlabs/recall/internal/query"
	"github.com/fyrsmithlabs/recall/internal/reasoning"
	"github.com/fyrsmithlabs/recall/internal/response"
)

// Querier answers one question.
type Querier interface {
	Query(ctx context.Context, question string) (*query.Result, error)
}

// Service runs validate, assemble, reason, parse, resolve and compose for
// each call. It holds no per-query state.
type Service struct {
	engine   Querier
	resolver *response.Resolver
	logger   *zap.Logger
}

// NewService returns a Service.
func NewService(engine Querier, resolver *response.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, resolver: resolver, logger: logger}
}

// New builds the whole pipeline over store and reasoner.
func New(store *artifact.Store, reasoner reasoning.Reasoner, logger *zap.Logger, opts ...query.Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]query.Option{query.WithLogger(logger)}, opts...)
	engine := query.NewEngine(assembler.New(store, logger), reasoner, opts...)
	return NewService(engine, response.NewResolver(store, logger), logger)
}

// ContextQuery answers question against the stored lifelog. The response
// holds the cited image, when one was cited and found, followed by the
// answer text.
func (s *Service) ContextQuery(ctx context.Context, question string) (*response.Response, error) {
	result, err := s.engine.Query(ctx, question)
	if err != nil {
		return nil, err
	}

	image, err := s.resolver.Resolve(ctx, result.CitedTimestamp)
	if err != nil {
		return nil, fmt.Errorf("resolve cited image %s: %w", result.CitedTimestamp, err)
	}

	resp := response.Compose(*result, image)
	s.logger.Debug("response composed", logging.Fields(ctx,
		zap.Int("parts", len(resp.Parts)),
		zap.Bool("image", image != nil))...)
	return resp, nil
}
