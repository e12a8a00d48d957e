// Package capture connects device-side capture hooks to ingestion.
//
// A host loop calls Producer.OnTranscriptFinal when speech-to-text settles on
// a final transcript and Producer.OnImageCaptured for every still image. The
// producer forwards to a Sink: either the ingestion service in the same
// process or a NATS Publisher that ships artifacts to a remote daemon, where
// a Bridge feeds them into ingestion.
package capture

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/ingest"
)

// Sink receives captured artifacts.
type Sink interface {
	Transcript(ctx context.Context, text string) error
	Image(ctx context.Context, data []byte, mediaType string) error
}

// Producer is the capture-side entry point.
type Producer struct {
	sink   Sink
	logger *zap.Logger
}

// NewProducer returns a Producer forwarding to sink.
func NewProducer(sink Sink, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{sink: sink, logger: logger}
}

// OnTranscriptFinal forwards a final transcript. Blank transcripts, which
// speech recognizers emit on silence, are dropped.
func (p *Producer) OnTranscriptFinal(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		p.logger.Debug("dropping blank transcript")
		return nil
	}
	return p.sink.Transcript(ctx, text)
}

// OnImageCaptured forwards a captured still image. An empty mediaType means
// image/png.
func (p *Producer) OnImageCaptured(ctx context.Context, data []byte, mediaType string) error {
	if len(data) == 0 {
		p.logger.Debug("dropping empty image frame")
		return nil
	}
	return p.sink.Image(ctx, data, mediaType)
}

// IngestSink delivers artifacts straight to an ingestion service.
type IngestSink struct {
	svc *ingest.Service
}

// NewIngestSink returns a Sink over svc.
func NewIngestSink(svc *ingest.Service) *IngestSink {
	return &IngestSink{svc: svc}
}

// Transcript implements Sink.
func (s *IngestSink) Transcript(ctx context.Context, text string) error {
	_, err := s.svc.IngestTranscript(ctx, text)
	return err
}

// Image implements Sink.
func (s *IngestSink) Image(ctx context.Context, data []byte, mediaType string) error {
	_, err := s.svc.IngestImageBytes(ctx, data, mediaType)
	return err
}

var _ Sink = (*IngestSink)(nil)
