// Package ingest accepts artifacts from capture producers and persists them.
//
// Transcripts are stored as-is. Images are stored first, then described by
// the vision-capable reasoner, and the description is stored under the same
// timestamp so the two stay joinable.
package ingest

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/artifact"
	"github.com/fyrsmithlabs/recall/internal/errs"
	"github.com/fyrsmithlabs/recall/internal/logging"
	"github.com/fyrsmithlabs/recall/internal/reasoning"
)

// DescribePrompt asks the model for a description that later answers
// questions about the scene.
const DescribePrompt = `Describe this image from a wearable camera in detail. Mention the setting, people, objects and their locations, any readable text, and anything the wearer might want to remember later. Reply with the description only.`

// Kinds of ingested artifacts.
const (
	KindTranscript = "transcript"
	KindImage      = "image"
)

// Store is the subset of the artifact store ingestion writes to.
type Store interface {
	NewTimestamp() string
	WriteText(ctx context.Context, c artifact.Category, text string) (string, error)
	WriteTextAt(ctx context.Context, c artifact.Category, ts, text string) error
	WriteImage(ctx context.Context, ts string, data []byte, mediaType string) (string, error)
}

// Receipt reports what was stored.
type Receipt struct {
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
	MediaType string `json:"mediaType,omitempty"`
	// Description is the generated image description.
	Description string `json:"description,omitempty"`
}

// Service ingests transcripts and images.
type Service struct {
	store     Store
	reasoner  reasoning.Reasoner
	logger    *zap.Logger
	model     string
	maxTokens int
}

// Option configures a Service.
type Option func(*Service)

// WithDescribeModel overrides the model used for image descriptions.
func WithDescribeModel(model string) Option {
	return func(s *Service) { s.model = model }
}

// WithDescribeMaxTokens sets the token budget of image descriptions.
func WithDescribeMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewService returns a Service.
func NewService(store Store, reasoner reasoning.Reasoner, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:     store,
		reasoner:  reasoner,
		logger:    logger,
		maxTokens: reasoning.DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestTranscript stores transcript after trimming. Blank input fails with
// *errs.InvalidInputError on field "transcript".
func (s *Service) IngestTranscript(ctx context.Context, transcript string) (*Receipt, error) {
	text := strings.TrimSpace(transcript)
	if text == "" {
		ArtifactsTotal.WithLabelValues(KindTranscript, "invalid").Inc()
		return nil, errs.InvalidInput("transcript", "must not be empty")
	}

	ts, err := s.store.WriteText(ctx, artifact.CategoryTranscript, text)
	if err != nil {
		ArtifactsTotal.WithLabelValues(KindTranscript, "failed").Inc()
		return nil, err
	}

	ArtifactsTotal.WithLabelValues(KindTranscript, "stored").Inc()
	s.logger.Info("transcript stored", logging.Fields(ctx,
		zap.String("timestamp", ts),
		zap.Int("bytes", len(text)))...)
	return &Receipt{Kind: KindTranscript, Timestamp: ts}, nil
}

// IngestImage decodes a base64 image and stores it with its generated
// description. An empty mediaType means image/png.
func (s *Service) IngestImage(ctx context.Context, imageBase64, mediaType string) (*Receipt, error) {
	encoded := strings.TrimSpace(imageBase64)
	if encoded == "" {
		ArtifactsTotal.WithLabelValues(KindImage, "invalid").Inc()
		return nil, errs.InvalidInput("image", "must not be empty")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		ArtifactsTotal.WithLabelValues(KindImage, "invalid").Inc()
		return nil, errs.InvalidInput("image", "not valid base64: %v", err)
	}
	return s.ingestImage(ctx, data, encoded, mediaType)
}

// IngestImageBytes stores raw image bytes with their generated description.
func (s *Service) IngestImageBytes(ctx context.Context, data []byte, mediaType string) (*Receipt, error) {
	if len(data) == 0 {
		ArtifactsTotal.WithLabelValues(KindImage, "invalid").Inc()
		return nil, errs.InvalidInput("image", "must not be empty")
	}
	return s.ingestImage(ctx, data, base64.StdEncoding.EncodeToString(data), mediaType)
}

func (s *Service) ingestImage(ctx context.Context, data []byte, encoded, mediaType string) (*Receipt, error) {
	ext, err := artifact.ExtForMediaType(mediaType)
	if err != nil {
		ArtifactsTotal.WithLabelValues(KindImage, "invalid").Inc()
		return nil, err
	}
	// Aliases, case and parameters ("image/jpg", "IMAGE/PNG; q=1") collapse
	// to the canonical form the reasoning API accepts.
	mediaType = artifact.MediaTypeForExt(ext)

	if err := reasoning.Ready(s.reasoner); err != nil {
		ArtifactsTotal.WithLabelValues(KindImage, "failed").Inc()
		return nil, err
	}

	ts := s.store.NewTimestamp()
	path, err := s.store.WriteImage(ctx, ts, data, mediaType)
	if err != nil {
		ArtifactsTotal.WithLabelValues(KindImage, "failed").Inc()
		return nil, err
	}
	ImageBytes.Observe(float64(len(data)))
	s.logger.Info("image stored", logging.Fields(ctx,
		zap.String("timestamp", ts),
		zap.String("path", path),
		zap.String("media_type", mediaType),
		zap.Int("bytes", len(data)))...)

	description, err := s.describe(ctx, encoded, mediaType)
	if err != nil {
		// The image stays; an image without description is a valid state.
		ArtifactsTotal.WithLabelValues(KindImage, "failed").Inc()
		s.logger.Warn("image description failed", logging.Fields(ctx,
			zap.String("timestamp", ts),
			zap.Error(err))...)
		return nil, err
	}

	if err := s.store.WriteTextAt(ctx, artifact.CategoryImageDescription, ts, description); err != nil {
		ArtifactsTotal.WithLabelValues(KindImage, "failed").Inc()
		return nil, err
	}

	ArtifactsTotal.WithLabelValues(KindImage, "stored").Inc()
	s.logger.Info("image description stored", logging.Fields(ctx,
		zap.String("timestamp", ts),
		zap.Int("bytes", len(description)))...)
	return &Receipt{
		Kind:        KindImage,
		Timestamp:   ts,
		MediaType:   mediaType,
		Description: description,
	}, nil
}

func (s *Service) describe(ctx context.Context, encoded, mediaType string) (string, error) {
	start := time.Now()
	defer func() { DescribeDuration.Observe(time.Since(start).Seconds()) }()

	reply, err := s.reasoner.Complete(ctx, reasoning.Request{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Content: []reasoning.Block{
			reasoning.ImageBlock(mediaType, encoded),
			reasoning.TextBlock(DescribePrompt),
		},
	})
	if err != nil {
		return "", err
	}

	description := strings.TrimSpace(reply.Text)
	if description == "" {
		return "", &errs.ReasoningError{Message: "image description reply contained no text"}
	}
	return description, nil
}
