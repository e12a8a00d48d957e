package capture

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/ingest"
)

// Connect dials the NATS server at url, retrying while the server is not yet
// reachable.
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("recall"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// Publisher ships captured artifacts over NATS. It is the device-side Sink.
type Publisher struct {
	nc                *nats.Conn
	transcriptSubject string
	imageSubject      string
	ackTimeout        time.Duration
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithAck makes every publish a request that waits up to timeout for the
// bridge's Ack, so ingestion failures reach the producer.
func WithAck(timeout time.Duration) PublisherOption {
	return func(p *Publisher) { p.ackTimeout = timeout }
}

// NewPublisher returns a Publisher on the subjects under prefix.
func NewPublisher(nc *nats.Conn, prefix string, opts ...PublisherOption) *Publisher {
	transcript, image := Subjects(prefix)
	p := &Publisher{nc: nc, transcriptSubject: transcript, imageSubject: image}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Transcript implements Sink.
func (p *Publisher) Transcript(ctx context.Context, text string) error {
	return p.send(ctx, p.transcriptSubject, TranscriptMessage{Transcript: text})
}

// Image implements Sink.
func (p *Publisher) Image(ctx context.Context, data []byte, mediaType string) error {
	return p.send(ctx, p.imageSubject, ImageMessage{
		Image:     base64.StdEncoding.EncodeToString(data),
		MediaType: mediaType,
	})
}

func (p *Publisher) send(ctx context.Context, subject string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("capture: marshal %s: %w", subject, err)
	}

	if p.ackTimeout <= 0 {
		if err := p.nc.Publish(subject, data); err != nil {
			return fmt.Errorf("capture: publish %s: %w", subject, err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.ackTimeout)
	defer cancel()
	reply, err := p.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("capture: request %s: %w", subject, err)
	}

	var ack Ack
	if err := json.Unmarshal(reply.Data, &ack); err != nil {
		return fmt.Errorf("capture: decode ack: %w", err)
	}
	if ack.Error != "" {
		return fmt.Errorf("capture: ingestion rejected %s: %s", subject, ack.Error)
	}
	return nil
}

var _ Sink = (*Publisher)(nil)

// Ingester is the ingestion surface the Bridge feeds.
type Ingester interface {
	IngestTranscript(ctx context.Context, transcript string) (*ingest.Receipt, error)
	IngestImage(ctx context.Context, imageBase64, mediaType string) (*ingest.Receipt, error)
}

// Bridge subscribes to the capture subjects and ingests what arrives.
// Messages are handled one at a time on the subscription goroutine.
type Bridge struct {
	nc       *nats.Conn
	prefix   string
	ingester Ingester
	logger   *zap.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewBridge returns a Bridge. Call Start to subscribe.
func NewBridge(nc *nats.Conn, prefix string, ingester Ingester, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{nc: nc, prefix: prefix, ingester: ingester, logger: logger}
}

// Start subscribes to both subjects. Ingestion runs with ctx's values but
// not its cancellation, so messages drained by Stop still complete after the
// caller's ctx is done.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) > 0 {
		return errors.New("capture: bridge already started")
	}

	transcriptSubject, imageSubject := Subjects(b.prefix)
	ctx = context.WithoutCancel(ctx)

	ts, err := b.nc.Subscribe(transcriptSubject, func(m *nats.Msg) {
		b.handleTranscript(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("capture: subscribe %s: %w", transcriptSubject, err)
	}
	is, err := b.nc.Subscribe(imageSubject, func(m *nats.Msg) {
		b.handleImage(ctx, m)
	})
	if err != nil {
		_ = ts.Unsubscribe()
		return fmt.Errorf("capture: subscribe %s: %w", imageSubject, err)
	}
	if err := b.nc.Flush(); err != nil {
		_ = ts.Unsubscribe()
		_ = is.Unsubscribe()
		return fmt.Errorf("capture: flush subscriptions: %w", err)
	}

	b.subs = []*nats.Subscription{ts, is}
	b.logger.Info("capture bridge started",
		zap.String("transcript_subject", transcriptSubject),
		zap.String("image_subject", imageSubject))
	return nil
}

// Stop drains the subscriptions, letting in-flight messages finish.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, s := range b.subs {
		if err := s.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, err)
		}
	}
	b.subs = nil
	return errors.Join(errs...)
}

func (b *Bridge) handleTranscript(ctx context.Context, m *nats.Msg) {
	var msg TranscriptMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		b.reply(m, nil, fmt.Errorf("decode transcript message: %w", err))
		return
	}
	receipt, err := b.ingester.IngestTranscript(ctx, msg.Transcript)
	b.reply(m, receipt, err)
}

func (b *Bridge) handleImage(ctx context.Context, m *nats.Msg) {
	var msg ImageMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		b.reply(m, nil, fmt.Errorf("decode image message: %w", err))
		return
	}
	receipt, err := b.ingester.IngestImage(ctx, msg.Image, msg.MediaType)
	b.reply(m, receipt, err)
}

// reply logs the outcome and answers requests with an Ack.
func (b *Bridge) reply(m *nats.Msg, receipt *ingest.Receipt, err error) {
	var ack Ack
	if err != nil {
		ack.Error = err.Error()
		b.logger.Warn("capture message rejected", zap.String("subject", m.Subject), zap.Error(err))
	} else {
		ack.Timestamp = receipt.Timestamp
		b.logger.Debug("capture message ingested",
			zap.String("subject", m.Subject),
			zap.String("timestamp", receipt.Timestamp))
	}

	if m.Reply == "" {
		return
	}
	data, _ := json.Marshal(ack)
	if err := m.Respond(data); err != nil {
		b.logger.Warn("failed to ack capture message", zap.String("subject", m.Subject), zap.Error(err))
	}
}
