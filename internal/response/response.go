// Package response turns a parsed query result into the caller-facing
// sequence of parts, resolving a cited timestamp to the stored image.
package response

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/artifact"
	"github.com/fyrsmithlabs/recall/internal/query"
)

// PartType distinguishes image and text parts.
type PartType string

const (
	PartImage PartType = "image"
	PartText  PartType = "text"
)

// Part is one element of a Response.
type Part struct {
	Type PartType `json:"type"`
	// Text is set on text parts.
	Text string `json:"text,omitempty"`
	// Data is the base64-encoded image payload of image parts.
	Data      string `json:"data,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
}

// MarshalJSON emits only the fields of the part's type. A text part always
// carries "text", even when empty.
func (p Part) MarshalJSON() ([]byte, error) {
	if p.Type == PartText {
		return json.Marshal(struct {
			Type PartType `json:"type"`
			Text string   `json:"text"`
		}{p.Type, p.Text})
	}
	type plain Part
	return json.Marshal(plain(p))
}

// Response is zero or one image part followed by exactly one text part.
type Response struct {
	Parts []Part `json:"parts"`
}

// Image returns the image part, or nil.
func (r *Response) Image() *Part {
	for i := range r.Parts {
		if r.Parts[i].Type == PartImage {
			return &r.Parts[i]
		}
	}
	return nil
}

// Text returns the answer text.
func (r *Response) Text() string {
	for _, p := range r.Parts {
		if p.Type == PartText {
			return p.Text
		}
	}
	return ""
}

// Compose orders the parts: the image, when present, comes first so that
// sequential renderers show it before the text. The text part is always
// appended, even when empty.
func Compose(result query.Result, image *Part) *Response {
	parts := make([]Part, 0, 2)
	if image != nil {
		parts = append(parts, *image)
	}
	parts = append(parts, Part{Type: PartText, Text: result.AnswerText})
	return &Response{Parts: parts}
}

// ImageFinder looks up the stored image for a timestamp.
type ImageFinder interface {
	FindImageByTimestamp(ctx context.Context, ts string) (*artifact.Image, error)
}

// Resolver maps cited timestamps to image parts.
type Resolver struct {
	images ImageFinder
	logger *zap.Logger
}

// NewResolver returns a Resolver over images.
func NewResolver(images ImageFinder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{images: images, logger: logger}
}

// Resolve returns the image part for ts. An empty ts returns nil without a
// lookup, and a timestamp with no stored image returns nil so the response
// degrades to text only. Read failures of a matching file are returned.
func (r *Resolver) Resolve(ctx context.Context, ts string) (*Part, error) {
	if ts == "" {
		return nil, nil
	}

	img, err := r.images.FindImageByTimestamp(ctx, ts)
	if errors.Is(err, artifact.ErrNotFound) {
		r.logger.Info("cited image not found", zap.String("timestamp", ts))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &Part{
		Type:      PartImage,
		Data:      base64.StdEncoding.EncodeToString(img.Data),
		MediaType: img.MediaType,
	}, nil
}
