// Package reasoning is the request/response boundary to the external language
// model. The core only sees the Reasoner interface; the Anthropic client is
// one implementation of it.
package reasoning

import "context"

// BlockType distinguishes text and image content.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
)

// Block is one element of a request's content array.
type Block struct {
	Type      BlockType
	Text      string
	MediaType string // images only
	Data      string // base64 payload, images only
}

// TextBlock returns a text content block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// ImageBlock returns a base64 image content block.
func ImageBlock(mediaType, base64Data string) Block {
	return Block{Type: BlockImage, MediaType: mediaType, Data: base64Data}
}

// Request is a single-turn request to the reasoning capability.
type Request struct {
	// Model overrides the client's configured model when non-empty.
	Model     string
	MaxTokens int
	Content   []Block
}

// Reply is a successful response.
type Reply struct {
	// Text concatenates every text block of the response. It is empty when the
	// upstream returned no text block.
	Text         string
	Model        string
	StopReason   string
	InputTokens  int64
	OutputTokens int64
}

// Reasoner sends one request and waits for its reply. Implementations must
// not retry: failures are surfaced as *errs.ReasoningError.
type Reasoner interface {
	Complete(ctx context.Context, req Request) (*Reply, error)
}
