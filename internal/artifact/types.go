package artifact

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no artifact matches a lookup. It describes a
// normal absence, not a failure.
var ErrNotFound = errors.New("artifact: not found")

// Category names one of the two text streams.
type Category string

const (
	// CategoryTranscript holds speech-to-text transcripts.
	CategoryTranscript Category = "transcripts"
	// CategoryImageDescription holds generated image descriptions, next to the images.
	CategoryImageDescription Category = "images"
)

// Categories lists every category in context order.
func Categories() []Category {
	return []Category{CategoryTranscript, CategoryImageDescription}
}

// Validate checks that c is a known category.
func (c Category) Validate() error {
	switch c {
	case CategoryTranscript, CategoryImageDescription:
		return nil
	default:
		return fmt.Errorf("artifact: unknown category %q", string(c))
	}
}

// Artifact is one persisted unit of text.
type Artifact struct {
	Category  Category `json:"category"`
	Timestamp string   `json:"timestamp"`
	Text      string   `json:"text"`
}

// Image is the binary sibling of an image description.
type Image struct {
	Timestamp string `json:"timestamp"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"-"`
	Path      string `json:"path"`
}
