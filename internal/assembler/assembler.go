// Package assembler renders the stored lifelog into one text blob that is
// handed to the reasoning capability as context.
//
// A Context is built fresh for every query and never persisted. No size cap
// is applied: the rendering grows with the store.
package assembler

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/artifact"
)

// Lister reads the text artifacts of one category in ascending order.
type Lister interface {
	ListText(ctx context.Context, c artifact.Category) ([]artifact.Artifact, error)
}

// group describes how one category is wrapped in the rendered context.
type group struct {
	category artifact.Category
	wrapper  string
	tag      string
}

var groups = []group{
	{category: artifact.CategoryTranscript, wrapper: "transcripts", tag: "transcript"},
	{category: artifact.CategoryImageDescription, wrapper: "image_descriptions", tag: "image_description"},
}

// Context is the rendered, query-scoped view of the store.
type Context struct {
	Text              string
	Transcripts       int
	ImageDescriptions int
}

// Empty reports whether no artifact contributed to the context.
func (c *Context) Empty() bool {
	return c.Transcripts == 0 && c.ImageDescriptions == 0
}

// String returns the rendered text.
func (c *Context) String() string {
	return c.Text
}

// Assembler builds Contexts from a Lister.
type Assembler struct {
	store  Lister
	logger *zap.Logger
}

// New returns an Assembler reading from store.
func New(store Lister, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{store: store, logger: logger}
}

// Build lists both categories and renders them. Transcripts come first, then
// image descriptions; empty groups are omitted.
func (a *Assembler) Build(ctx context.Context) (*Context, error) {
	out := &Context{}
	rendered := make([]string, 0, len(groups))

	for _, g := range groups {
		items, err := a.store.ListText(ctx, g.category)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", g.category, err)
		}

		switch g.category {
		case artifact.CategoryTranscript:
			out.Transcripts = len(items)
		case artifact.CategoryImageDescription:
			out.ImageDescriptions = len(items)
		}

		if len(items) == 0 {
			continue
		}
		rendered = append(rendered, renderGroup(g, items))
	}

	out.Text = strings.Join(rendered, "\n\n")

	a.logger.Debug("assembled context",
		zap.Int("transcripts", out.Transcripts),
		zap.Int("image_descriptions", out.ImageDescriptions),
		zap.Int("bytes", len(out.Text)))
	return out, nil
}

func renderGroup(g group, items []artifact.Artifact) string {
	var b strings.Builder
	b.WriteString("<" + g.wrapper + ">\n")
	for _, item := range items {
		fmt.Fprintf(&b, "<%s timestamp=%q>\n%s\n</%s>\n", g.tag, item.Timestamp, item.Text, g.tag)
	}
	b.WriteString("</" + g.wrapper + ">")
	return b.String()
}
