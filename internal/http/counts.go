package http

import (
	"context"

	"github.com/fyrsmithlabs/recall/internal/artifact"
)

// Lister lists stored text artifacts.
type Lister interface {
	ListText(ctx context.Context, c artifact.Category) ([]artifact.Artifact, error)
}

// CountArtifacts counts stored transcripts and image descriptions.
//
// Returns (-1, -1) if l is nil or either listing fails.
func CountArtifacts(ctx context.Context, l Lister) (transcripts int, descriptions int) {
	if l == nil {
		return -1, -1
	}

	t, err := l.ListText(ctx, artifact.CategoryTranscript)
	if err != nil {
		return -1, -1
	}
	d, err := l.ListText(ctx, artifact.CategoryImageDescription)
	if err != nil {
		return -1, -1
	}
	return len(t), len(d)
}
