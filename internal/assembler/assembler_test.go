package assembler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/recall/internal/artifact"
	"github.com/fyrsmithlabs/recall/internal/errs"
)

type failingLister struct {
	err error
}

func (f *failingLister) ListText(context.Context, artifact.Category) ([]artifact.Artifact, error) {
	return nil, f.err
}

func newStore(t *testing.T) *artifact.Store {
	t.Helper()
	return artifact.NewStore(t.TempDir())
}

func TestBuild_EmptyStore(t *testing.T) {
	a := New(newStore(t), nil)

	got, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.Equal(t, "", got.Text)
}

func TestBuild_RendersGroupsInOrder(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.WriteTextAt(ctx, artifact.CategoryImageDescription, "2025-01-01-00-00-05", "a whiteboard"))
	require.NoError(t, store.WriteTextAt(ctx, artifact.CategoryTranscript, "2025-01-01-00-00-09", "see you tomorrow"))
	require.NoError(t, store.WriteTextAt(ctx, artifact.CategoryTranscript, "2025-01-01-00-00-01", "good morning"))

	got, err := New(store, nil).Build(ctx)
	require.NoError(t, err)

	want := `<transcripts>
<transcript timestamp="2025-01-01-00-00-01">
good morning
</transcript>
<transcript timestamp="2025-01-01-00-00-09">
see you tomorrow
</transcript>
</transcripts>

<image_descriptions>
<image_description timestamp="2025-01-01-00-00-05">
a whiteboard
</image_description>
</image_descriptions>`
	assert.Equal(t, want, got.Text)
	assert.Equal(t, 2, got.Transcripts)
	assert.Equal(t, 1, got.ImageDescriptions)
}

func TestBuild_OmitsEmptyGroup(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.WriteTextAt(ctx, artifact.CategoryImageDescription, "2025-01-01-00-00-05", "a bicycle"))

	got, err := New(store, nil).Build(ctx)
	require.NoError(t, err)
	assert.NotContains(t, got.Text, "<transcripts>")
	assert.True(t, strings.HasPrefix(got.Text, "<image_descriptions>"))
}

func TestBuild_PreservesChronologicalOrder(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 4, 30, 23, 59, 57, 0, time.Local)
	var tick int
	store := artifact.NewStore(t.TempDir(), artifact.WithClock(func() time.Time {
		now := start.Add(time.Duration(tick) * time.Second)
		tick++
		return now
	}))

	var stamps []string
	for i := 0; i < 5; i++ {
		ts, err := store.WriteText(ctx, artifact.CategoryTranscript, "utterance")
		require.NoError(t, err)
		stamps = append(stamps, ts)
	}

	got, err := New(store, nil).Build(ctx)
	require.NoError(t, err)

	last := -1
	for _, ts := range stamps {
		idx := strings.Index(got.Text, ts)
		require.GreaterOrEqual(t, idx, 0, ts)
		assert.Greater(t, idx, last, "timestamp %s out of order", ts)
		last = idx
	}
}

func TestBuild_PropagatesListError(t *testing.T) {
	listErr := errs.Persistence("list", "/data/transcripts", errors.New("io failure"))
	a := New(&failingLister{err: listErr}, nil)

	_, err := a.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsPersistence(err))
}
