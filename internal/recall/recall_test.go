package recall

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/recall/internal/artifact"
	"github.com/fyrsmithlabs/recall/internal/errs"
	"github.com/fyrsmithlabs/recall/internal/query"
	"github.com/fyrsmithlabs/recall/internal/reasoning/reasoningtest"
	"github.com/fyrsmithlabs/recall/internal/response"
)

func newStore(t *testing.T) *artifact.Store {
	t.Helper()
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	return artifact.NewStore(t.TempDir(), artifact.WithClock(func() time.Time { return fixed }))
}

func TestService_ContextQuery_TextOnly(t *testing.T) {
	store := newStore(t)
	_, err := store.WriteText(context.Background(), artifact.CategoryTranscript, "Lunch with Sam at noon.")
	require.NoError(t, err)

	svc := New(store, reasoningtest.Reply("  You had lunch with Sam.  "), nil)

	resp, err := svc.ContextQuery(context.Background(), "Who did I eat with?")
	require.NoError(t, err)
	require.Len(t, resp.Parts, 1)
	assert.Equal(t, response.PartText, resp.Parts[0].Type)
	assert.Equal(t, "You had lunch with Sam.", resp.Parts[0].Text)
}

func TestService_ContextQuery_CitedImageFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	ts := "2025-01-01-00-00-00"
	png := []byte("\x89PNG fake bytes")

	require.NoError(t, store.WriteTextAt(ctx, artifact.CategoryImageDescription, ts, "Keys on a wooden table."))
	_, err := store.WriteImage(ctx, ts, png, "image/png")
	require.NoError(t, err)

	svc := New(store, reasoningtest.Reply("<answer>On the wooden table.</answer>\n<relevant_image>"+ts+"</relevant_image>"), nil)

	resp, err := svc.ContextQuery(ctx, "Where are my keys?")
	require.NoError(t, err)
	require.Len(t, resp.Parts, 2)

	assert.Equal(t, response.PartImage, resp.Parts[0].Type)
	assert.Equal(t, "image/png", resp.Parts[0].MediaType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(png), resp.Parts[0].Data)

	assert.Equal(t, response.PartText, resp.Parts[1].Type)
	assert.Equal(t, "On the wooden table.", resp.Parts[1].Text)
	assert.NotContains(t, resp.Parts[1].Text, "relevant_image")
}

func TestService_ContextQuery_UnresolvableCitationDegrades(t *testing.T) {
	store := newStore(t)
	svc := New(store, reasoningtest.Reply("<answer>Maybe.</answer><relevant_image>1999-01-01-00-00-00</relevant_image>"), nil)

	resp, err := svc.ContextQuery(context.Background(), "Anything?")
	require.NoError(t, err)
	require.Len(t, resp.Parts, 1)
	assert.Equal(t, "Maybe.", resp.Text())
}

func TestService_ContextQuery_EmptyStore(t *testing.T) {
	svc := New(newStore(t), reasoningtest.Reply(""), nil)

	resp, err := svc.ContextQuery(context.Background(), "What happened?")
	require.NoError(t, err)
	require.Len(t, resp.Parts, 1)
	assert.Equal(t, query.FallbackAnswer, resp.Text())
}

func TestService_ContextQuery_EmptyQuestion(t *testing.T) {
	fake := reasoningtest.Reply("unused")
	svc := New(newStore(t), fake, nil)

	_, err := svc.ContextQuery(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Zero(t, fake.Calls())
}

func TestService_ContextQuery_ImageReadFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	ctx := context.Background()
	store := newStore(t)
	ts := "2025-01-01-00-00-00"
	path, err := store.WriteImage(ctx, ts, []byte("bytes"), "image/png")
	require.NoError(t, err)
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o600) })

	svc := New(store, reasoningtest.Reply("<answer>x</answer><relevant_image>"+ts+"</relevant_image>"), nil)

	_, err = svc.ContextQuery(ctx, "show me")
	require.Error(t, err)
	assert.True(t, errs.IsPersistence(err))
	assert.Contains(t, err.Error(), filepath.Base(path))
}

// stubQuerier returns a fixed result.
type stubQuerier struct{ res query.Result }

func (s stubQuerier) Query(context.Context, string) (*query.Result, error) {
	r := s.res
	return &r, nil
}

func TestNewService_CustomQuerier(t *testing.T) {
	store := newStore(t)
	svc := NewService(stubQuerier{res: query.Result{AnswerText: ""}}, response.NewResolver(store, nil), nil)

	resp, err := svc.ContextQuery(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, resp.Parts, 1)
	assert.Equal(t, "", resp.Parts[0].Text)
}
