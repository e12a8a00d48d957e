package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/artifact"
	httpserver "github.com/fyrsmithlabs/recall/internal/http"
	"github.com/fyrsmithlabs/recall/internal/ingest"
	"github.com/fyrsmithlabs/recall/internal/reasoning"
	"github.com/fyrsmithlabs/recall/internal/reasoning/reasoningtest"
	"github.com/fyrsmithlabs/recall/internal/recall"
)

// startServer runs the real HTTP API over a temp store.
func startServer(t *testing.T, reasoner reasoning.Reasoner) (*httptest.Server, *artifact.Store) {
	t.Helper()
	store := artifact.NewStore(t.TempDir())
	srv, err := httpserver.NewServer(
		ingest.NewService(store, reasoner, nil),
		recall.New(store, reasoner, nil),
		zap.NewNop(),
		&httpserver.Config{Version: "test"},
		httpserver.WithArtifactCounts(store),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

// run executes recallctl with args against serverURL.
func run(t *testing.T, serverURL string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", serverURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestHealth(t *testing.T) {
	ts, _ := startServer(t, reasoning.Unconfigured{})

	out, err := run(t, ts.URL, "", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Server Status: ok")
	assert.Contains(t, out, ts.URL)
}

func TestHealth_ServerDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := run(t, url, "", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
}

func TestTranscript(t *testing.T) {
	ts, store := startServer(t, reasoning.Unconfigured{})

	t.Run("from args", func(t *testing.T) {
		out, err := run(t, ts.URL, "", "transcript", "call", "the", "dentist")
		require.NoError(t, err)
		assert.Contains(t, out, "Stored transcript ")
	})

	t.Run("from stdin", func(t *testing.T) {
		_, err := run(t, ts.URL, "parking on level 3\n", "transcript", "-")
		require.NoError(t, err)
	})

	t.Run("blank is rejected with the field", func(t *testing.T) {
		_, err := run(t, ts.URL, "   ", "transcript", "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
		assert.Contains(t, err.Error(), "field transcript")
	})

	got, err := store.ListText(context.Background(), artifact.CategoryTranscript)
	require.NoError(t, err)
	texts := make([]string, 0, len(got))
	for _, a := range got {
		texts = append(texts, strings.TrimSpace(a.Text))
	}
	assert.Contains(t, texts, "parking on level 3")
}

func TestImage(t *testing.T) {
	ts, store := startServer(t, reasoningtest.Reply("a red umbrella by the door"))
	path := filepath.Join(t.TempDir(), "snap.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o600))

	out, err := run(t, ts.URL, "", "image", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(image/jpeg)")
	assert.Contains(t, out, "Description: a red umbrella by the door")

	got, err := store.ListText(context.Background(), artifact.CategoryImageDescription)
	require.NoError(t, err)
	require.Len(t, got, 1)
	img, err := store.FindImageByTimestamp(context.Background(), got[0].Timestamp)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), img.Data)
}

func TestImage_Unconfigured(t *testing.T) {
	ts, _ := startServer(t, reasoning.Unconfigured{})
	path := filepath.Join(t.TempDir(), "snap.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	_, err := run(t, ts.URL, "", "image", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestAsk(t *testing.T) {
	ts, store := startServer(t, reasoningtest.Reply("<answer>Under the sofa.</answer><relevant_image>2025-04-04-18-00-00</relevant_image>"))
	ctx := context.Background()
	_, err := store.WriteImage(ctx, "2025-04-04-18-00-00", []byte("sofa-png"), "image/png")
	require.NoError(t, err)
	require.NoError(t, store.WriteTextAt(ctx, artifact.CategoryImageDescription, "2025-04-04-18-00-00", "a remote under the sofa"))

	saved := filepath.Join(t.TempDir(), "cited.png")
	out, err := run(t, ts.URL, "", "ask", "--save-image", saved, "where is the remote?")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "image/png")
	assert.Equal(t, "Under the sofa.", lines[1])

	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, []byte("sofa-png"), data)
}

func TestStatus(t *testing.T) {
	ts, store := startServer(t, reasoning.Unconfigured{})
	_, err := store.WriteText(context.Background(), artifact.CategoryTranscript, "hello")
	require.NoError(t, err)

	out, err := run(t, ts.URL, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:            test")
	assert.Contains(t, out, "Transcripts:        1")
	assert.Contains(t, out, "Image descriptions: 0")
}

func TestCount(t *testing.T) {
	assert.Equal(t, "unknown", count(-1))
	assert.Equal(t, "3", count(3))
}
