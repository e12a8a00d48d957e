package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/recall/internal/artifact"
	"github.com/fyrsmithlabs/recall/internal/errs"
	"github.com/fyrsmithlabs/recall/internal/ingest"
	"github.com/fyrsmithlabs/recall/internal/logging"
	"github.com/fyrsmithlabs/recall/internal/reasoning"
	"github.com/fyrsmithlabs/recall/internal/reasoning/reasoningtest"
	"github.com/fyrsmithlabs/recall/internal/recall"
)

type testEnv struct {
	server   *Server
	store    *artifact.Store
	reasoner *reasoningtest.Fake
}

// setupTestServer wires a server over a temp store with a fake reasoner
// answering replies in order.
func setupTestServer(t *testing.T, replies ...string) *testEnv {
	t.Helper()
	if len(replies) == 0 {
		replies = []string{"<answer>ok</answer>"}
	}

	next := time.Date(2025, 1, 1, 12, 0, 0, 0, time.Local)
	store := artifact.NewStore(t.TempDir(), artifact.WithClock(func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}))
	reasoner := reasoningtest.Reply(replies...)

	server, err := NewServer(
		ingest.NewService(store, reasoner, nil),
		recall.New(store, reasoner, nil),
		zap.NewNop(),
		&Config{Host: "localhost", Port: 9090, Version: "test"},
		WithArtifactCounts(store),
	)
	require.NoError(t, err)
	return &testEnv{server: server, store: store, reasoner: reasoner}
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestNewServer(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	ing := ingest.NewService(store, reasoning.Unconfigured{}, nil)
	q := recall.New(store, reasoning.Unconfigured{}, nil)

	t.Run("creates server with valid config", func(t *testing.T) {
		cfg := &Config{Host: "localhost", Port: 9090}
		server, err := NewServer(ing, q, zap.NewNop(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, server.echo)
		assert.Equal(t, cfg, server.config)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(ing, q, zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 9090, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(ing, q, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when ingester is nil", func(t *testing.T) {
		_, err := NewServer(nil, q, zap.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ingester cannot be nil")
	})

	t.Run("returns error when querier is nil", func(t *testing.T) {
		_, err := NewServer(ing, nil, zap.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "querier cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t)

	rec := doJSON(t, env.server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleTranscript(t *testing.T) {
	t.Run("stores transcript", func(t *testing.T) {
		env := setupTestServer(t)

		rec := doJSON(t, env.server, http.MethodPost, "/api/v1/transcripts", TranscriptRequest{Transcript: "meet at noon"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp ReceiptResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ingest.KindTranscript, resp.Kind)
		assert.Equal(t, "2025-01-01-12-00-00", resp.Timestamp)

		got, err := env.store.ListText(context.Background(), artifact.CategoryTranscript)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "meet at noon", got[0].Text)
	})

	t.Run("blank transcript is a 400 naming the field", func(t *testing.T) {
		env := setupTestServer(t)

		rec := doJSON(t, env.server, http.MethodPost, "/api/v1/transcripts", TranscriptRequest{Transcript: "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "transcript", decodeError(t, rec).Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		env := setupTestServer(t)

		rec := doJSON(t, env.server, http.MethodPost, "/api/v1/transcripts", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

	t.Run("json body", func(t *testing.T) {
		env := setupTestServer(t, "a coffee mug on a desk")

		rec := doJSON(t, env.server, http.MethodPost, "/api/v1/images", ImageRequest{
			Image:     base64.StdEncoding.EncodeToString(png),
			MediaType: "image/png",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp ReceiptResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ingest.KindImage, resp.Kind)
		assert.Equal(t, "a coffee mug on a desk", resp.Description)

		img, err := env.store.FindImageByTimestamp(context.Background(), resp.Timestamp)
		require.NoError(t, err)
		assert.Equal(t, png, img.Data)
	})

	t.Run("raw body", func(t *testing.T) {
		env := setupTestServer(t, "a parked car")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/images", bytes.NewReader([]byte("jpeg-bytes")))
		req.Header.Set(echo.HeaderContentType, "image/jpeg")
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp ReceiptResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "image/jpeg", resp.MediaType)

		img, err := env.store.FindImageByTimestamp(context.Background(), resp.Timestamp)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", img.MediaType)
	})

	t.Run("raw body content type is normalized", func(t *testing.T) {
		env := setupTestServer(t, "a receipt on a table")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/images", bytes.NewReader([]byte("jpeg-bytes")))
		req.Header.Set(echo.HeaderContentType, "Image/JPG; charset=binary")
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp ReceiptResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "image/jpeg", resp.MediaType)

		reqs := env.reasoner.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "image/jpeg", reqs[0].Content[0].MediaType)
	})

	t.Run("invalid base64", func(t *testing.T) {
		env := setupTestServer(t)

		rec := doJSON(t, env.server, http.MethodPost, "/api/v1/images", ImageRequest{Image: "not base64!"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "image", decodeError(t, rec).Field)
		assert.Zero(t, env.reasoner.Calls())
	})

	t.Run("unconfigured reasoning is a 503", func(t *testing.T) {
		store := artifact.NewStore(t.TempDir())
		server, err := NewServer(
			ingest.NewService(store, reasoning.Unconfigured{}, nil),
			recall.New(store, reasoning.Unconfigured{}, nil),
			zap.NewNop(), nil)
		require.NoError(t, err)

		rec := doJSON(t, server, http.MethodPost, "/api/v1/images", ImageRequest{
			Image: base64.StdEncoding.EncodeToString(png),
		})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error, "REASONING_API_KEY")
	})
}

func TestHandleQuery(t *testing.T) {
	t.Run("image then text", func(t *testing.T) {
		env := setupTestServer(t, "<answer>By the window.</answer><relevant_image>2025-01-01-08-00-00</relevant_image>")
		ctx := context.Background()
		_, err := env.store.WriteImage(ctx, "2025-01-01-08-00-00", []byte("img"), "image/png")
		require.NoError(t, err)
		require.NoError(t, env.store.WriteTextAt(ctx, artifact.CategoryImageDescription, "2025-01-01-08-00-00", "a plant by the window"))

		rec := doJSON(t, env.server, http.MethodPost, "/api/v1/query", QueryRequest{Question: "where is the plant?"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body struct {
			Parts []map[string]string `json:"parts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Parts, 2)
		assert.Equal(t, "image", body.Parts[0]["type"])
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("img")), body.Parts[0]["data"])
		assert.Equal(t, "image/png", body.Parts[0]["mediaType"])
		assert.Equal(t, "text", body.Parts[1]["type"])
		assert.Equal(t, "By the window.", body.Parts[1]["text"])
	})

	t.Run("empty question", func(t *testing.T) {
		env := setupTestServer(t)

		rec := doJSON(t, env.server, http.MethodPost, "/api/v1/query", QueryRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "question", decodeError(t, rec).Field)
		assert.Zero(t, env.reasoner.Calls())
	})

	t.Run("reasoning failure is a 502 with upstream status", func(t *testing.T) {
		store := artifact.NewStore(t.TempDir())
		failing := reasoningtest.Failing(&errs.ReasoningError{Status: 529, Message: "overloaded"})
		server, err := NewServer(
			ingest.NewService(store, failing, nil),
			recall.New(store, failing, nil),
			zap.NewNop(), nil)
		require.NoError(t, err)

		rec := doJSON(t, server, http.MethodPost, "/api/v1/query", QueryRequest{Question: "anything?"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, 529, decodeError(t, rec).UpstreamStatus)
	})
}

func TestHandleStatus(t *testing.T) {
	env := setupTestServer(t, "a description")
	ctx := context.Background()
	_, err := env.store.WriteText(ctx, artifact.CategoryTranscript, "one")
	require.NoError(t, err)
	_, err = env.store.WriteText(ctx, artifact.CategoryTranscript, "two")
	require.NoError(t, err)
	_, err = env.store.WriteText(ctx, artifact.CategoryImageDescription, "three")
	require.NoError(t, err)

	rec := doJSON(t, env.server, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, 2, resp.Counts.Transcripts)
	assert.Equal(t, 1, resp.Counts.ImageDescriptions)
}

func TestCountArtifacts_NilLister(t *testing.T) {
	transcripts, descriptions := CountArtifacts(context.Background(), nil)
	assert.Equal(t, -1, transcripts)
	assert.Equal(t, -1, descriptions)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestServer(t)

	rec := doJSON(t, env.server, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestWithMCPHandler(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	server, err := NewServer(
		ingest.NewService(store, reasoning.Unconfigured{}, nil),
		recall.New(store, reasoning.Unconfigured{}, nil),
		zap.NewNop(), nil, WithMCPHandler(mcpHandler))
	require.NoError(t, err)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		rec := doJSON(t, server, method, "/mcp", nil)
		assert.Equal(t, http.StatusTeapot, rec.Code, method)
	}
}

func TestServerLifecycle(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	server, err := NewServer(
		ingest.NewService(store, reasoning.Unconfigured{}, nil),
		recall.New(store, reasoning.Unconfigured{}, nil),
		zap.NewNop(), &Config{Host: "localhost", Port: 0})
	require.NoError(t, err)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-errChan:
		assert.True(t, err == nil || err == http.ErrServerClosed)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestMiddleware(t *testing.T) {
	t.Run("adds request ID to response and logs", func(t *testing.T) {
		store := artifact.NewStore(t.TempDir())
		logger := logging.NewTestLogger()
		server, err := NewServer(
			ingest.NewService(store, reasoning.Unconfigured{}, nil),
			recall.New(store, reasoning.Unconfigured{}, nil),
			logger.Underlying(), nil)
		require.NoError(t, err)

		rec := doJSON(t, server, http.MethodGet, "/health", nil)
		id := rec.Header().Get(echo.HeaderXRequestID)
		require.NotEmpty(t, id)

		logger.AssertLogged(t, zapcore.InfoLevel, "http request")
		logger.AssertField(t, "http request", "request.id", id)
	})

	t.Run("recovers from panic", func(t *testing.T) {
		env := setupTestServer(t)
		env.server.echo.GET("/panic", func(c echo.Context) error {
			panic("test panic")
		})

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			env.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", errs.InvalidInput("question", "must not be empty"), http.StatusBadRequest},
		{"missing configuration", errs.MissingConfiguration("reasoning.api_key", "REASONING_API_KEY"), http.StatusServiceUnavailable},
		{"reasoning", &errs.ReasoningError{Message: "connection refused"}, http.StatusBadGateway},
		{"persistence", errs.Persistence("read", "/data/x.txt", context.DeadlineExceeded), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}
