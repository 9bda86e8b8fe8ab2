package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
	"lingoblitz/internal/llm"
)

func newTestServer(t *testing.T, svc llm.Service, cfg Config) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(New(svc, cfg, nil).Handler(ctx))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var e llm.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e.Error
}

func TestArticleEndpointStreams(t *testing.T) {
	svc := llm.NewMockService()
	var gotTopic string
	var gotLevel config.Level
	svc.ArticleFunc = func(_ context.Context, topic string, s config.Settings) (article.Stream, error) {
		gotTopic, gotLevel = topic, s.Level
		return &article.StringStream{Chunks: []string{"Mercados\n", "Los mercados ", "abren pronto."}}, nil
	}
	srv := newTestServer(t, svc, Config{})

	resp := post(t, srv.URL+"/api/generate-article", `{"topic":"Markets","settings":{"level":"B1 (Intermediate)"}}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Mercados\nLos mercados abren pronto.", string(body))
	assert.Equal(t, "Markets", gotTopic)
	assert.Equal(t, config.B1, gotLevel)
}

func TestJSONEndpoints(t *testing.T) {
	svc := llm.NewMockService()
	svc.TranslateFunc = func(context.Context, string, config.Language, config.Language) (string, error) { return "", nil }
	srv := newTestServer(t, svc, Config{})

	tests := []struct {
		path string
		body string
		want string
	}{
		{"/api/translate", `{"word":"sol","from":"Spanish","to":"English"}`, `{"translation":"Translation unavailable"}`},
		{"/api/proposals", `{"interests":["Food"],"previouslyBlitzed":[],"count":2}`, `{"proposals":["Topic 1","Topic 2"]}`},
		{"/api/quiz-generate", `{"articleContent":"x"}`, `{"question":"¿De qué trata el artículo?"}`},
		{"/api/quiz-evaluate", `{"articleContent":"x","question":"q","userAnswer":"a"}`, `{"feedback":"¡Correcto! *Muy bien.*"}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, llm.NewMockService(), Config{})

	resp, err := http.Get(srv.URL + "/api/translate")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestBadBody(t *testing.T) {
	srv := newTestServer(t, llm.NewMockService(), Config{})

	resp := post(t, srv.URL+"/api/translate", `{"word":`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", decodeError(t, resp))
}

func TestBackendFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"generic", errors.New("boom"), http.StatusInternalServerError},
		{"rate limited", &llm.ErrRateLimit{Err: errors.New("slow down")}, http.StatusTooManyRequests},
		{"overloaded", &llm.ErrUnavailable{}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := llm.NewMockService()
			svc.QuizFunc = func(context.Context, llm.QuizRequest) (string, error) { return "", tt.err }
			svc.ArticleFunc = func(context.Context, string, config.Settings) (article.Stream, error) { return nil, tt.err }
			srv := newTestServer(t, svc, Config{})

			resp := post(t, srv.URL+"/api/quiz-generate", `{}`)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "Failed to generate quiz", decodeError(t, resp))

			resp = post(t, srv.URL+"/api/generate-article", `{"topic":"x"}`)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "Failed to generate article", decodeError(t, resp))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	srv := newTestServer(t, llm.NewMockService(), Config{RPS: 0.01, Burst: 2})

	for range 2 {
		resp := post(t, srv.URL+"/api/quiz-generate", `{}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := post(t, srv.URL+"/api/quiz-generate", `{}`)

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRequestIDPreserved(t *testing.T) {
	srv := newTestServer(t, llm.NewMockService(), Config{})

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/quiz-generate", strings.NewReader(`{}`))
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestClientAgainstServer(t *testing.T) {
	srv := newTestServer(t, llm.NewMockService(), Config{})
	client := llm.NewHTTPClient(llm.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	ctx := context.Background()

	stream, err := client.GenerateArticle(ctx, "Volcanes", config.Normalize(config.Settings{}))
	require.NoError(t, err)
	a, err := article.Assemble(stream, nil)
	require.NoError(t, err)
	assert.Equal(t, "Volcanes", a.Title)
	assert.Equal(t, "Hoy hablamos de volcanes. Es un tema muy interesante.", a.Content)

	props, err := client.Proposals(ctx, llm.ProposalRequest{Count: 2})
	require.NoError(t, err)
	assert.Len(t, props, 2)

	tr, err := client.Translate(ctx, "luna", config.Spanish, config.English)
	require.NoError(t, err)
	assert.Equal(t, "[luna]", tr)
}

func TestClientAgainstServer_StreamFailureIsAnError(t *testing.T) {
	svc := llm.NewMockService()
	svc.ArticleFunc = func(context.Context, string, config.Settings) (article.Stream, error) {
		return &article.StringStream{Chunks: []string{"Title\n", "Half a bo"}, Err: errors.New("backend died")}, nil
	}
	srv := newTestServer(t, svc, Config{})
	client := llm.NewHTTPClient(llm.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)

	stream, err := client.GenerateArticle(context.Background(), "Volcanes", config.Normalize(config.Settings{}))
	require.NoError(t, err)
	_, err = article.Assemble(stream, nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRecovery(t *testing.T) {
	log := logrus.NewEntry(logrus.New())

	t.Run("panic becomes 500", func(t *testing.T) {
		h := Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("abort is passed on", func(t *testing.T) {
		h := Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) }))
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}
