package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
)

// HTTPClient talks to the JSON-over-HTTP API served by `lingoblitz serve`.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewHTTPClient creates a client for the API at cfg.BaseURL. hc may be nil.
func NewHTTPClient(cfg Config, hc *http.Client) *HTTPClient {
	if hc == nil {
		// No client-wide timeout: article streams may run for a while.
		hc = &http.Client{}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http:    hc,
	}
}

func (c *HTTPClient) GenerateArticle(ctx context.Context, topic string, settings config.Settings) (article.Stream, error) {
	resp, err := c.do(ctx, "/api/generate-article", ArticleRequest{Topic: topic, Settings: settings})
	if err != nil {
		return nil, err
	}
	return &bodyStream{body: resp.Body, buf: make([]byte, 4096)}, nil
}

func (c *HTTPClient) Translate(ctx context.Context, word string, from, to config.Language) (string, error) {
	var out TranslateResponse
	if err := c.call(ctx, "/api/translate", TranslateRequest{Word: word, From: from, To: to}, &out); err != nil {
		return "", err
	}
	return out.Translation, nil
}

func (c *HTTPClient) Proposals(ctx context.Context, req ProposalRequest) ([]string, error) {
	var out ProposalResponse
	if err := c.call(ctx, "/api/proposals", req, &out); err != nil {
		return nil, err
	}
	if req.Count > 0 && len(out.Proposals) > req.Count {
		out.Proposals = out.Proposals[:req.Count]
	}
	return out.Proposals, nil
}

func (c *HTTPClient) QuizQuestion(ctx context.Context, req QuizRequest) (string, error) {
	var out QuizResponse
	if err := c.call(ctx, "/api/quiz-generate", req, &out); err != nil {
		return "", err
	}
	return out.Question, nil
}

func (c *HTTPClient) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (string, error) {
	var out EvaluationResponse
	if err := c.call(ctx, "/api/quiz-evaluate", req, &out); err != nil {
		return "", err
	}
	return out.Feedback, nil
}

// call posts in and decodes the JSON answer into out.
func (c *HTTPClient) call(ctx context.Context, path string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.do(ctx, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ErrDecode{Err: err}
	}
	return nil
}

// do posts in as JSON and maps failure statuses to typed errors. The caller
// owns the body of a successful response.
func (c *HTTPClient) do(ctx context.Context, path string, in any) (*http.Response, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ErrUnavailable{Err: err}
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}

	defer resp.Body.Close()
	msg := readError(resp.Body)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ErrRateLimit{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        errors.New(msg),
		}
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, &ErrUnavailable{Err: errors.New(msg)}
	default:
		return nil, &ErrStatus{Code: resp.StatusCode, Body: msg}
	}
}

func readError(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e ErrorResponse
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(raw))
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// bodyStream yields a streamed text/plain body chunk by chunk, never
// splitting a UTF-8 sequence across chunks.
type bodyStream struct {
	body    io.ReadCloser
	buf     []byte
	pending []byte
	err     error
}

func (s *bodyStream) Recv() (string, error) {
	for s.err == nil {
		n, err := s.body.Read(s.buf)
		s.err = err
		if n == 0 {
			continue
		}
		data := append(s.pending, s.buf[:n]...)
		cut := completePrefix(data)
		s.pending = append([]byte(nil), data[cut:]...)
		if cut > 0 {
			return string(data[:cut]), nil
		}
	}

	if len(s.pending) > 0 {
		rest := string(s.pending)
		s.pending = nil
		return rest, nil
	}
	s.body.Close()
	if errors.Is(s.err, io.EOF) {
		return "", io.EOF
	}
	return "", fmt.Errorf("reading article stream: %w", s.err)
}

// Close releases the body of an abandoned stream.
func (s *bodyStream) Close() error {
	return s.body.Close()
}

// completePrefix returns the length of b without a trailing partial rune.
func completePrefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}
