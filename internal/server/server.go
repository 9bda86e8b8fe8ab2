// Package server exposes the generation capabilities as a JSON-over-HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"lingoblitz/internal/config"
	"lingoblitz/internal/llm"
)

// Config holds the listener and rate limit settings.
type Config struct {
	Addr  string
	RPS   float64
	Burst int
}

// ConfigFromViper reads the server.* keys.
func ConfigFromViper() Config {
	return Config{
		Addr:  viper.GetString("server.addr"),
		RPS:   viper.GetFloat64("server.rps"),
		Burst: viper.GetInt("server.burst"),
	}
}

// Server serves /api/* on top of a backend Service.
type Server struct {
	svc llm.Service
	cfg Config
	log *logrus.Entry
}

func New(svc llm.Service, cfg Config, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{svc: svc, cfg: cfg, log: log.WithField("component", "server")}
}

// Handler returns the routed, middleware-wrapped API. The rate limiter's
// housekeeping stops with ctx.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate-article", s.postOnly(s.handleArticle))
	mux.HandleFunc("/api/translate", s.postOnly(s.handleTranslate))
	mux.HandleFunc("/api/proposals", s.postOnly(s.handleProposals))
	mux.HandleFunc("/api/quiz-generate", s.postOnly(s.handleQuiz))
	mux.HandleFunc("/api/quiz-evaluate", s.postOnly(s.handleEvaluate))

	middlewares := []Middleware{RequestID(), Recovery(s.log), RequestLogger(s.log)}
	if s.cfg.RPS > 0 {
		middlewares = append(middlewares, RateLimiter(ctx, s.cfg.RPS, max(s.cfg.Burst, 1), s.log))
	}
	return Chain(mux, middlewares...)
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	var req llm.ArticleRequest
	if !s.decode(w, r, &req) {
		return
	}

	stream, err := s.svc.GenerateArticle(r.Context(), req.Topic, config.Normalize(req.Settings))
	if err != nil {
		s.fail(w, r, err, "Failed to generate article")
		return
	}
	if c, ok := stream.(io.Closer); ok {
		defer c.Close()
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// Headers are gone; abort the connection so the client cannot
			// mistake a truncated body for a finished article.
			s.entry(r).WithError(err).Error("article stream failed")
			panic(http.ErrAbortHandler)
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			s.entry(r).WithError(err).Debug("client went away")
			return
		}
		if err := rc.Flush(); err != nil {
			s.entry(r).WithError(err).Debug("flush failed")
		}
	}
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req llm.TranslateRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.svc.Translate(r.Context(), req.Word, req.From, req.To)
	if err != nil {
		s.fail(w, r, err, "Failed to translate word")
		return
	}
	writeJSON(w, llm.TranslateResponse{Translation: orDefault(out, llm.TranslationUnavailable)})
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	var req llm.ProposalRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.svc.Proposals(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to generate proposals")
		return
	}
	if out == nil {
		out = []string{}
	}
	writeJSON(w, llm.ProposalResponse{Proposals: out})
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req llm.QuizRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.svc.QuizQuestion(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to generate quiz")
		return
	}
	writeJSON(w, llm.QuizResponse{Question: orDefault(out, llm.FallbackQuestion)})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req llm.EvaluationRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.svc.EvaluateAnswer(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to evaluate quiz")
		return
	}
	writeJSON(w, llm.EvaluationResponse{Feedback: orDefault(out, llm.FallbackFeedback)})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		s.entry(r).WithError(err).Warn("bad request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// fail reports a backend error. Rate limits and overload are passed through
// so clients back off; everything else is a 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	s.entry(r).WithError(err).Error(msg)

	var rl *llm.ErrRateLimit
	var unavailable *llm.ErrUnavailable
	switch {
	case errors.As(err, &rl):
		writeError(w, http.StatusTooManyRequests, msg)
	case errors.As(err, &unavailable):
		writeError(w, http.StatusServiceUnavailable, msg)
	default:
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func (s *Server) entry(r *http.Request) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": RequestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(llm.ErrorResponse{Error: msg})
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
