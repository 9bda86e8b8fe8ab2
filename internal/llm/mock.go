package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
)

// MockService is a deterministic Service for tests and offline runs. Each
// capability can be overridden; the defaults answer with canned text. All
// calls are recorded by capability name.
type MockService struct {
	ArticleFunc   func(ctx context.Context, topic string, settings config.Settings) (article.Stream, error)
	TranslateFunc func(ctx context.Context, word string, from, to config.Language) (string, error)
	ProposalsFunc func(ctx context.Context, req ProposalRequest) ([]string, error)
	QuizFunc      func(ctx context.Context, req QuizRequest) (string, error)
	EvaluateFunc  func(ctx context.Context, req EvaluationRequest) (string, error)

	mu    sync.Mutex
	calls []string
	seq   int
}

func NewMockService() *MockService {
	return &MockService{}
}

func (m *MockService) GenerateArticle(ctx context.Context, topic string, settings config.Settings) (article.Stream, error) {
	m.record("generate-article")
	if m.ArticleFunc != nil {
		return m.ArticleFunc(ctx, topic, settings)
	}
	return &article.StringStream{Chunks: []string{
		topic + "\n",
		"Hoy hablamos de " + strings.ToLower(topic) + ". ",
		"Es un tema muy interesante.",
	}}, nil
}

func (m *MockService) Translate(ctx context.Context, word string, from, to config.Language) (string, error) {
	m.record("translate")
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, word, from, to)
	}
	return "[" + word + "]", nil
}

func (m *MockService) Proposals(ctx context.Context, req ProposalRequest) ([]string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, "proposals")
	start := m.seq
	m.seq += req.Count
	m.mu.Unlock()

	if m.ProposalsFunc != nil {
		return m.ProposalsFunc(ctx, req)
	}
	out := make([]string, 0, req.Count)
	for i := range req.Count {
		out = append(out, fmt.Sprintf("Topic %d", start+i+1))
	}
	return out, nil
}

func (m *MockService) QuizQuestion(ctx context.Context, req QuizRequest) (string, error) {
	m.record("quiz-generate")
	if m.QuizFunc != nil {
		return m.QuizFunc(ctx, req)
	}
	return "¿De qué trata el artículo?", nil
}

func (m *MockService) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (string, error) {
	m.record("quiz-evaluate")
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, req)
	}
	return "¡Correcto! *Muy bien.*", nil
}

// Calls returns the capability names invoked so far, in order.
func (m *MockService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how often capability op was invoked.
func (m *MockService) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (m *MockService) record(op string) {
	m.mu.Lock()
	m.calls = append(m.calls, op)
	m.mu.Unlock()
}
