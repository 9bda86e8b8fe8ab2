package llm

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
)

// Placeholders shown when a capability keeps failing.
const (
	TranslationUnavailable = "Translation unavailable"
	FallbackQuestion       = "What did you learn from this article?"
	FallbackFeedback       = "Error evaluating your answer. Please try again."
)

var failureSentinels = []string{"translation failed", "translation unavailable"}

// IsFailureSentinel reports whether a translation is really an error message
// and must not be captured as vocabulary.
func IsFailureSentinel(translation string) bool {
	lower := strings.ToLower(translation)
	for _, s := range failureSentinels {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

type fallbackService struct {
	inner Service
}

// WithFallback converts failures into static placeholders so callers never
// see an error, except from GenerateArticle: the session turns a failed
// article into its own error article.
func WithFallback(s Service) Service {
	return &fallbackService{inner: s}
}

func (f *fallbackService) GenerateArticle(ctx context.Context, topic string, settings config.Settings) (article.Stream, error) {
	return f.inner.GenerateArticle(ctx, topic, settings)
}

func (f *fallbackService) Translate(ctx context.Context, word string, from, to config.Language) (string, error) {
	out, err := f.inner.Translate(ctx, word, from, to)
	if err != nil || strings.TrimSpace(out) == "" {
		logFallback("translate", err)
		return TranslationUnavailable, nil
	}
	return out, nil
}

func (f *fallbackService) Proposals(ctx context.Context, req ProposalRequest) ([]string, error) {
	out, err := f.inner.Proposals(ctx, req)
	if err != nil {
		logFallback("proposals", err)
		return []string{}, nil
	}
	return out, nil
}

func (f *fallbackService) QuizQuestion(ctx context.Context, req QuizRequest) (string, error) {
	out, err := f.inner.QuizQuestion(ctx, req)
	if err != nil || strings.TrimSpace(out) == "" {
		logFallback("quiz-generate", err)
		return FallbackQuestion, nil
	}
	return out, nil
}

func (f *fallbackService) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (string, error) {
	out, err := f.inner.EvaluateAnswer(ctx, req)
	if err != nil || strings.TrimSpace(out) == "" {
		logFallback("quiz-evaluate", err)
		return FallbackFeedback, nil
	}
	return out, nil
}

func logFallback(op string, err error) {
	entry := logrus.WithField("op", op)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("using placeholder")
}
