package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
)

// retryService is a decorator that retries transient errors with
// exponential backoff and jitter.
type retryService struct {
	inner  Service
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps a Service with retry logic. Article streams are retried
// only while opening; a stream that fails midway is not restarted.
func WithRetry(s Service, cfg RetryConfig) Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}
	return &retryService{inner: s, config: cfg, sleep: sleepContext}
}

func (r *retryService) GenerateArticle(ctx context.Context, topic string, settings config.Settings) (article.Stream, error) {
	return retry(ctx, r, "generate-article", func() (article.Stream, error) {
		return r.inner.GenerateArticle(ctx, topic, settings)
	})
}

func (r *retryService) Translate(ctx context.Context, word string, from, to config.Language) (string, error) {
	return retry(ctx, r, "translate", func() (string, error) {
		return r.inner.Translate(ctx, word, from, to)
	})
}

func (r *retryService) Proposals(ctx context.Context, req ProposalRequest) ([]string, error) {
	return retry(ctx, r, "proposals", func() ([]string, error) {
		return r.inner.Proposals(ctx, req)
	})
}

func (r *retryService) QuizQuestion(ctx context.Context, req QuizRequest) (string, error) {
	return retry(ctx, r, "quiz-generate", func() (string, error) {
		return r.inner.QuizQuestion(ctx, req)
	})
}

func (r *retryService) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (string, error) {
	return retry(ctx, r, "quiz-evaluate", func() (string, error) {
		return r.inner.EvaluateAnswer(ctx, req)
	})
}

func retry[T any](ctx context.Context, r *retryService, op string, call func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}

		// Last attempt, don't sleep.
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		logrus.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt + 1,
			"wait":    wait,
		}).WithError(err).Warn("transient failure, retrying")

		if err := r.sleep(ctx, wait); err != nil {
			return zero, err
		}
	}

	logrus.WithField("op", op).WithError(lastErr).Errorf("call failed after %d attempts", r.config.MaxAttempts)
	return zero, lastErr
}

// backoff computes the wait duration for the given attempt.
func (r *retryService) backoff(attempt int, err error) time.Duration {
	// Respect RetryAfter for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if r.config.MaxWait > 0 && wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
