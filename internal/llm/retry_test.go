package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingoblitz/internal/config"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

// failing returns a translate func that fails with errs in order, then succeeds.
func failing(errs ...error) func(context.Context, string, config.Language, config.Language) (string, error) {
	return func(context.Context, string, config.Language, config.Language) (string, error) {
		if len(errs) == 0 {
			return "casa", nil
		}
		err := errs[0]
		errs = errs[1:]
		return "", err
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := NewMockService()
	s := WithRetry(mock, retryConfig())

	out, err := s.Translate(context.Background(), "house", config.English, config.Spanish)

	require.NoError(t, err)
	assert.Equal(t, "[house]", out)
	assert.Equal(t, 1, mock.CallCount("translate"))
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockService()
	mock.TranslateFunc = failing(&ErrUnavailable{Err: errors.New("overloaded")}, &ErrRateLimit{})
	s := WithRetry(mock, retryConfig())

	out, err := s.Translate(context.Background(), "house", config.English, config.Spanish)

	require.NoError(t, err)
	assert.Equal(t, "casa", out)
	assert.Equal(t, 3, mock.CallCount("translate"))
}

func TestRetry_BoundedAttempts(t *testing.T) {
	mock := NewMockService()
	down := &ErrUnavailable{Err: errors.New("down")}
	mock.TranslateFunc = failing(down, down, down, down)
	s := WithRetry(mock, retryConfig())

	_, err := s.Translate(context.Background(), "house", config.English, config.Spanish)

	var unavailable *ErrUnavailable
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 3, mock.CallCount("translate"))
}

func TestRetry_PermanentNotRetried(t *testing.T) {
	mock := NewMockService()
	mock.QuizFunc = func(context.Context, QuizRequest) (string, error) {
		return "", &ErrStatus{Code: 400, Body: "bad request"}
	}
	s := WithRetry(mock, retryConfig())

	_, err := s.QuizQuestion(context.Background(), QuizRequest{})

	assert.Error(t, err)
	assert.Equal(t, 1, mock.CallCount("quiz-generate"))
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	mock := NewMockService()
	mock.TranslateFunc = failing(&ErrRateLimit{RetryAfter: time.Hour}, nil)
	s := WithRetry(mock, retryConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Translate(ctx, "house", config.English, config.Spanish)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, mock.CallCount("translate"))
}

func TestRetry_UntypedErrorNotRetried(t *testing.T) {
	mock := NewMockService()
	mock.TranslateFunc = failing(fmt.Errorf("encoding request: %w", errors.New("unsupported value")))
	s := WithRetry(mock, retryConfig())

	_, err := s.Translate(context.Background(), "house", config.English, config.Spanish)

	assert.Error(t, err)
	assert.Equal(t, 1, mock.CallCount("translate"))
}

func TestRetry_BackoffRespectsRetryAfterAndCap(t *testing.T) {
	r := &retryService{config: RetryConfig{InitialWait: time.Second, MaxWait: 3 * time.Second, Multiplier: 2}}

	assert.Equal(t, 7*time.Second, r.backoff(0, &ErrRateLimit{RetryAfter: 7 * time.Second}))

	first := r.backoff(0, errors.New("net"))
	assert.InDelta(t, float64(time.Second), float64(first), float64(200*time.Millisecond))

	capped := r.backoff(5, errors.New("net"))
	assert.LessOrEqual(t, capped, 3*time.Second+600*time.Millisecond)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&ErrRateLimit{}))
	assert.True(t, IsTransient(&ErrUnavailable{}))
	assert.True(t, IsTransient(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
	assert.True(t, IsTransient(fmt.Errorf("posting: %w", &ErrUnavailable{})))
	assert.False(t, IsTransient(errors.New("encoding request: unsupported value")))
	assert.False(t, IsTransient(&ErrStatus{Code: 404}))
	assert.False(t, IsTransient(&ErrDecode{Err: errors.New("eof")}))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(nil))
}
