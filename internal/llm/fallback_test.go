package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
)

func TestFallback_Placeholders(t *testing.T) {
	boom := errors.New("boom")
	mock := &MockService{
		TranslateFunc: func(context.Context, string, config.Language, config.Language) (string, error) { return "", boom },
		ProposalsFunc: func(context.Context, ProposalRequest) ([]string, error) { return nil, boom },
		QuizFunc:      func(context.Context, QuizRequest) (string, error) { return "  ", nil },
		EvaluateFunc:  func(context.Context, EvaluationRequest) (string, error) { return "", boom },
	}
	s := WithFallback(mock)
	ctx := context.Background()

	tr, err := s.Translate(ctx, "casa", config.Spanish, config.English)
	require.NoError(t, err)
	assert.Equal(t, TranslationUnavailable, tr)

	props, err := s.Proposals(ctx, ProposalRequest{Count: 2})
	require.NoError(t, err)
	assert.NotNil(t, props)
	assert.Empty(t, props)

	q, err := s.QuizQuestion(ctx, QuizRequest{})
	require.NoError(t, err)
	assert.Equal(t, FallbackQuestion, q)

	fb, err := s.EvaluateAnswer(ctx, EvaluationRequest{})
	require.NoError(t, err)
	assert.Equal(t, FallbackFeedback, fb)
}

func TestFallback_ArticleErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockService()
	mock.ArticleFunc = func(context.Context, string, config.Settings) (article.Stream, error) { return nil, boom }

	_, err := WithFallback(mock).GenerateArticle(context.Background(), "Food", config.Settings{})

	assert.ErrorIs(t, err, boom)
}

func TestIsFailureSentinel(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Translation unavailable", true},
		{"TRANSLATION FAILED: timeout", true},
		{"house, home", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsFailureSentinel(tt.in), tt.in)
	}
}
