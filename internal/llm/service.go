// Package llm provides the generation, translation and evaluation
// capabilities the app consumes, with retry and fallback decorators.
package llm

import (
	"context"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
)

// Service is the set of remote capabilities a session needs.
type Service interface {
	// GenerateArticle streams an article whose first line is the title.
	GenerateArticle(ctx context.Context, topic string, settings config.Settings) (article.Stream, error)
	// Translate returns the common translations of word.
	Translate(ctx context.Context, word string, from, to config.Language) (string, error)
	// Proposals suggests new topics.
	Proposals(ctx context.Context, req ProposalRequest) ([]string, error)
	// QuizQuestion asks one comprehension question about an article body.
	QuizQuestion(ctx context.Context, req QuizRequest) (string, error)
	// EvaluateAnswer grades a learner's answer.
	EvaluateAnswer(ctx context.Context, req EvaluationRequest) (string, error)
}

// ArticleRequest is the body of /api/generate-article.
type ArticleRequest struct {
	Topic    string          `json:"topic"`
	Settings config.Settings `json:"settings"`
}

// TranslateRequest is the body of /api/translate.
type TranslateRequest struct {
	Word string          `json:"word"`
	From config.Language `json:"from"`
	To   config.Language `json:"to"`
}

type TranslateResponse struct {
	Translation string `json:"translation"`
}

// ProposalRequest is the body of /api/proposals.
type ProposalRequest struct {
	Interests []string        `json:"interests"`
	Excluded  []string        `json:"previouslyBlitzed"`
	Count     int             `json:"count"`
	Language  config.Language `json:"language"`
	Level     config.Level    `json:"level"`
}

type ProposalResponse struct {
	Proposals []string `json:"proposals"`
}

// QuizRequest is the body of /api/quiz-generate.
type QuizRequest struct {
	Article  string          `json:"articleContent"`
	Language config.Language `json:"language"`
	Level    config.Level    `json:"level"`
}

type QuizResponse struct {
	Question string `json:"question"`
}

// EvaluationRequest is the body of /api/quiz-evaluate.
type EvaluationRequest struct {
	Article  string          `json:"articleContent"`
	Question string          `json:"question"`
	Answer   string          `json:"userAnswer"`
	Language config.Language `json:"language"`
	Level    config.Level    `json:"level"`
}

type EvaluationResponse struct {
	Feedback string `json:"feedback"`
}

// ErrorResponse is the JSON body of a failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}
