package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
)

// OpenAIService implements Service directly on the OpenAI chat API.
type OpenAIService struct {
	client *openai.Client
	model  string
}

// NewOpenAIService creates the backend used by `lingoblitz serve`.
func NewOpenAIService(cfg OpenAIConfig) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIService{client: openai.NewClientWithConfig(oc), model: model}, nil
}

func (s *OpenAIService) GenerateArticle(ctx context.Context, topic string, settings config.Settings) (article.Stream, error) {
	p := articlePrompt(topic, settings)
	stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    p.messages(),
		Temperature: articleTemperature,
		Stream:      true,
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	return &openaiStream{stream: stream}, nil
}

func (s *OpenAIService) Translate(ctx context.Context, word string, from, to config.Language) (string, error) {
	return s.complete(ctx, translatePrompt(word, from, to), translateTemperature, translateMaxTokens)
}

func (s *OpenAIService) Proposals(ctx context.Context, req ProposalRequest) ([]string, error) {
	content, err := s.complete(ctx, proposalPrompt(req), proposalTemperature, 0)
	if err != nil {
		return nil, err
	}
	return parseProposals(content, req.Count), nil
}

func (s *OpenAIService) QuizQuestion(ctx context.Context, req QuizRequest) (string, error) {
	return s.complete(ctx, quizPrompt(req), quizTemperature, 0)
}

func (s *OpenAIService) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (string, error) {
	return s.complete(ctx, evaluationPrompt(req), evaluationTemperature, 0)
}

func (s *OpenAIService) complete(ctx context.Context, p prompt, temperature float32, maxTokens int) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               s.model,
		Messages:            p.messages(),
		Temperature:         temperature,
		MaxCompletionTokens: maxTokens,
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ErrDecode{Err: errors.New("no choices in OpenAI response")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p prompt) messages() []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: p.system},
		{Role: openai.ChatMessageRoleUser, Content: p.user},
	}
}

// openaiStream adapts a chat completion stream to article.Stream.
type openaiStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openaiStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.stream.Close()
			return "", io.EOF
		}
		if err != nil {
			s.stream.Close()
			return "", mapOpenAIError(err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *openaiStream) Close() error {
	return s.stream.Close()
}

func mapOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ErrRateLimit{Err: err}
		case apiErr.HTTPStatusCode >= 500:
			return &ErrUnavailable{Err: err}
		case apiErr.HTTPStatusCode > 0:
			return &ErrStatus{Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ErrRateLimit{Err: err}
		case reqErr.HTTPStatusCode >= 500:
			return &ErrUnavailable{Err: err}
		case reqErr.HTTPStatusCode > 0:
			return &ErrStatus{Code: reqErr.HTTPStatusCode, Body: reqErr.Error()}
		}
	}
	// Transport failures surface as net.Error and stay retryable through IsTransient.
	return fmt.Errorf("openai: %w", err)
}
