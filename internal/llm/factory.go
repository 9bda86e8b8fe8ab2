package llm

import (
	"fmt"
	"strings"
)

// Backend selects where capabilities come from.
type Backend string

const (
	// BackendHTTP talks to a running `lingoblitz serve`.
	BackendHTTP Backend = "http"
	// BackendOpenAI calls OpenAI directly.
	BackendOpenAI Backend = "openai"
	// BackendMock answers with canned text.
	BackendMock Backend = "mock"
)

// NewBackend returns the undecorated service for backend.
func NewBackend(backend Backend, cfg Config) (Service, error) {
	switch Backend(strings.ToLower(string(backend))) {
	case BackendHTTP, "":
		return NewHTTPClient(cfg, nil), nil
	case BackendOpenAI:
		svc, err := NewOpenAIService(cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case BackendMock:
		return NewMockService(), nil
	default:
		return nil, fmt.Errorf("unknown service backend: %s", backend)
	}
}

// NewService builds the client-side service stack: backend, retries, then
// placeholders for anything that still fails.
func NewService(backend Backend, cfg Config) (Service, error) {
	base, err := NewBackend(backend, cfg)
	if err != nil {
		return nil, err
	}
	return WithFallback(WithRetry(base, cfg.Retry)), nil
}
