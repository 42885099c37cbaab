package openai

import (
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/foliolabs/folio/internal/config"
)

// Service builds OpenAI-compatible API clients. Image generation goes
// through this client; credential and base URL can vary per request.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ClientFor returns a client for the given credential and base URL,
// falling back to the environment default key and the public endpoint.
func (s *Service) ClientFor(credential, baseURL string) *openai.Client {
	if credential == "" {
		credential = config.GetOpenAIKey()
	}

	cfg := openai.DefaultConfig(credential)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

// HasDefaultKey reports whether a default OpenAI credential is configured.
func (s *Service) HasDefaultKey() bool {
	return config.GetOpenAIKey() != ""
}
