package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ChatRequest is the normalized chat submission. Provider-specific bodies
// and headers are derived from it by BuildChatRequest.
type ChatRequest struct {
	Message           string
	Model             string
	Provider          string
	Credential        string
	BaseURL           string
	ExtendedReasoning bool
	WebAugmentation   bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatBody struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Thinking *thinking     `json:"thinking,omitempty"`
	Tools    []webTool     `json:"tools,omitempty"`
}

type thinking struct {
	Type string `json:"type"`
}

type webTool struct {
	Type      string    `json:"type"`
	WebSearch webSearch `json:"web_search"`
}

type webSearch struct {
	Enable bool `json:"enable"`
}

// ResolveCredential picks the explicit credential over the provider's
// environment default. Both empty is an error raised before any network call.
func ResolveCredential(cfg Config, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if key := cfg.DefaultKey(); key != "" {
		return key, nil
	}
	return "", &MissingCredentialError{Provider: cfg.Provider}
}

// BuildChatRequest translates a normalized chat submission into the HTTP
// request the selected provider expects. Pure construction: the caller
// performs the network call.
func BuildChatRequest(ctx context.Context, req ChatRequest) (*http.Request, error) {
	cfg, err := ParseProvider(req.Provider)
	if err != nil {
		return nil, err
	}

	key, err := ResolveCredential(cfg, req.Credential)
	if err != nil {
		return nil, err
	}

	body := chatBody{
		Model:    req.Model,
		Messages: []chatMessage{{Role: "user", Content: req.Message}},
		Stream:   true,
	}
	if req.ExtendedReasoning {
		body.Thinking = &thinking{Type: "enabled"}
	}
	// Web augmentation is a Zhipu tool block; other providers ignore the flag.
	if req.WebAugmentation && cfg.Provider == ProviderZhipu {
		body.Tools = []webTool{{Type: "web_search", WebSearch: webSearch{Enable: true}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat body: %w", err)
	}

	base := cfg.BaseURL
	if req.BaseURL != "" {
		base = req.BaseURL
	}
	url := strings.TrimRight(base, "/") + cfg.ChatPath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	return httpReq, nil
}
