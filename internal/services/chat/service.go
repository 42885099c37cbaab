package chat

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/gateway"
	openaiinfra "github.com/foliolabs/folio/internal/infrastructure/openai"
	"github.com/foliolabs/folio/internal/mediajobs"
	"github.com/foliolabs/folio/internal/relay"
	"github.com/foliolabs/folio/internal/session"
)

const (
	defaultImageModel = "dall-e-3"
	defaultVideoModel = "cogvideox-2"
)

// Service routes generation requests to the right lower component: the
// streaming relay for text, the image client for single-shot image
// generation, and the job poller for video. It also satisfies
// session.Backend for the websocket transport.
type Service struct {
	relay  *relay.Relay
	images *openaiinfra.Service
	videos *mediajobs.Client
}

func NewService(r *relay.Relay, images *openaiinfra.Service, videos *mediajobs.Client) (*Service, error) {
	if r == nil {
		return nil, fmt.Errorf("relay is required")
	}
	return &Service{relay: r, images: images, videos: videos}, nil
}

// StreamChat builds the provider request and hands it to the relay. Errors
// returned here happened before any network call.
func (s *Service) StreamChat(ctx context.Context, req gateway.ChatRequest) (<-chan relay.Event, error) {
	httpReq, err := gateway.BuildChatRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.relay.Stream(ctx, httpReq), nil
}

// ImageRequest describes one single-shot image generation.
type ImageRequest struct {
	Prompt     string
	Model      string
	Credential string
	BaseURL    string
}

// GenerateImage returns the hosted URL of the generated image.
func (s *Service) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	if req.Credential == "" && !s.images.HasDefaultKey() {
		return "", &gateway.MissingCredentialError{Provider: gateway.ProviderOpenAI}
	}

	model := req.Model
	if model == "" {
		model = defaultImageModel
	}

	client := s.images.ClientFor(req.Credential, req.BaseURL)
	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Prompt: req.Prompt,
		Model:  model,
		N:      1,
		Size:   openai.CreateImageSize1024x1024,
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", &gateway.MalformedResponseError{Reason: "image response carries no URL"}
	}
	return resp.Data[0].URL, nil
}

// VideoRequest describes one asynchronous video generation.
type VideoRequest struct {
	Prompt     string
	Model      string
	Credential string
	BaseURL    string
}

// GenerateVideo submits the job and polls it to completion.
func (s *Service) GenerateVideo(ctx context.Context, req VideoRequest) (string, error) {
	credential := req.Credential
	if credential == "" {
		credential = config.GetZhipuKey()
	}
	if credential == "" {
		return "", &gateway.MissingCredentialError{Provider: gateway.ProviderZhipu}
	}

	model := req.Model
	if model == "" {
		model = defaultVideoModel
	}

	return s.videos.Generate(ctx, mediajobs.Request{
		Prompt:     req.Prompt,
		Model:      model,
		Credential: credential,
		BaseURL:    req.BaseURL,
	})
}

// Backend adapts the service to session.Backend for the websocket chat
// transport, filling in provider and model defaults.
type Backend struct {
	svc *Service
}

func (s *Service) SessionBackend() *Backend {
	return &Backend{svc: s}
}

func (b *Backend) StreamText(ctx context.Context, req session.Request) (<-chan relay.Event, error) {
	provider := req.Provider
	if provider == "" {
		provider = string(gateway.ProviderOpenAI)
	}

	model := req.Model
	if model == "" {
		cfg, err := gateway.ParseProvider(provider)
		if err != nil {
			return nil, err
		}
		model = cfg.Models[0]
	}

	return b.svc.StreamChat(ctx, gateway.ChatRequest{
		Message:           req.Text,
		Model:             model,
		Provider:          provider,
		Credential:        req.Credential,
		BaseURL:           req.BaseURL,
		ExtendedReasoning: req.ExtendedReasoning,
		WebAugmentation:   req.WebAugmentation,
	})
}

func (b *Backend) GenerateImage(ctx context.Context, req session.Request) (string, error) {
	return b.svc.GenerateImage(ctx, ImageRequest{
		Prompt:     req.Text,
		Model:      req.Model,
		Credential: req.Credential,
		BaseURL:    req.BaseURL,
	})
}

func (b *Backend) GenerateVideo(ctx context.Context, req session.Request) (string, error) {
	return b.svc.GenerateVideo(ctx, VideoRequest{
		Prompt:     req.Text,
		Model:      req.Model,
		Credential: req.Credential,
		BaseURL:    req.BaseURL,
	})
}
