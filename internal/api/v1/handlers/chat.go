package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/gateway"
	"github.com/foliolabs/folio/internal/mediajobs"
	"github.com/foliolabs/folio/internal/relay"
	"github.com/foliolabs/folio/internal/services/chat"
	"github.com/foliolabs/folio/pkg/httpext"
)

type streamRequest struct {
	Message           string `json:"message" validate:"required"`
	Model             string `json:"model" validate:"required"`
	Provider          string `json:"provider" validate:"required"`
	Credential        string `json:"credential"`
	BaseURL           string `json:"baseUrl"`
	ExtendedReasoning bool   `json:"extendedReasoning"`
	WebAugmentation   bool   `json:"webAugmentation"`
}

type streamFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleChatStream proxies one chat completion as a server-sent-event
// stream of normalized frames, terminated by a [DONE] line.
func HandleChatStream(chatService *chat.Service, w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Request validation failed")
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpext.JsonError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, err := chatService.StreamChat(r.Context(), gateway.ChatRequest{
		Message:           req.Message,
		Model:             req.Model,
		Provider:          req.Provider,
		Credential:        req.Credential,
		BaseURL:           req.BaseURL,
		ExtendedReasoning: req.ExtendedReasoning,
		WebAugmentation:   req.WebAugmentation,
	})
	if err != nil {
		httpext.JsonError(w, err.Error(), statusForError(err))
		return
	}

	log.Info().
		Str("provider", req.Provider).
		Str("model", req.Model).
		Str("client_ip", r.RemoteAddr).
		Msg("Relaying chat stream")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for ev := range events {
		switch ev.Type {
		case relay.EventContent:
			writeFrame(w, flusher, streamFrame{Type: "content", Content: ev.Delta})
		case relay.EventError:
			writeFrame(w, flusher, streamFrame{Type: "error", Error: ev.Message})
			return
		case relay.EventDone:
			fmt.Fprint(w, "data: [DONE]\n\n")
			flusher.Flush()
			return
		}
	}
	// Channel closed without a terminal event: the client went away.
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, frame streamFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode stream frame")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

type imageRequest struct {
	Prompt     string `json:"prompt" validate:"required"`
	Model      string `json:"model"`
	Credential string `json:"credential"`
	BaseURL    string `json:"baseUrl"`
}

// HandleChatImage performs one single-shot image generation.
func HandleChatImage(chatService *chat.Service, w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(req); err != nil {
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	url, err := chatService.GenerateImage(r.Context(), chat.ImageRequest{
		Prompt:     req.Prompt,
		Model:      req.Model,
		Credential: req.Credential,
		BaseURL:    req.BaseURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("Image generation failed")
		httpext.JsonError(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"imageUrl": url,
		"prompt":   req.Prompt,
	})
}

type videoRequest struct {
	Prompt     string `json:"prompt" validate:"required"`
	Model      string `json:"model"`
	Credential string `json:"credential"`
	BaseURL    string `json:"baseUrl"`
}

// HandleChatVideo submits a video generation job and blocks while the
// poller drives it to a terminal state.
func HandleChatVideo(chatService *chat.Service, w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(req); err != nil {
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	url, err := chatService.GenerateVideo(r.Context(), chat.VideoRequest{
		Prompt:     req.Prompt,
		Model:      req.Model,
		Credential: req.Credential,
		BaseURL:    req.BaseURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("Video generation failed")
		httpext.JsonError(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"videoUrl": url,
		"prompt":   req.Prompt,
	})
}

// statusForError maps the typed error taxonomy onto response codes.
func statusForError(err error) int {
	var cfgErr *gateway.ConfigurationError
	var credErr *gateway.MissingCredentialError
	var httpErr *gateway.UpstreamHTTPError
	var timeoutErr *gateway.TimeoutError
	var malformedErr *gateway.MalformedResponseError
	var genErr *mediajobs.GenerationFailedError

	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &credErr):
		return http.StatusUnauthorized
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &httpErr), errors.As(err, &malformedErr), errors.As(err, &genErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
