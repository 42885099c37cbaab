package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolabs/folio/internal/gateway"
	openaiinfra "github.com/foliolabs/folio/internal/infrastructure/openai"
	"github.com/foliolabs/folio/internal/mediajobs"
	"github.com/foliolabs/folio/internal/relay"
	"github.com/foliolabs/folio/internal/session"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(
		relay.New(http.DefaultClient),
		openaiinfra.NewService(),
		mediajobs.NewClient(http.DefaultClient, time.Millisecond, 5),
	)
	require.NoError(t, err)
	return svc
}

func TestStreamChatEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hey\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	events, err := newTestService(t).StreamChat(context.Background(), gateway.ChatRequest{
		Message:    "hello",
		Model:      "gpt-4o-mini",
		Provider:   "openai",
		Credential: "sk-test",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	var got []relay.Event
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "hey", got[0].Delta)
	assert.Equal(t, relay.EventDone, got[1].Type)
}

func TestStreamChatRejectsUnknownProviderBeforeNetwork(t *testing.T) {
	_, err := newTestService(t).StreamChat(context.Background(), gateway.ChatRequest{
		Message:    "hello",
		Model:      "m",
		Provider:   "nope",
		Credential: "k",
	})

	var cfgErr *gateway.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]string{{"url": "https://cdn.example.com/i.png"}},
		})
	}))
	defer srv.Close()

	url, err := newTestService(t).GenerateImage(context.Background(), ImageRequest{
		Prompt:     "a sunset",
		Credential: "sk-test",
		BaseURL:    srv.URL + "/v1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/i.png", url)
}

func TestGenerateImageMissingCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := newTestService(t).GenerateImage(context.Background(), ImageRequest{Prompt: "a sunset"})

	var credErr *gateway.MissingCredentialError
	assert.True(t, errors.As(err, &credErr))
}

func TestGenerateVideoDelegatesToPoller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":           "job-1",
			"task_status":  "SUCCESS",
			"video_result": []map[string]string{{"url": "https://cdn.example.com/v.mp4"}},
		})
	}))
	defer srv.Close()

	url, err := newTestService(t).GenerateVideo(context.Background(), VideoRequest{
		Prompt:     "a storm",
		Credential: "zp-test",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/v.mp4", url)
}

func TestSessionBackendDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// Provider defaults to openai and the model to its first entry.
		assert.Equal(t, "gpt-4o", body["model"])
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	backend := newTestService(t).SessionBackend()
	events, err := backend.StreamText(context.Background(), session.Request{
		Text:       "hello",
		Credential: "sk-test",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)

	var got []relay.Event
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	assert.Equal(t, relay.EventDone, got[0].Type)
}
