package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openaiinfra "github.com/foliolabs/folio/internal/infrastructure/openai"
	"github.com/foliolabs/folio/internal/mediajobs"
	"github.com/foliolabs/folio/internal/relay"
	"github.com/foliolabs/folio/internal/services/chat"
)

func newChatService(t *testing.T) *chat.Service {
	t.Helper()
	svc, err := chat.NewService(
		relay.New(http.DefaultClient),
		openaiinfra.NewService(),
		mediajobs.NewClient(http.DefaultClient, time.Millisecond, 5),
	)
	require.NoError(t, err)
	return svc
}

func streamBody(t *testing.T, upstreamURL string) *strings.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"message":    "hello",
		"model":      "gpt-4o-mini",
		"provider":   "openai",
		"credential": "sk-test",
		"baseUrl":    upstreamURL,
	})
	require.NoError(t, err)
	return strings.NewReader(string(body))
}

// parseFrames splits an SSE response body into its data payloads.
func parseFrames(body string) []string {
	var frames []string
	for _, line := range strings.Split(body, "\n") {
		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			frames = append(frames, payload)
		}
	}
	return frames
}

func TestHandleChatStream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", streamBody(t, upstream.URL))
	w := httptest.NewRecorder()

	HandleChatStream(newChatService(t), w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	frames := parseFrames(w.Body.String())
	require.Len(t, frames, 3)

	var first, second streamFrame
	require.NoError(t, json.Unmarshal([]byte(frames[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(frames[1]), &second))
	assert.Equal(t, "content", first.Type)
	assert.Equal(t, "Hel", first.Content)
	assert.Equal(t, "lo", second.Content)
	assert.Equal(t, "[DONE]", frames[2])
}

func TestHandleChatStreamUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer upstream.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", streamBody(t, upstream.URL))
	w := httptest.NewRecorder()

	HandleChatStream(newChatService(t), w, req)

	frames := parseFrames(w.Body.String())
	require.Len(t, frames, 1)

	var frame streamFrame
	require.NoError(t, json.Unmarshal([]byte(frames[0]), &frame))
	assert.Equal(t, "error", frame.Type)
	assert.Contains(t, frame.Error, "bad key")
}

func TestHandleChatStreamRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	HandleChatStream(newChatService(t), w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChatStreamRejectsMissingFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(`{"message":"hi"}`))
	w := httptest.NewRecorder()

	HandleChatStream(newChatService(t), w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChatStreamUnknownProvider(t *testing.T) {
	body := `{"message":"hi","model":"m","provider":"nope","credential":"k"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(body))
	w := httptest.NewRecorder()

	HandleChatStream(newChatService(t), w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChatImage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]string{{"url": "https://cdn.example.com/i.png"}},
		})
	}))
	defer upstream.Close()

	body := fmt.Sprintf(`{"prompt":"a sunset","credential":"sk-test","baseUrl":%q}`, upstream.URL+"/v1")
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/image", strings.NewReader(body))
	w := httptest.NewRecorder()

	HandleChatImage(newChatService(t), w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://cdn.example.com/i.png", resp["imageUrl"])
	assert.Equal(t, "a sunset", resp["prompt"])
}

func TestHandleChatImageMissingCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/image", strings.NewReader(`{"prompt":"a sunset"}`))
	w := httptest.NewRecorder()

	HandleChatImage(newChatService(t), w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleChatVideo(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":           "job-1",
			"task_status":  "SUCCESS",
			"video_result": []map[string]string{{"url": "https://cdn.example.com/v.mp4"}},
		})
	}))
	defer upstream.Close()

	body := fmt.Sprintf(`{"prompt":"a storm","credential":"zp-test","baseUrl":%q}`, upstream.URL)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/video", strings.NewReader(body))
	w := httptest.NewRecorder()

	HandleChatVideo(newChatService(t), w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://cdn.example.com/v.mp4", resp["videoUrl"])
}

func TestHandleChatVideoTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "job-1",
			"task_status": "PROCESSING",
		})
	}))
	defer upstream.Close()

	body := fmt.Sprintf(`{"prompt":"a storm","credential":"zp-test","baseUrl":%q}`, upstream.URL)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/video", strings.NewReader(body))
	w := httptest.NewRecorder()

	HandleChatVideo(newChatService(t), w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
