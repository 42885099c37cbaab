package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolabs/folio/internal/gateway"
)

func newTestService(srv *httptest.Server) *Service {
	headers := http.Header{}
	headers.Set("Authorization", "token test-key")
	headers.Set("Content-Type", "application/json")
	return &Service{
		Client:  srv.Client(),
		RestURL: srv.URL,
		Headers: headers,
	}
}

func TestSynthesize(t *testing.T) {
	audio := []byte("fake-mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speak", r.URL.Path)
		assert.Equal(t, "aura-2-thalia-en", r.URL.Query().Get("model"))
		assert.Equal(t, "mp3", r.URL.Query().Get("encoding"))
		assert.Equal(t, "token test-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello world", body["text"])

		w.Write(audio)
	}))
	defer srv.Close()

	result, err := newTestService(srv).Synthesize(context.Background(), Request{Text: "hello world"})
	require.NoError(t, err)

	assert.Equal(t, len(audio), result.AudioSize)
	wantPrefix := "data:audio/mpeg;base64,"
	require.True(t, strings.HasPrefix(result.AudioURI, wantPrefix))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(result.AudioURI, wantPrefix))
	require.NoError(t, err)
	assert.Equal(t, audio, decoded)
}

func TestSynthesizeCustomVoiceAndFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "aura-2-orion-en", r.URL.Query().Get("model"))
		assert.Equal(t, "linear16", r.URL.Query().Get("encoding"))
		assert.Equal(t, "24000", r.URL.Query().Get("sample_rate"))
		w.Write([]byte("pcm"))
	}))
	defer srv.Close()

	result, err := newTestService(srv).Synthesize(context.Background(), Request{
		Text:       "hi",
		Voice:      "aura-2-orion-en",
		Format:     "linear16",
		SampleRate: 24000,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.AudioURI, "data:audio/wav;base64,"))
}

func TestSynthesizeEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty text")
	}))
	defer srv.Close()

	_, err := newTestService(srv).Synthesize(context.Background(), Request{Text: "   "})
	assert.Error(t, err)
}

func TestSynthesizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err_msg":"invalid model"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestService(srv).Synthesize(context.Background(), Request{Text: "hi"})

	var httpErr *gateway.UpstreamHTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Contains(t, httpErr.Body, "invalid model")
}
