package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/gateway"
)

const (
	defaultVoice  = "aura-2-thalia-en"
	defaultFormat = "mp3"

	maxAudioBytes = 16 << 20
)

// Request describes one synthesis call.
type Request struct {
	Text       string
	Voice      string
	Format     string
	SampleRate int
}

// Result carries the synthesized audio as a data URI plus its decoded size.
type Result struct {
	AudioURI  string
	AudioSize int
}

// Service is the REST text-to-speech client. Unlike chat generation this is
// a single-shot request/response call.
type Service struct {
	Client  *http.Client
	RestURL string
	Headers http.Header
}

func NewService() *Service {
	token := config.GetDeepgramAPIKey()
	if token == "" {
		return nil
	}

	headers := http.Header{}
	headers.Set("Authorization", "token "+token)
	headers.Set("Content-Type", "application/json")

	return &Service{
		Client:  &http.Client{},
		RestURL: config.GetDeepgramBaseURL(),
		Headers: headers,
	}
}

// SetRestURL overrides the REST endpoint, used by tests.
func (s *Service) SetRestURL(url string) *Service {
	s.RestURL = url
	return s
}

// Synthesize converts text to speech audio.
func (s *Service) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("text is required")
	}

	voice := req.Voice
	if voice == "" {
		voice = defaultVoice
	}
	format := req.Format
	if format == "" {
		format = defaultFormat
	}

	query := url.Values{}
	query.Set("model", voice)
	query.Set("encoding", format)
	if req.SampleRate > 0 {
		query.Set("sample_rate", strconv.Itoa(req.SampleRate))
	}

	payload, err := json.Marshal(map[string]string{"text": req.Text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode speak request: %w", err)
	}

	endpoint := strings.TrimRight(s.RestURL, "/") + "/v1/speak?" + query.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build speak request: %w", err)
	}
	httpReq.Header = s.Headers.Clone()

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("speak request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &gateway.UpstreamHTTPError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio body: %w", err)
	}
	if len(audio) == 0 {
		return nil, &gateway.MalformedResponseError{Reason: "empty audio body"}
	}

	log.Debug().
		Int("bytes", len(audio)).
		Str("voice", voice).
		Msg("Synthesized speech audio")

	return &Result{
		AudioURI:  "data:" + mimeType(format) + ";base64," + base64.StdEncoding.EncodeToString(audio),
		AudioSize: len(audio),
	}, nil
}

func mimeType(format string) string {
	switch format {
	case "wav", "linear16":
		return "audio/wav"
	case "ogg", "opus":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}
