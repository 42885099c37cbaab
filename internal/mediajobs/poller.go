package mediajobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/gateway"
)

// Job status values reported by the video generation API.
const (
	statusProcessing = "PROCESSING"
	statusSuccess    = "SUCCESS"
	statusFail       = "FAIL"
)

// GenerationFailedError carries an upstream-reported job failure, as opposed
// to a transport problem or an exhausted polling budget.
type GenerationFailedError struct {
	Message string
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("video generation failed: %s", e.Message)
}

// Request describes one video generation submission.
type Request struct {
	Prompt     string
	Model      string
	Credential string
	BaseURL    string
}

// Client submits video generation jobs and polls them to a terminal state.
// Generation completes asynchronously upstream: the submission response may
// already be terminal, otherwise the job id is polled on a fixed interval
// up to a fixed attempt budget.
type Client struct {
	httpClient  *http.Client
	interval    time.Duration
	maxAttempts int
}

func NewClient(httpClient *http.Client, interval time.Duration, maxAttempts int) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &Client{
		httpClient:  httpClient,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

type jobState struct {
	ID          string `json:"id"`
	TaskStatus  string `json:"task_status"`
	VideoResult []struct {
		URL string `json:"url"`
	} `json:"video_result"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (j *jobState) resultURL() string {
	if len(j.VideoResult) == 0 {
		return ""
	}
	return j.VideoResult[0].URL
}

// Generate submits a video job and blocks until it reaches a terminal state,
// returning the result URL. Every wait is cancellable through ctx; polls for
// one job are strictly sequential.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	base := strings.TrimRight(req.BaseURL, "/")
	if base == "" {
		base = "https://open.bigmodel.cn/api/paas/v4"
	}

	state, err := c.submit(ctx, base, req)
	if err != nil {
		return "", err
	}

	// The submission response may already be terminal: zero polls then.
	if url, done, err := evaluate(state); done {
		return url, err
	}

	log.Debug().
		Str("job_id", state.ID).
		Str("status", state.TaskStatus).
		Msg("Video job pending, polling for completion")

	if state.ID == "" {
		return "", &gateway.MalformedResponseError{Reason: "pending job has no id"}
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.interval):
		}

		state, err = c.fetchStatus(ctx, base, req.Credential, state.ID)
		if err != nil {
			return "", err
		}

		if url, done, err := evaluate(state); done {
			return url, err
		}
	}

	return "", &gateway.TimeoutError{Attempts: c.maxAttempts}
}

// evaluate maps a job state onto its terminal outcome. done is false while
// the job is still pending or in an unknown state.
func evaluate(state *jobState) (string, bool, error) {
	switch state.TaskStatus {
	case statusSuccess:
		url := state.resultURL()
		if url == "" {
			return "", true, &gateway.MalformedResponseError{Reason: "success status without a result URL"}
		}
		return url, true, nil
	case statusFail:
		msg := state.Error.Message
		if msg == "" {
			msg = "upstream reported failure without detail"
		}
		return "", true, &GenerationFailedError{Message: msg}
	default:
		return "", false, nil
	}
}

func (c *Client) submit(ctx context.Context, base string, req Request) (*jobState, error) {
	payload, err := json.Marshal(map[string]string{
		"model":  req.Model,
		"prompt": req.Prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode video request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/videos/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build video request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)

	return c.do(httpReq)
}

func (c *Client) fetchStatus(ctx context.Context, base, credential, jobID string) (*jobState, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/async-result/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+credential)

	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (*jobState, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &gateway.UpstreamHTTPError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	var state jobState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, &gateway.MalformedResponseError{Reason: err.Error()}
	}
	return &state, nil
}
