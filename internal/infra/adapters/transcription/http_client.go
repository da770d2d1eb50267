// File: internal/infra/adapters/transcription/http_client.go
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"batch-transcriber/internal/config"
	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/ports/adapter"
)

var _ adapter.TranscriptionService = (*HTTPClient)(nil)

// HTTPClient speaks the request/poll contract of the external
// speech-to-text engine: submit a file, poll task status, download the
// result. The polling loop itself lives in the worker, not here.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(cfg config.TranscriptionConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type submitPayload struct {
	FilePath  string `json:"file_path"`
	Title     string `json:"title"`
	Requester string `json:"requester"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

func (c *HTTPClient) Submit(ctx context.Context, req adapter.SubmitRequest) (string, error) {
	body, err := json.Marshal(submitPayload{
		FilePath:  req.FilePath,
		Title:     req.Title,
		Requester: req.Requester,
	})
	if err != nil {
		return "", err
	}
	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/transcriptions", bytes.NewReader(body), &resp); err != nil {
		return "", fmt.Errorf("submit %s: %w", req.FilePath, err)
	}
	if resp.TaskID == "" {
		return "", domain.ErrNoTaskID
	}
	return resp.TaskID, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

func (c *HTTPClient) Status(ctx context.Context, taskID string) (adapter.TaskStatus, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/transcriptions/"+taskID+"/status", nil, &resp); err != nil {
		return "", fmt.Errorf("status %s: %w", taskID, err)
	}
	switch adapter.TaskStatus(resp.Status) {
	case adapter.TaskProcessing, adapter.TaskCompleted, adapter.TaskFailed:
		return adapter.TaskStatus(resp.Status), nil
	}
	return "", fmt.Errorf("unexpected task status %q", resp.Status)
}

type resultResponse struct {
	Text       string  `json:"text"`
	Summary    string  `json:"summary"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
	DurationMS int64   `json:"duration_ms"`
}

func (c *HTTPClient) Result(ctx context.Context, taskID string) (*adapter.TaskResult, error) {
	var resp resultResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/transcriptions/"+taskID+"/result", nil, &resp); err != nil {
		return nil, fmt.Errorf("result %s: %w", taskID, err)
	}
	return &adapter.TaskResult{
		Text:          resp.Text,
		Summary:       resp.Summary,
		Language:      resp.Language,
		Confidence:    resp.Confidence,
		AudioDuration: time.Duration(resp.DurationMS) * time.Millisecond,
	}, nil
}

func (c *HTTPClient) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
