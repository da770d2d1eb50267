package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"batch-transcriber/internal/config"
	"batch-transcriber/internal/domain"
	"batch-transcriber/internal/domain/ports/adapter"
)

func newTestClient(srv *httptest.Server) *HTTPClient {
	return NewHTTPClient(config.TranscriptionConfig{
		BaseURL:        srv.URL,
		APIKey:         "svc-key",
		RequestTimeout: 5 * time.Second,
	})
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotPayload submitPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/transcriptions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]string{"task_id": "task-7"})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	taskID, err := c.Submit(context.Background(), adapter.SubmitRequest{
		FilePath:  "/data/audio/a.mp3",
		Title:     "a",
		Requester: "batch-pipeline",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if taskID != "task-7" {
		t.Fatalf("task id = %q, want task-7", taskID)
	}
	if gotAuth != "Bearer svc-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotPayload.FilePath != "/data/audio/a.mp3" || gotPayload.Requester != "batch-pipeline" {
		t.Fatalf("payload = %+v", gotPayload)
	}
}

func TestSubmit_MissingTaskID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Submit(context.Background(), adapter.SubmitRequest{FilePath: "/a.mp3"})
	if !errors.Is(err, domain.ErrNoTaskID) {
		t.Fatalf("expected ErrNoTaskID, got %v", err)
	}
}

func TestSubmit_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Submit(context.Background(), adapter.SubmitRequest{FilePath: "/a.mp3"})
	if err == nil {
		t.Fatal("expected an error for HTTP 500")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "engine overloaded") {
		t.Fatalf("error should carry status and body excerpt: %v", err)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		body    string
		want    adapter.TaskStatus
		wantErr bool
	}{
		{`{"status":"processing"}`, adapter.TaskProcessing, false},
		{`{"status":"completed"}`, adapter.TaskCompleted, false},
		{`{"status":"failed"}`, adapter.TaskFailed, false},
		{`{"status":"exploded"}`, "", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.body, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/transcriptions/task-7/status" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got, err := newTestClient(srv).Status(context.Background(), "task-7")
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error for an unknown status value")
				}
				return
			}
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if got != tc.want {
				t.Fatalf("status = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/transcriptions/task-7/result" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"text": "hello", "summary": "greeting", "language": "en",
			"confidence": 0.9, "duration_ms": 2500,
		})
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Result(context.Background(), "task-7")
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.Text != "hello" || res.Language != "en" || res.Confidence != 0.9 {
		t.Fatalf("result = %+v", res)
	}
	if res.AudioDuration != 2500*time.Millisecond {
		t.Fatalf("audio duration = %s, want 2.5s", res.AudioDuration)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer up.Close()
	if !newTestClient(up).Health(context.Background()) {
		t.Fatal("expected healthy")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	if newTestClient(down).Health(context.Background()) {
		t.Fatal("expected unhealthy")
	}
}
