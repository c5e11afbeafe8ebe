package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yungbote/studypact-backend/internal/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MAX_RETRIES", "1")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func assistantMessage(text string) responsesResponse {
	var resp responsesResponse
	resp.Output = []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	}{{
		Type: "message",
		Role: "assistant",
		Content: []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		}{{Type: "output_text", Text: text}},
	}}
	return resp
}

func TestGenerateJSONParsesStructuredOutput(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req responsesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text.Format["name"] != "weekly_plan" {
			t.Errorf("unexpected schema name: %v", req.Text.Format["name"])
		}
		_ = json.NewEncoder(w).Encode(assistantMessage(`{"week_focus":"pointers"}`))
	}))

	got, err := c.GenerateJSON(context.Background(), "sys", "user", "weekly_plan", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if got["week_focus"] != "pointers" {
		t.Fatalf("GenerateJSON: got %+v", got)
	}
}

func TestGenerateJSONRequiresSchema(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request without schema should not hit the server")
	}))
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "", nil); err == nil {
		t.Fatalf("expected error for missing schema name")
	}
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "plan", nil); err == nil {
		t.Fatalf("expected error for nil schema")
	}
}

func TestGenerateTextRejectsEmptyOutput(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(responsesResponse{})
	}))
	if _, err := c.GenerateText(context.Background(), "sys", "user"); err == nil {
		t.Fatalf("expected error for empty model output")
	}
}

func TestGenerateTextRetriesOn503(t *testing.T) {
	calls := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(assistantMessage("take a shorter session today"))
	}))

	got, err := c.GenerateText(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected retry, got %d calls", calls)
	}
	if got != "take a shorter session today" {
		t.Fatalf("GenerateText: got %q", got)
	}
}

func TestGenerateTextHonorsContextDeadline(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(assistantMessage("late"))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.GenerateText(ctx, "sys", "user"); err == nil {
		t.Fatalf("expected deadline error")
	}
}
