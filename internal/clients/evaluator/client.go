package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/studypact-backend/internal/pkg/envutil"
	"github.com/yungbote/studypact-backend/internal/pkg/httpx"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
)

// GradeRequest is a submission to score: quiz answers or a coding
// exercise.
type GradeRequest struct {
	Kind       string            `json:"kind"`
	TaskTitle  string            `json:"task_title,omitempty"`
	Answers    map[string]string `json:"answers,omitempty"`
	Code       string            `json:"code,omitempty"`
	Language   string            `json:"language,omitempty"`
	Constraint string            `json:"constraint,omitempty"`
}

// GradeResponse carries the normalized score in [0,1].
type GradeResponse struct {
	Score    float64        `json:"score"`
	Feedback string         `json:"feedback,omitempty"`
	Detail   map[string]any `json:"detail,omitempty"`
}

// Client talks to the evaluator service that scores quizzes and
// coding exercises.
type Client interface {
	Grade(ctx context.Context, req GradeRequest) (*GradeResponse, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(envutil.String("EVALUATOR_URL", "http://localhost:8002"), "/")
	timeout := envutil.Seconds("EVALUATOR_TIMEOUT_SECONDS", 30*time.Second)
	maxRetries := envutil.Int("EVALUATOR_MAX_RETRIES", 2)

	return &client{
		log:        log.With("service", "EvaluatorClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}, nil
}

func (c *client) Grade(ctx context.Context, greq GradeRequest) (*GradeResponse, error) {
	if greq.Kind == "" {
		greq.Kind = "quiz"
	}

	var out GradeResponse
	if err := c.do(ctx, "POST", "/grade", greq, &out); err != nil {
		return nil, err
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 1 {
		out.Score = 1
	}
	return &out, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("evaluator decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 5*time.Second))
		c.log.Warn("Evaluator request retrying",
			"path", path,
			"attempt", attempt+1,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpx.StatusError{Status: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}
