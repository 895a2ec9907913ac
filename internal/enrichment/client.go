// Package enrichment talks to the content-analysis service that turns a URL
// into a title, tags, a summary and a thumbnail.
package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 120 * time.Second

	// per HTTP round trip; the overall budget is Timeout
	requestTimeout = 15 * time.Second

	statusSuccess = "SUCCESS"
)

// Request is a URL to analyse plus optional caller hints.
type Request struct {
	URL   string
	Title string
	Tags  []string
}

// Draft is the merged result of an enrichment job.
type Draft struct {
	URL          string
	Title        string
	Tags         []string
	Summary      string
	ThumbnailURL string
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type statusResponse struct {
	Status string       `json:"status"`
	Result *resultField `json:"result"`
}

type resultField struct {
	Title        string   `json:"title"`
	Tags         []string `json:"tags"`
	Summary      string   `json:"summary"`
	ThumbnailURL string   `json:"thumbnail_url"`
}

// Config configures a Client. Zero durations fall back to the defaults.
type Config struct {
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client submits enrichment jobs and polls them to completion.
type Client struct {
	http         *http.Client
	baseURL      string
	pollInterval time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

// New creates a new enrichment client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		logger:       logger,
	}
}

// Enrich submits req.URL once and polls until the job reports SUCCESS or the
// budget runs out. Non-empty hints in req replace the job's title and tags.
// The remote job is never cancelled.
func (c *Client) Enrich(ctx context.Context, req Request) (*Draft, error) {
	taskID, err := c.submit(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	logger := c.logger.With(slog.String("task_id", taskID))
	logger.Debug("enrichment task submitted", slog.String("url", req.URL))

	deadline := time.Now().Add(c.timeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		result, err := c.poll(ctx, taskID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, wrapError("poll", taskID, ctx.Err())
			}
			logger.Warn("enrichment status check failed", slog.String("error", err.Error()))
		case result != nil:
			logger.Debug("enrichment task finished")
			return merge(req, result), nil
		}

		if !time.Now().Add(c.pollInterval).Before(deadline) {
			return nil, wrapError("poll", taskID, ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, wrapError("poll", taskID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) submit(ctx context.Context, rawURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"url": rawURL})
	if err != nil {
		return "", fmt.Errorf("marshal submit body: %w", err)
	}

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/async-index/", bytes.NewReader(payload), &resp); err != nil {
		return "", wrapError("submit", "", ErrSubmitFailed.WithCause(err))
	}
	if strings.TrimSpace(resp.TaskID) == "" {
		return "", wrapError("submit", "", ErrSubmitFailed)
	}
	return resp.TaskID, nil
}

// poll returns the result once the task succeeded, nil while it is still running.
func (c *Client) poll(ctx context.Context, taskID string) (*resultField, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/task-status/"+url.PathEscape(taskID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusSuccess {
		return nil, nil
	}
	if resp.Result == nil {
		return &resultField{}, nil
	}
	return resp.Result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func merge(req Request, r *resultField) *Draft {
	draft := &Draft{
		URL:          req.URL,
		Title:        r.Title,
		Tags:         r.Tags,
		Summary:      r.Summary,
		ThumbnailURL: r.ThumbnailURL,
	}
	if strings.TrimSpace(req.Title) != "" {
		draft.Title = req.Title
	}
	if len(req.Tags) > 0 {
		draft.Tags = req.Tags
	}
	if draft.Tags == nil {
		draft.Tags = []string{}
	}
	return draft
}
