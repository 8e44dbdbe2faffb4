// Package biasclient submits bias jobs to a newsmap server and polls for
// their outcome.
package biasclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultPollAttempts = 30
	DefaultPollInterval = 200 * time.Millisecond
)

var (
	// ErrPollTimeout is returned when a job is still pending after the last poll.
	ErrPollTimeout = errors.New("bias job did not finish in time")
	ErrJobNotFound = errors.New("bias job not found")
)

type Result struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

type Submission struct {
	JobID     string  `json:"jobId"`
	Status    string  `json:"status"`
	StatusURL string  `json:"statusUrl"`
	Result    *Result `json:"result,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type Status struct {
	JobID  string  `json:"jobId"`
	Status string  `json:"status"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Done reports whether the job reached completed or failed.
func (s Status) Done() bool { return s.Status == "completed" || s.Status == "failed" }

type apiError struct {
	Error string `json:"error"`
}

type Client struct {
	http     *resty.Client
	attempts int
	interval time.Duration
}

type Option func(*Client)

func WithPolling(attempts int, interval time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if interval > 0 {
			c.interval = interval
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = resty.NewWithClient(hc).SetBaseURL(c.http.BaseURL) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/json"),
		attempts: DefaultPollAttempts,
		interval: DefaultPollInterval,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit posts text for classification. articleID and jobID are optional.
func (c *Client) Submit(ctx context.Context, text string, articleID *int64, jobID string) (*Submission, error) {
	body := map[string]any{"text": text}
	if articleID != nil {
		body["articleId"] = *articleID
	}
	if jobID != "" {
		body["jobId"] = jobID
	}
	var out Submission
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/api/bias/jobs")
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("submit: http %d: %s", resp.StatusCode(), apiErr.Error)
	}
	return &out, nil
}

func (c *Client) Status(ctx context.Context, jobID string) (*Status, error) {
	var out Status
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("jobId", jobID).
		SetResult(&out).
		Get("/api/bias/jobs/{jobId}")
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status: http %d", resp.StatusCode())
	}
	return &out, nil
}

// WaitForResult polls until the job is terminal, the attempts run out or
// ctx is done. A failed job is returned without error; callers inspect
// Status.Error.
func (c *Client) WaitForResult(ctx context.Context, jobID string) (*Status, error) {
	for i := 0; i < c.attempts; i++ {
		st, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if st.Status == "not_found" {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		if st.Done() {
			return st, nil
		}
		if i == c.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.interval):
		}
	}
	return nil, fmt.Errorf("%w: %s after %d polls", ErrPollTimeout, jobID, c.attempts)
}

// Analyze submits and, unless the server answered synchronously, waits.
func (c *Client) Analyze(ctx context.Context, text string, articleID *int64) (*Status, error) {
	sub, err := c.Submit(ctx, text, articleID, "")
	if err != nil {
		return nil, err
	}
	if sub.Status == "completed" || sub.Status == "failed" {
		return &Status{JobID: sub.JobID, Status: sub.Status, Result: sub.Result, Error: sub.Error}, nil
	}
	return c.WaitForResult(ctx, sub.JobID)
}
