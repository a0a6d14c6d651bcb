// Package client is a typed HTTP client for the test attempt API.
//
// Requests that fail with 503 or a transport error are retried up to
// MaxRetries times with linear backoff (go-retryablehttp). Answer submission
// is idempotent on the server, so a retry after a lost response never
// double-scores.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mind-engage/testseries/internal/attempt"
)

type (
	AttemptView = attempt.AttemptView
	ResultView  = attempt.ResultView
	Summary     = attempt.Summary
)

type SubmitResult struct {
	AttemptView
	Applied bool `json:"applied"`
}

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

type Client struct {
	http  *retryablehttp.Client
	base  string
	token string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: timeout}
	rc.Logger = nil
	rc.RetryMax = retries
	// equal bounds make LinearJitterBackoff a plain backoff*attempt
	rc.RetryWaitMin = backoff
	rc.RetryWaitMax = backoff
	rc.Backoff = retryablehttp.LinearJitterBackoff
	rc.CheckRetry = retryUnavailable
	// hand back the last response so a final 503 surfaces as a StatusError
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{
		http:  rc,
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		token: cfg.Token,
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, strings.TrimSpace(e.Body))
}

func IsNotFound(err error) bool { return statusIs(err, http.StatusNotFound) }

func IsInvalidQuestion(err error) bool { return statusIs(err, http.StatusUnprocessableEntity) }

func statusIs(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func (c *Client) StartOrResume(ctx context.Context, testID string) (AttemptView, error) {
	var v AttemptView
	err := c.do(ctx, http.MethodPost, "/tests/"+url.PathEscape(testID)+"/attempt", nil, &v)
	return v, err
}

func (c *Client) SubmitAnswer(ctx context.Context, testID, questionID, selectedOption string) (SubmitResult, error) {
	var out SubmitResult
	body := map[string]string{"question_id": questionID, "selected_option": selectedOption}
	err := c.do(ctx, http.MethodPost, "/tests/"+url.PathEscape(testID)+"/attempt/answers", body, &out)
	return out, err
}

func (c *Client) GetResults(ctx context.Context, testID string) (ResultView, error) {
	var out ResultView
	err := c.do(ctx, http.MethodGet, "/tests/"+url.PathEscape(testID)+"/results", nil, &out)
	return out, err
}

func (c *Client) ListAttempts(ctx context.Context, testID, userID string) ([]Summary, error) {
	q := url.Values{}
	if testID != "" {
		q.Set("test_id", testID)
	}
	if userID != "" {
		q.Set("user_id", userID)
	}
	path := "/attempts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []Summary
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body any
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = payload
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		if res != nil {
			res.Body.Close()
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &StatusError{Code: res.StatusCode, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// retryUnavailable retries transport errors and 503; every other status is final.
func retryUnavailable(ctx context.Context, res *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return res.StatusCode == http.StatusServiceUnavailable, nil
}
