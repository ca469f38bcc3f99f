// Package client is the HTTP dispatcher for the remote root-cause-analysis
// service. It issues the four request kinds (analyze by content, analyze by
// path, run tests, run command) and surfaces failures as typed errors.
package client

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/debugmate-ai/debugmate/internal/logging"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

const (
	analyzePath = "/api/v1/incidents/rca"
	pytestPath  = "/api/v1/runner/pytest"
	execPath    = "/api/v1/runner/exec"
	pingPath    = "/api/v1/ping"

	// MaxRetries is the maximum number of retries for transport failures
	// and 5xx responses.
	MaxRetries = 3
	// RetryInitialInterval is the initial interval for exponential backoff.
	RetryInitialInterval = 500 * time.Millisecond
	// RetryMaxInterval is the maximum interval for exponential backoff.
	RetryMaxInterval = 10 * time.Second

	maxErrorBody = 32 * 1024
)

// Client talks to one backend instance.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// New creates a client from backend configuration. Unset fields fall back to
// the package defaults in types.
func New(cfg types.BackendConfig) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = types.DefaultBackendURL
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if cfg.TimeoutSec <= 0 {
		timeout = types.DefaultRequestTimeout * time.Second
	}

	return &Client{
		baseURL: base,
		httpc:   &http.Client{Timeout: timeout},
		log:     logging.Component("client"),
	}
}

// newRetryBackoff creates an exponential backoff with jitter for transport
// retries, bounded by the request context.
func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInitialInterval
	b.MaxInterval = RetryMaxInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, MaxRetries), ctx)
}

// AnalyzeContent posts already-prepared text for analysis (content-mode).
// The incident ID is derived from the text so retried submissions of the
// same log map to the same incident.
func (c *Client) AnalyzeContent(ctx context.Context, log string) (*types.AnalysisResult, error) {
	id := DeriveIncidentID(log)
	req := types.AnalyzeRequest{
		Repo: types.DefaultRunnerRepo,
		Log:  &log,
		ID:   &id,
	}

	var result types.AnalysisResult
	if err := c.post(ctx, analyzePath, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzePath posts only a file path; the server reads and prepares the file
// itself, including its own notebook handling.
func (c *Client) AnalyzePath(ctx context.Context, path string) (*types.AnalysisResult, error) {
	req := types.AnalyzeRequest{
		Repo: types.DefaultRunnerRepo,
		Path: &path,
	}

	var result types.AnalysisResult
	if err := c.post(ctx, analyzePath, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RunTests runs the remote test suite. Quiet folds a -q into the extra flags
// without duplicating it.
func (c *Client) RunTests(ctx context.Context, req types.RunTestsRequest) (*types.RunResult, error) {
	if req.Repo == "" {
		req.Repo = types.DefaultRunnerRepo
	}
	if req.Path == "" {
		req.Path = types.DefaultRunnerTestPath
	}
	if req.TimeoutSec <= 0 {
		req.TimeoutSec = types.DefaultRunnerTimeout
	}
	if req.Quiet {
		req.Extra = mergeQuietFlag(req.Extra)
	}

	var result types.RunResult
	if err := c.post(ctx, pytestPath, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RunCommand runs an arbitrary command on the remote side.
func (c *Client) RunCommand(ctx context.Context, req types.RunCommandRequest) (*types.RunResult, error) {
	if req.TimeoutSec <= 0 {
		req.TimeoutSec = types.DefaultRunnerTimeout
	}

	var result types.RunResult
	if err := c.post(ctx, execPath, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping probes the backend health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pingPath, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{URL: c.baseURL + pingPath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServiceError{Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}
	return nil
}

// post sends a JSON request and decodes a JSON response. Transport failures
// and 5xx responses are retried with exponential backoff; other non-2xx
// statuses fail immediately as ServiceError.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.baseURL + path
	retry := newRetryBackoff(ctx)

	for {
		err := c.postOnce(ctx, url, body, out)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}

		interval := retry.NextBackOff()
		if interval == backoff.Stop {
			return err
		}
		c.log.Warn().Err(err).Str("url", url).Dur("retryIn", interval).Msg("request failed, retrying")
		select {
		case <-ctx.Done():
			return &TransportError{URL: url, Err: ctx.Err()}
		case <-time.After(interval):
		}
	}
}

func (c *Client) postOnce(ctx context.Context, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServiceError{Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// retryable reports whether the error is worth another attempt.
func retryable(err error) bool {
	switch e := err.(type) {
	case *TransportError:
		return true
	case *ServiceError:
		return e.Status >= 500
	}
	return false
}

// readErrorBody recovers up to maxErrorBody bytes of response text for error
// reporting.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// DeriveIncidentID returns a stable short ID for an ad-hoc log payload.
func DeriveIncidentID(log string) string {
	sum := sha1.Sum([]byte(log))
	return hex.EncodeToString(sum[:])[:10]
}

// mergeQuietFlag appends -q to a flag string unless already present.
func mergeQuietFlag(extra string) string {
	fields := strings.Fields(extra)
	for _, f := range fields {
		if f == "-q" {
			return extra
		}
	}
	fields = append(fields, "-q")
	return strings.Join(fields, " ")
}
