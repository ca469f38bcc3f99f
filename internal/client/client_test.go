package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debugmate-ai/debugmate/pkg/types"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(types.BackendConfig{BaseURL: srv.URL, TimeoutSec: 5}), srv
}

func TestAnalyzeContent(t *testing.T) {
	var got types.AnalyzeRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/incidents/rca", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(types.AnalysisResult{
			RCA:       "null pointer in handler",
			Exception: ptr("KeyError: 'id'"),
		})
	}))

	result, err := c.AnalyzeContent(context.Background(), "ERROR: KeyError: 'id'")
	require.NoError(t, err)

	assert.Equal(t, ".", got.Repo)
	require.NotNil(t, got.Log)
	assert.Equal(t, "ERROR: KeyError: 'id'", *got.Log)
	assert.Nil(t, got.Path)
	require.NotNil(t, got.ID)
	assert.Equal(t, DeriveIncidentID("ERROR: KeyError: 'id'"), *got.ID)

	assert.Equal(t, "null pointer in handler", result.RCA)
	require.NotNil(t, result.Exception)
	assert.Equal(t, "KeyError: 'id'", *result.Exception)
}

func TestAnalyzePath(t *testing.T) {
	var got types.AnalyzeRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(types.AnalysisResult{RCA: "server-side read"})
	}))

	_, err := c.AnalyzePath(context.Background(), "/var/log/app.log")
	require.NoError(t, err)

	require.NotNil(t, got.Path)
	assert.Equal(t, "/var/log/app.log", *got.Path)
	assert.Nil(t, got.Log)
	assert.Equal(t, ".", got.Repo)
}

func TestRunTestsDefaultsAndQuiet(t *testing.T) {
	var got types.RunTestsRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/runner/pytest", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(types.RunResult{OK: true, Cmd: "pytest -q tests"})
	}))

	result, err := c.RunTests(context.Background(), types.RunTestsRequest{Quiet: true, Extra: "-k smoke"})
	require.NoError(t, err)
	require.True(t, result.OK)

	assert.Equal(t, ".", got.Repo)
	assert.Equal(t, "tests", got.Path)
	assert.Equal(t, "-k smoke -q", got.Extra)
	assert.Equal(t, types.DefaultRunnerTimeout, got.TimeoutSec)
}

func TestMergeQuietFlagIdempotent(t *testing.T) {
	assert.Equal(t, "-q", mergeQuietFlag(""))
	assert.Equal(t, "-k smoke -q", mergeQuietFlag("-k smoke"))
	assert.Equal(t, "-q -k smoke", mergeQuietFlag("-q -k smoke"))
}

func TestRunCommand(t *testing.T) {
	var got types.RunCommandRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/runner/exec", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(types.RunResult{OK: false, ReturnCode: 2, Stderr: "boom"})
	}))

	result, err := c.RunCommand(context.Background(), types.RunCommandRequest{Cmd: "make lint", Shell: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ReturnCode)
	assert.True(t, got.Shell)
}

func TestServiceError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unprocessable", http.StatusUnprocessableEntity)
	}))

	_, err := c.AnalyzeContent(context.Background(), "log")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusUnprocessableEntity, svcErr.Status)
	assert.Equal(t, "unprocessable", svcErr.Body)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	c := New(types.BackendConfig{BaseURL: srv.URL, TimeoutSec: 1})
	_, err := c.AnalyzeContent(context.Background(), "log")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestRetryOn5xxThenSuccess(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "transient", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(types.AnalysisResult{RCA: "recovered"})
	}))

	result, err := c.AnalyzeContent(context.Background(), "log")
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.RCA)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))

	_, err := c.AnalyzeContent(context.Background(), "log")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/ping", r.URL.Path)
		w.Write([]byte(`{"ok": true}`))
	}))
	require.NoError(t, c.Ping(context.Background()))
}

func TestDeriveIncidentIDStable(t *testing.T) {
	a := DeriveIncidentID("same log")
	b := DeriveIncidentID("same log")
	assert.Equal(t, a, b)
	assert.Len(t, a, 10)
	assert.NotEqual(t, a, DeriveIncidentID("other log"))
}

func TestValidateCommand(t *testing.T) {
	require.NoError(t, ValidateCommand("pytest -q tests", false))
	require.NoError(t, ValidateCommand("ls | grep foo", true))

	assert.Error(t, ValidateCommand("", false))
	assert.Error(t, ValidateCommand("echo 'unterminated", false))
	assert.Error(t, ValidateCommand("ls | grep foo", false))
	assert.Error(t, ValidateCommand("echo hi > out.txt", false))
	assert.Error(t, ValidateCommand("echo $(date)", false))
	assert.Error(t, ValidateCommand("ls; pwd", false))
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(types.BackendConfig{BaseURL: "http://127.0.0.1:1", TimeoutSec: 1})
	_, err := c.AnalyzeContent(ctx, "log")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, transportErr.Err, context.Canceled)
}

func ptr[T any](v T) *T { return &v }
