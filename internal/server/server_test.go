package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debugmate-ai/debugmate/internal/client"
	"github.com/debugmate-ai/debugmate/internal/event"
	"github.com/debugmate-ai/debugmate/internal/router"
	"github.com/debugmate-ai/debugmate/internal/session"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

type bridgeFixture struct {
	server    *Server
	sess      *session.Session
	msgRouter *router.Router
	bus       *event.Bus

	mu   sync.Mutex
	sent []types.Outbound
}

func newBridge(t *testing.T) *bridgeFixture {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/incidents/rca":
			json.NewEncoder(w).Encode(types.AnalysisResult{RCA: "root cause"})
		case "/api/v1/ping":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(backend.Close)

	bus := event.NewBus()
	t.Cleanup(func() { bus.Close() })

	cfg := &types.Config{
		Backend: types.BackendConfig{BaseURL: backend.URL, TimeoutSec: 5},
		Runner:  types.RunnerConfig{Repo: "."},
		Server:  types.ServerConfig{Host: "127.0.0.1", Port: 0},
	}

	f := &bridgeFixture{bus: bus}
	f.sess = session.New(bus, nil)
	backendClient := client.New(cfg.Backend)
	f.msgRouter = router.New(f.sess, backendClient, HeadlessHost{}, router.SurfaceFunc(func(msg types.Outbound) {
		f.mu.Lock()
		f.sent = append(f.sent, msg)
		f.mu.Unlock()
	}), cfg)
	f.server = New(cfg, bus, f.sess, f.msgRouter, backendClient)

	return f
}

func (f *bridgeFixture) lastSent(t *testing.T) types.Outbound {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func doRequest(t *testing.T, f *bridgeFixture, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newBridge(t)
	rec := doRequest(t, f, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestGetSessionEmpty(t *testing.T) {
	f := newBridge(t)
	rec := doRequest(t, f, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info SessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, f.sess.ID, info.ID)
	assert.Equal(t, 0, info.HistoryLen)
	assert.Equal(t, -1, info.Cursor)
}

func TestPostAnalyzeMessage(t *testing.T) {
	f := newBridge(t)
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("ERROR: boom"), 0644))
	f.sess.Remember(path, "ERROR: boom")

	rec := doRequest(t, f, http.MethodPost, "/session/message", `{"type":"analyze"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"analyze"`)

	f.msgRouter.Wait()

	reply, ok := f.lastSent(t).(types.AnalysisResultMsg)
	require.True(t, ok, "expected analysisResult, got %T", f.lastSent(t))
	assert.Equal(t, "root cause", reply.Body.RCA)
	assert.Equal(t, 1, f.sess.HistoryLen())
}

func TestPostMessageHeadlessPickCancelled(t *testing.T) {
	f := newBridge(t)

	rec := doRequest(t, f, http.MethodPost, "/session/message", `{"type":"readFile"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	f.msgRouter.Wait()

	status, ok := f.lastSent(t).(types.StatusMsg)
	require.True(t, ok)
	assert.Equal(t, "Cancelled", status.Message)
}

func TestPostMessageInvalidJSON(t *testing.T) {
	f := newBridge(t)
	rec := doRequest(t, f, http.MethodPost, "/session/message", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrCodeInvalidRequest)
}

func TestGetCurrentAndLast(t *testing.T) {
	f := newBridge(t)

	rec := doRequest(t, f, http.MethodGet, "/session/current", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.sess.PushResult(context.Background(), nil, "abc123", &types.AnalysisResult{RCA: "found it"})

	rec = doRequest(t, f, http.MethodGet, "/session/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var record types.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "found it", record.Result.RCA)

	rec = doRequest(t, f, http.MethodGet, "/session/last", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCloseSession(t *testing.T) {
	f := newBridge(t)
	f.sess.Remember("/tmp/x.log", "body")
	f.sess.PushResult(context.Background(), nil, "", &types.AnalysisResult{RCA: "r"})

	rec := doRequest(t, f, http.MethodPost, "/session/close", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 0, f.sess.HistoryLen())
	assert.Empty(t, f.sess.Cached().Path)
}

func TestPingBackend(t *testing.T) {
	f := newBridge(t)
	rec := doRequest(t, f, http.MethodGet, "/backend/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetConfig(t *testing.T) {
	f := newBridge(t)
	rec := doRequest(t, f, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg types.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.NotEmpty(t, cfg.Backend.BaseURL)
}

func TestEventStream(t *testing.T) {
	f := newBridge(t)
	srv := httptest.NewServer(f.server.Router())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/event", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)

	// First event announces the connection.
	var connected string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			connected = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	require.Contains(t, connected, "bridge.connected")
	require.Contains(t, connected, f.sess.ID)

	// A bus event shows up on the stream.
	f.bus.PublishSync(event.Event{
		Type: event.HistoryCleared,
		Data: event.HistoryClearedData{SessionID: f.sess.ID},
	})

	var streamed string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			streamed = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	assert.Contains(t, streamed, "history.cleared")
}
