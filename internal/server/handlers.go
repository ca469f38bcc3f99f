package server

import (
	"context"
	"io"
	"net/http"

	"github.com/debugmate-ai/debugmate/pkg/types"
)

// maxMessageBody bounds an inbound message payload.
const maxMessageBody = 4 << 20

// SessionInfo is the session summary returned by GET /session.
type SessionInfo struct {
	ID         string `json:"id"`
	CachedPath string `json:"cachedPath,omitempty"`
	HistoryLen int    `json:"historyLen"`
	Cursor     int    `json:"cursor"`
}

// getSession returns the current session summary.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SessionInfo{
		ID:         s.sess.ID,
		CachedPath: s.sess.Cached().Path,
		HistoryLen: s.sess.HistoryLen(),
		Cursor:     s.sess.Cursor(),
	})
}

// postMessage accepts one tagged inbound message and dispatches it. The
// response is an acknowledgement; results arrive on the event stream.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "failed to read body")
		return
	}

	msg, err := types.DecodeInbound(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	// The handler outlives this request; detach from its cancellation.
	s.msgRouter.Dispatch(context.WithoutCancel(r.Context()), msg)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"accepted": true,
		"type":     msg.Tag(),
	})
}

// getCurrent returns the history record at the cursor.
func (s *Server) getCurrent(w http.ResponseWriter, r *http.Request) {
	record := s.sess.Current()
	if record == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "history is empty")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// getLast returns the most recently pushed record, independent of the cursor.
func (s *Server) getLast(w http.ResponseWriter, r *http.Request) {
	record := s.sess.Last()
	if record == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no analysis yet")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// closeSession resets the session to its empty state.
func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	s.sess.Close()
	writeJSON(w, http.StatusOK, map[string]bool{"closed": true})
}

// pingBackend probes the analysis backend.
func (s *Server) pingBackend(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, ErrCodeUpstreamError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// healthz reports bridge liveness.
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getConfig returns the effective configuration.
func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg)
}
