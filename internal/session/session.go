// Package session holds the single mutable state of a debugging session:
// the artifact cache, the analysis history, and the "last analysis"
// reference. A session is created when the presentation surface opens and
// reset when it closes; nothing here is process-global, so multiple
// concurrent sessions are representable.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/debugmate-ai/debugmate/internal/archive"
	"github.com/debugmate-ai/debugmate/internal/event"
	"github.com/debugmate-ai/debugmate/internal/history"
	"github.com/debugmate-ai/debugmate/internal/logging"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

// Cache remembers the most recently read or written artifact for reuse when
// no live input source is available. Last write wins; values are not
// validated.
type Cache struct {
	Path string
	Body string
}

// Session is the state holder for one surface lifetime.
//
// Handlers run concurrently, so every mutation is one atomic step under the
// session mutex. A handler must not read state, await I/O, and then write
// back fields derived from the stale read; it re-reads after resuming.
type Session struct {
	ID string

	mu      sync.Mutex
	cache   Cache
	history *history.Navigator
	last    *types.AnalysisRecord

	bus   *event.Bus
	store *archive.Store // optional, nil means memory-only
	log   zerolog.Logger
}

// New creates a session. The bus is required; the archive store may be nil.
func New(bus *event.Bus, store *archive.Store) *Session {
	id := ulid.Make().String()
	return &Session{
		ID:      id,
		history: history.New(),
		bus:     bus,
		store:   store,
		log:     logging.Component("session").With().Str("sessionID", id).Logger(),
	}
}

// Bus returns the session's event bus.
func (s *Session) Bus() *event.Bus {
	return s.bus
}

// Remember updates the artifact cache. Called on every successful read,
// write, and content-mode analysis; never by history navigation.
func (s *Session) Remember(path, body string) {
	s.mu.Lock()
	s.cache = Cache{Path: path, Body: body}
	s.mu.Unlock()
}

// Cached returns the cached artifact.
func (s *Session) Cached() Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

// PushResult wraps an analysis result in a record, pushes it onto history
// (discarding any abandoned forward branch), sets it as the last analysis,
// and archives it when a store is attached. Called only after the full
// handler succeeded; a failed handler commits nothing.
func (s *Session) PushResult(ctx context.Context, sourcePath *string, incidentID string, result *types.AnalysisResult) *types.AnalysisRecord {
	record := &types.AnalysisRecord{
		ID:         ulid.Make().String(),
		IncidentID: incidentID,
		SourcePath: sourcePath,
		Result:     result,
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.history.Push(record)
	s.last = record
	cursor := s.history.Cursor()
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Put(ctx, s.ID, record); err != nil {
			s.log.Warn().Err(err).Str("recordID", record.ID).Msg("failed to archive record")
		}
	}

	s.log.Debug().Str("recordID", record.ID).Int("cursor", cursor).Msg("analysis pushed")
	s.bus.Publish(event.Event{
		Type: event.AnalysisPushed,
		Data: event.AnalysisPushedData{SessionID: s.ID, Record: record},
	})

	return record
}

// Navigate moves the history cursor by delta and returns the record there,
// or nil when history is empty. The cache is never touched.
func (s *Session) Navigate(delta int) *types.AnalysisRecord {
	s.mu.Lock()
	record := s.history.Navigate(delta)
	cursor := s.history.Cursor()
	s.mu.Unlock()

	if record == nil {
		return nil
	}

	s.bus.Publish(event.Event{
		Type: event.HistoryNavigated,
		Data: event.HistoryNavigatedData{SessionID: s.ID, Cursor: cursor, Record: record},
	})
	return record
}

// Current returns the record at the cursor, or nil.
func (s *Session) Current() *types.AnalysisRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Current()
}

// Last returns the most recently pushed record, independent of the cursor.
func (s *Session) Last() *types.AnalysisRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// HistoryLen returns the number of history records.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// Cursor returns the history cursor, -1 when empty.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Cursor()
}

// ClearHistory resets history and the last-analysis reference. The cache
// survives.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	s.history.Clear()
	s.last = nil
	s.mu.Unlock()

	s.bus.Publish(event.Event{
		Type: event.HistoryCleared,
		Data: event.HistoryClearedData{SessionID: s.ID},
	})
}

// Close resets the session to its empty state and announces the closure.
// The archive, if any, keeps its records.
func (s *Session) Close() {
	s.mu.Lock()
	s.history.Clear()
	s.last = nil
	s.cache = Cache{}
	s.mu.Unlock()

	s.bus.Publish(event.Event{
		Type: event.SessionClosed,
		Data: event.SessionClosedData{SessionID: s.ID},
	})
}
