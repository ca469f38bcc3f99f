// Package archive provides file-based JSON persistence of analysis records,
// one file per record under <base>/record/<sessionID>/<recordID>.json.
// Archiving is optional: sessions run memory-only when no store is attached.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/debugmate-ai/debugmate/pkg/types"
)

var ErrNotFound = errors.New("not found")

// Store persists analysis records on disk. Writes are atomic (temp file plus
// rename) and guarded by flock so concurrent processes sharing an archive
// directory do not corrupt records.
type Store struct {
	basePath string
}

// New creates a store rooted at basePath.
func New(basePath string) *Store {
	return &Store{basePath: basePath}
}

func (s *Store) recordFile(sessionID, recordID string) string {
	return filepath.Join(s.basePath, "record", sessionID, recordID+".json")
}

func (s *Store) sessionDir(sessionID string) string {
	return filepath.Join(s.basePath, "record", sessionID)
}

// Put archives a record for a session.
func (s *Store) Put(ctx context.Context, sessionID string, record *types.AnalysisRecord) error {
	filePath := s.recordFile(sessionID, record.ID)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	lock := newFileLock(filePath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// Get retrieves one archived record.
func (s *Store) Get(ctx context.Context, sessionID, recordID string) (*types.AnalysisRecord, error) {
	data, err := os.ReadFile(s.recordFile(sessionID, recordID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var record types.AnalysisRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

// List returns a session's archived records ordered by record ID. Record IDs
// are ULIDs, so lexical order is creation order.
func (s *Store) List(ctx context.Context, sessionID string) ([]*types.AnalysisRecord, error) {
	entries, err := os.ReadDir(s.sessionDir(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var records []*types.AnalysisRecord
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		record, err := s.Get(ctx, sessionID, strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue // skip unreadable records
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Sessions returns the IDs of all sessions with archived records.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, "record"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

// Delete removes one archived record. Deleting a missing record is not an
// error.
func (s *Store) Delete(ctx context.Context, sessionID, recordID string) error {
	filePath := s.recordFile(sessionID, recordID)

	lock := newFileLock(filePath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
