// Package history maintains the ordered, cursor-addressed sequence of
// completed analyses for a session. History is linear: pushing while the
// cursor is behind the tail discards the abandoned forward branch, matching
// classic undo/redo semantics. At most one analysis is "current" at a time.
package history

import (
	"github.com/debugmate-ai/debugmate/pkg/types"
)

// Navigator holds the record sequence and cursor. It is not safe for
// concurrent use on its own; the owning session serializes access.
type Navigator struct {
	records []*types.AnalysisRecord
	cursor  int
}

// New returns an empty navigator. The cursor of an empty navigator is -1.
func New() *Navigator {
	return &Navigator{cursor: -1}
}

// Push appends a record. Any records after the cursor are discarded first,
// and the cursor lands on the new tail.
func (n *Navigator) Push(record *types.AnalysisRecord) {
	if n.cursor < len(n.records)-1 {
		n.records = n.records[:n.cursor+1]
	}
	n.records = append(n.records, record)
	n.cursor = len(n.records) - 1
}

// Navigate moves the cursor by delta, clamped to the valid range, and
// returns the record at the resulting cursor. On empty history it is a no-op
// returning nil.
func (n *Navigator) Navigate(delta int) *types.AnalysisRecord {
	if len(n.records) == 0 {
		return nil
	}

	cursor := n.cursor + delta
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(n.records)-1 {
		cursor = len(n.records) - 1
	}
	n.cursor = cursor
	return n.records[n.cursor]
}

// Current returns the record at the cursor, or nil when history is empty.
func (n *Navigator) Current() *types.AnalysisRecord {
	if n.cursor < 0 {
		return nil
	}
	return n.records[n.cursor]
}

// Clear resets to the empty state. The session cache is unaffected; that
// separation belongs to the caller.
func (n *Navigator) Clear() {
	n.records = nil
	n.cursor = -1
}

// Len returns the number of records.
func (n *Navigator) Len() int {
	return len(n.records)
}

// Cursor returns the cursor position, -1 when empty.
func (n *Navigator) Cursor() int {
	return n.cursor
}
