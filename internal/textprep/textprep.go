// Package textprep normalizes raw input text before transmission to the
// analysis backend: notebook cell extraction and size clamping. All
// functions are pure.
package textprep

import (
	"encoding/json"
	"strings"
)

// Strategy values for notebook handling.
const (
	StrategyCells = "cells"
	StrategyRaw   = "raw"
)

const notebookExt = ".ipynb"

// Options controls preparation.
type Options struct {
	// Limit clamps the output to a maximum byte size. Zero or negative
	// disables clamping.
	Limit int
	// NotebookStrategy is StrategyCells or StrategyRaw.
	NotebookStrategy string
}

// Prepared is the result of text preparation.
type Prepared struct {
	Text string
	// Note describes the applied transformations, empty if none.
	Note      string
	Converted bool
	Truncated bool
}

// notebook mirrors the subset of the .ipynb document model we read. A cell
// source may be a single string or an ordered list of fragments.
type notebook struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// Prepare normalizes raw text for transmission. When the path has the
// notebook extension and the strategy is "cells", the document's cells are
// flattened into tagged plaintext blocks; a malformed document falls back to
// the raw text without error. The result is then clamped to opts.Limit.
func Prepare(path, raw string, opts Options) Prepared {
	var prepared Prepared
	var notes []string

	text := raw
	if opts.NotebookStrategy == StrategyCells && strings.HasSuffix(strings.ToLower(path), notebookExt) {
		if extracted, ok := ExtractNotebook(raw); ok {
			text = extracted
			prepared.Converted = true
			notes = append(notes, "Converted from .ipynb")
		}
	}

	text, truncated := Clamp(text, opts.Limit)
	if truncated {
		prepared.Truncated = true
		notes = append(notes, "Truncated large input for performance")
	}

	prepared.Text = text
	prepared.Note = strings.Join(notes, "; ")
	return prepared
}

// ExtractNotebook flattens a notebook document into tagged plaintext blocks,
// one per cell, in original order. Markdown cells are tagged [md], everything
// else [code]. Returns false when the document cannot be parsed or has no
// usable cells; the caller is expected to fall back to the raw text.
func ExtractNotebook(raw string) (string, bool) {
	var nb notebook
	if err := json.Unmarshal([]byte(raw), &nb); err != nil {
		return "", false
	}
	if nb.Cells == nil {
		return "", false
	}

	var pieces []string
	for _, cell := range nb.Cells {
		src, ok := cellSource(cell.Source)
		if !ok {
			continue
		}
		tag := "code"
		if cell.CellType == "markdown" {
			tag = "md"
		}
		pieces = append(pieces, "\n# ["+tag+"]\n"+src)
	}

	text := strings.TrimSpace(strings.Join(pieces, "\n"))
	if text == "" {
		return "", false
	}
	return text, true
}

// cellSource decodes a cell source that is either a string or a list of
// string fragments to concatenate.
func cellSource(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var fragments []string
	if err := json.Unmarshal(raw, &fragments); err == nil {
		return strings.Join(fragments, ""), true
	}

	return "", false
}

// Clamp truncates text to a byte limit on a UTF-8 rune boundary. The second
// return reports whether truncation occurred.
func Clamp(text string, limit int) (string, bool) {
	if limit <= 0 || len(text) <= limit {
		return text, false
	}

	cut := limit
	for cut > 0 && (text[cut]&0xC0) == 0x80 { // continuation byte
		cut--
	}
	return text[:cut], true
}
