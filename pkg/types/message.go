package types

import (
	"encoding/json"
	"fmt"
)

// Inbound is a message from the presentation surface to the orchestrator.
// The set of implementations is closed; the router dispatches with an
// exhaustive type switch rather than a dynamically-keyed table.
type Inbound interface {
	// Tag returns the wire tag for the message.
	Tag() string
	inbound()
}

// Outbound is a message from the orchestrator back to the presentation
// surface.
type Outbound interface {
	Tag() string
	outbound()
}

// Inbound message variants. Analyze and AnalyzeActive differ only in where
// the input text comes from: the session cache (with an explicit pick as
// fallback) versus the host's active editor input.
type (
	// AnalyzeMsg analyzes the cached artifact, or prompts for a file when
	// the cache is empty. SendPath requests server-side path resolution.
	AnalyzeMsg struct {
		SendPath bool `json:"sendPath,omitempty"`
	}

	// AnalyzeActiveMsg analyzes the host's active input (document or
	// selection), falling back to the cache when there is none.
	AnalyzeActiveMsg struct {
		SendPath bool `json:"sendPath,omitempty"`
	}

	// ReadFileMsg prompts for a file, reads it, and caches the content.
	ReadFileMsg struct{}

	// WriteFileMsg writes the cached body to a newly picked path.
	WriteFileMsg struct{}

	// OverwriteFileMsg writes the cached body back to the cached path,
	// after confirmation.
	OverwriteFileMsg struct{}

	// HistoryPrevMsg moves the history cursor one step back.
	HistoryPrevMsg struct{}

	// HistoryNextMsg moves the history cursor one step forward.
	HistoryNextMsg struct{}

	// ClearHistoryMsg discards all history; the cache is untouched.
	ClearHistoryMsg struct{}

	// RunTestsMsg runs the remote test suite.
	RunTestsMsg struct {
		Path  string `json:"path,omitempty"`
		Extra string `json:"extra,omitempty"`
		Quiet bool   `json:"quiet,omitempty"`
	}

	// RunCommandMsg runs an arbitrary command on the remote side.
	RunCommandMsg struct {
		Cmd   string `json:"cmd"`
		Cwd   string `json:"cwd,omitempty"`
		Shell bool   `json:"shell,omitempty"`
	}

	// UnknownMsg is produced by the decoder for tags it does not know.
	// The router answers it with a status, not an error.
	UnknownMsg struct {
		RawTag string `json:"-"`
	}
)

func (AnalyzeMsg) Tag() string       { return "analyze" }
func (AnalyzeActiveMsg) Tag() string { return "analyzeActive" }
func (ReadFileMsg) Tag() string      { return "readFile" }
func (WriteFileMsg) Tag() string     { return "writeFile" }
func (OverwriteFileMsg) Tag() string { return "overwriteFile" }
func (HistoryPrevMsg) Tag() string   { return "historyPrev" }
func (HistoryNextMsg) Tag() string   { return "historyNext" }
func (ClearHistoryMsg) Tag() string  { return "clearHistory" }
func (RunTestsMsg) Tag() string      { return "runTests" }
func (RunCommandMsg) Tag() string    { return "runCommand" }
func (m UnknownMsg) Tag() string     { return m.RawTag }

func (AnalyzeMsg) inbound()       {}
func (AnalyzeActiveMsg) inbound() {}
func (ReadFileMsg) inbound()      {}
func (WriteFileMsg) inbound()     {}
func (OverwriteFileMsg) inbound() {}
func (HistoryPrevMsg) inbound()   {}
func (HistoryNextMsg) inbound()   {}
func (ClearHistoryMsg) inbound()  {}
func (RunTestsMsg) inbound()      {}
func (RunCommandMsg) inbound()    {}
func (UnknownMsg) inbound()       {}

// Outbound message variants.
type (
	// AnalysisResultMsg echoes a completed or recalled analysis.
	AnalysisResultMsg struct {
		Path *string         `json:"path,omitempty"`
		Body *AnalysisResult `json:"body"`
	}

	// FileContentMsg carries a freshly read file.
	FileContentMsg struct {
		Path string `json:"path"`
		Body string `json:"body"`
	}

	// FileWrittenMsg confirms a write, with line-diff metadata against the
	// previous on-disk content when available.
	FileWrittenMsg struct {
		Path      string `json:"path"`
		Body      string `json:"body"`
		Diff      string `json:"diff,omitempty"`
		Additions int    `json:"additions,omitempty"`
		Deletions int    `json:"deletions,omitempty"`
	}

	// RunnerResultMsg carries the output of a remote test or command run.
	RunnerResultMsg struct {
		Body *RunResult `json:"body"`
	}

	// StatusMsg is an informational note (cancellations, unknown tags,
	// empty history).
	StatusMsg struct {
		Message string `json:"message"`
	}

	// ErrorMsg is a user-visible failure emitted at the router boundary.
	ErrorMsg struct {
		Message string `json:"message"`
	}
)

func (AnalysisResultMsg) Tag() string { return "analysisResult" }
func (FileContentMsg) Tag() string    { return "fileContent" }
func (FileWrittenMsg) Tag() string    { return "fileWritten" }
func (RunnerResultMsg) Tag() string   { return "runnerResult" }
func (StatusMsg) Tag() string         { return "status" }
func (ErrorMsg) Tag() string          { return "error" }

func (AnalysisResultMsg) outbound() {}
func (FileContentMsg) outbound()    {}
func (FileWrittenMsg) outbound()    {}
func (RunnerResultMsg) outbound()   {}
func (StatusMsg) outbound()         {}
func (ErrorMsg) outbound()          {}

// envelope is the wire form of a message: the tag plus the variant's fields.
type envelope struct {
	Type string `json:"type"`
}

// DecodeInbound decodes a wire message into its typed variant. Unknown tags
// decode to UnknownMsg so the router can answer with a status.
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	decode := func(v Inbound) (Inbound, error) {
		if err := json.Unmarshal(data, v); err != nil {
			return nil, fmt.Errorf("invalid %q message: %w", env.Type, err)
		}
		return v, nil
	}

	switch env.Type {
	case "analyze":
		return decode(&AnalyzeMsg{})
	case "analyzeActive":
		return decode(&AnalyzeActiveMsg{})
	case "readFile":
		return &ReadFileMsg{}, nil
	case "writeFile":
		return &WriteFileMsg{}, nil
	case "overwriteFile":
		return &OverwriteFileMsg{}, nil
	case "historyPrev":
		return &HistoryPrevMsg{}, nil
	case "historyNext":
		return &HistoryNextMsg{}, nil
	case "clearHistory":
		return &ClearHistoryMsg{}, nil
	case "runTests":
		return decode(&RunTestsMsg{})
	case "runCommand":
		return decode(&RunCommandMsg{})
	default:
		return &UnknownMsg{RawTag: env.Type}, nil
	}
}

// EncodeOutbound encodes an outbound message in the wire envelope form
// {"type": ..., ...fields}.
func EncodeOutbound(msg Outbound) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	tag, err := json.Marshal(envelope{Type: msg.Tag()})
	if err != nil {
		return nil, err
	}

	// Splice the tag into the variant's own object.
	if string(body) == "{}" {
		return tag, nil
	}
	out := append(tag[:len(tag)-1], ',')
	out = append(out, body[1:]...)
	return out, nil
}
